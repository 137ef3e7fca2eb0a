// Package yahoo fetches daily closes from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // exchange zones on hosts without zoneinfo

	"GlobalLiquidity/internal/domain/models"
	drepo "GlobalLiquidity/internal/domain/repository"
	xhttp "GlobalLiquidity/pkg/http"
	"GlobalLiquidity/pkg/logger"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

var _ drepo.MarketSource = (*Client)(nil)

// Client implements MarketSource using the v8 chart endpoint.
type Client struct {
	baseURL string
	http    *xhttp.Client
	log     *logger.Logger
	now     func() time.Time
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l.Component("yahoo") }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(opts ...Option) *Client {
	c := &Client{baseURL: DefaultBaseURL, log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient()
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta       chartMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartMeta struct {
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	GMTOffset            int    `json:"gmtoffset"`
}

// location is the exchange zone bars are stamped in. The named zone is
// preferred since gmtoffset is only the offset in effect right now.
func (m chartMeta) location() *time.Location {
	if m.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(m.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	if m.GMTOffset != 0 {
		return time.FixedZone("exchange", m.GMTOffset)
	}
	return time.UTC
}

// tradingDay returns the exchange-local calendar day of a bar as UTC midnight.
func tradingDay(ts int64, loc *time.Location) time.Time {
	t := time.Unix(ts, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FetchMarketSeries returns daily closes for ticker from start until now.
// Days with a null close are skipped.
func (c *Client) FetchMarketSeries(ctx context.Context, ticker string, start time.Time) (models.RawSeries, error) {
	began := time.Now()
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker),
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"period1":  {strconv.FormatInt(start.UTC().Unix(), 10)},
			"period2":  {strconv.FormatInt(c.now().UTC().Unix(), 10)},
		},
	}, &resp)
	if err != nil {
		c.log.Warn("yahoo fetch failed", logger.String("ticker", ticker), logger.Error(err))
		return models.RawSeries{}, models.NewFetchError(models.SourceMarket, ticker, err)
	}
	if e := resp.Chart.Error; e != nil {
		err := fmt.Errorf("%s: %s", e.Code, e.Description)
		c.log.Warn("yahoo chart error", logger.String("ticker", ticker), logger.Error(err))
		return models.RawSeries{}, models.NewFetchError(models.SourceMarket, ticker, err)
	}

	raw := models.RawSeries{ID: ticker}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		c.log.Warn("yahoo returned no data", logger.String("ticker", ticker))
		return raw, nil
	}

	result := resp.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	loc := result.Meta.location()
	raw.Observations = make([]models.Observation, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		raw.Observations = append(raw.Observations, models.Observation{
			Date:  tradingDay(ts, loc),
			Value: *closes[i],
		})
	}

	c.log.Debug("yahoo fetch",
		logger.String("ticker", ticker),
		logger.Int("count", len(raw.Observations)),
		logger.Duration("took_ms", time.Since(began)),
	)
	return raw, nil
}
