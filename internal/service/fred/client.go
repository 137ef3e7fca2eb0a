// Package fred fetches economic series observations from the FRED API.
package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"GlobalLiquidity/internal/domain/models"
	drepo "GlobalLiquidity/internal/domain/repository"
	xhttp "GlobalLiquidity/pkg/http"
	"GlobalLiquidity/pkg/logger"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.stlouisfed.org/fred"

	dateLayout = "2006-01-02"
	// missingValue is how FRED marks an observation with no data.
	missingValue = "."
)

var _ drepo.MacroSource = (*Client)(nil)

// Client implements MacroSource against the FRED observations endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit paces requests to perMinute with a small burst.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := perMinute / 12
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l.Component("fred") }
}

// New returns a FRED client. An empty key is rejected before any request.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, models.ErrMissingCredential
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		log:     logger.Nop(),
	}
	WithRateLimit(120)(c)
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient()
	}
	return c, nil
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

type errorResponse struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_message"`
}

// FetchMacroSeries returns every observation of code dated on or after start.
func (c *Client) FetchMacroSeries(ctx context.Context, code string, start time.Time) (models.RawSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.RawSeries{}, models.NewFetchError(models.SourceMacro, code, err)
	}

	began := time.Now()
	var resp observationsResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/series/observations",
		QueryParams: map[string][]string{
			"series_id":         {code},
			"api_key":           {c.apiKey},
			"file_type":         {"json"},
			"sort_order":        {"asc"},
			"observation_start": {start.UTC().Format(dateLayout)},
		},
	}, &resp)
	if err != nil {
		err = c.classify(err)
		c.log.Warn("fred fetch failed", logger.String("series", code), logger.Error(err))
		return models.RawSeries{}, models.NewFetchError(models.SourceMacro, code, err)
	}

	raw := models.RawSeries{ID: code, Observations: make([]models.Observation, 0, len(resp.Observations))}
	skipped := 0
	for _, o := range resp.Observations {
		if o.Value == missingValue {
			skipped++
			continue
		}
		d, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			skipped++
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			skipped++
			continue
		}
		raw.Observations = append(raw.Observations, models.Observation{Date: d, Value: v})
	}

	c.log.Debug("fred fetch",
		logger.String("series", code),
		logger.Int("count", len(raw.Observations)),
		logger.Int("skipped", skipped),
		logger.Duration("took_ms", time.Since(began)),
	)
	return raw, nil
}

// classify extracts FRED's error message and flags key problems as
// credential errors.
func (c *Client) classify(err error) error {
	var se *xhttp.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body errorResponse
	msg := strings.TrimSpace(string(se.Body))
	if json.Unmarshal(se.Body, &body) == nil && body.Message != "" {
		msg = body.Message
	}
	if strings.Contains(strings.ToLower(msg), "api_key") || se.StatusCode == 401 || se.StatusCode == 403 {
		return fmt.Errorf("%w: %s", models.ErrMissingCredential, msg)
	}
	return fmt.Errorf("status %d: %s", se.StatusCode, msg)
}
