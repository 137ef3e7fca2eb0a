package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"GlobalLiquidity/internal/domain/models"
	"GlobalLiquidity/pkg/config"
)

var testNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeSource serves constant series: daily for market tickers, monthly on
// the first of the month for macro codes.
type fakeSource struct {
	mu     sync.Mutex
	values map[string]float64
	fail   map[string]bool
	empty  map[string]bool
	calls  map[string]int
	total  atomic.Int64
}

func newFakeSource(values map[string]float64) *fakeSource {
	return &fakeSource{
		values: values,
		fail:   map[string]bool{},
		empty:  map[string]bool{},
		calls:  map[string]int{},
	}
}

func (f *fakeSource) record(id string) {
	f.total.Add(1)
	f.mu.Lock()
	f.calls[id]++
	f.mu.Unlock()
}

func (f *fakeSource) Calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeSource) series(src models.Source, id string, start time.Time, step func(time.Time) time.Time) (models.RawSeries, error) {
	f.record(id)
	if f.fail[id] {
		return models.RawSeries{}, models.NewFetchError(src, id, errors.New("rate limited"))
	}
	raw := models.RawSeries{ID: id}
	if f.empty[id] {
		return raw, nil
	}
	v, ok := f.values[id]
	if !ok {
		return models.RawSeries{}, models.NewFetchError(src, id, errors.New("unknown identifier"))
	}
	for d := start; !d.After(testNow); d = step(d) {
		raw.Observations = append(raw.Observations, models.Observation{Date: d, Value: v})
	}
	return raw, nil
}

func (f *fakeSource) FetchMarketSeries(_ context.Context, ticker string, start time.Time) (models.RawSeries, error) {
	return f.series(models.SourceMarket, ticker, start, func(t time.Time) time.Time { return t.AddDate(0, 0, 1) })
}

func (f *fakeSource) FetchMacroSeries(_ context.Context, code string, start time.Time) (models.RawSeries, error) {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	return f.series(models.SourceMacro, code, first, func(t time.Time) time.Time { return t.AddDate(0, 1, 0) })
}

func marketValues() map[string]float64 {
	return map[string]float64{
		"EURUSD=X": 1.10,
		"JPY=X":    150,
		"CNY=X":    7.25,
		"BTC-USD":  50_000,
		"MSTR":     100_000,
	}
}

func macroValues() map[string]float64 {
	return map[string]float64{
		"M2SL":            21_000,
		"MANMM101EZM189S": 15_000_000,
		"MANMM101JPM189S": 1_200_000_000,
		"MANMM101CNM189S": 290_000_000,
		"WALCL":           7_000_000,
		"ECBASSETSW":      6_500_000,
		"JPNASSETS":       7_500_000,
	}
}

func testConfig() LiquidityConfig {
	return LiquidityConfig{
		Components:     config.DefaultComponents(),
		PriceTicker:    "BTC-USD",
		RatioNumerator: "MSTR",
		Divisor:        100,
		CacheTTL:       12 * time.Hour,
		Timeout:        10 * time.Second,
	}
}

type fakeSink struct {
	mu     sync.Mutex
	keys   []string
	tables []*models.ResultTable
	err    error
}

func (s *fakeSink) Process(_ context.Context, key string, t *models.ResultTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	s.tables = append(s.tables, t)
	return s.err
}

type fakeMetrics struct {
	noopMetrics
	mu    sync.Mutex
	cache map[string]int
	snaps map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{cache: map[string]int{}, snaps: map[string]int{}}
}

func (m *fakeMetrics) RecordCache(result string) {
	m.mu.Lock()
	m.cache[result]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordSnapshot(backend, result string) {
	m.mu.Lock()
	m.snaps[backend+":"+result]++
	m.mu.Unlock()
}
