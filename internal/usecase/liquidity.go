package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"GlobalLiquidity/internal/domain/models"
	drepo "GlobalLiquidity/internal/domain/repository"
	"GlobalLiquidity/internal/services/series"
	"GlobalLiquidity/pkg/cache"
	"GlobalLiquidity/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Months fetched before the first grid period so sparse releases have an
// observation to carry into the first grid point.
const fetchLeadMonths = 3

// LiquidityConfig holds the engine settings.
type LiquidityConfig struct {
	Components     []models.Component
	PriceTicker    string
	RatioNumerator string
	Divisor        float64
	CacheTTL       time.Duration
	Timeout        time.Duration
	KeyPrefix      string
}

// SnapshotSink receives every freshly computed table.
type SnapshotSink interface {
	Process(ctx context.Context, key string, t *models.ResultTable) error
}

// LiquidityUseCase computes the global liquidity table behind a TTL cache.
// Concurrent requests for the same parameters share one computation.
type LiquidityUseCase struct {
	market  drepo.MarketSource
	macro   drepo.MacroSource
	cache   cache.Service
	sink    SnapshotSink
	metrics drepo.Metrics
	log     *logger.Logger
	cfg     LiquidityConfig
	now     func() time.Time
	newID   func() string

	group   singleflight.Group
	pending sync.WaitGroup
}

type LiquidityOption func(*LiquidityUseCase)

func WithSink(s SnapshotSink) LiquidityOption {
	return func(uc *LiquidityUseCase) { uc.sink = s }
}

func WithMetrics(m drepo.Metrics) LiquidityOption {
	return func(uc *LiquidityUseCase) { uc.metrics = m }
}

func WithLogger(l *logger.Logger) LiquidityOption {
	return func(uc *LiquidityUseCase) { uc.log = l.Component("liquidity") }
}

func WithClock(now func() time.Time) LiquidityOption {
	return func(uc *LiquidityUseCase) { uc.now = now }
}

func WithIDGenerator(f func() string) LiquidityOption {
	return func(uc *LiquidityUseCase) { uc.newID = f }
}

func NewLiquidityUseCase(
	market drepo.MarketSource,
	macro drepo.MacroSource,
	c cache.Service,
	cfg LiquidityConfig,
	opts ...LiquidityOption,
) (*LiquidityUseCase, error) {
	if market == nil || macro == nil || c == nil {
		return nil, fmt.Errorf("liquidity: market, macro and cache are required")
	}
	if cfg.Divisor == 0 {
		return nil, fmt.Errorf("liquidity: divisor must be non-zero")
	}
	if cfg.PriceTicker == "" || cfg.RatioNumerator == "" {
		return nil, fmt.Errorf("liquidity: price ticker and ratio numerator are required")
	}
	if len(cfg.Components) == 0 {
		return nil, fmt.Errorf("liquidity: no components configured")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 12 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "liquidity"
	}

	uc := &LiquidityUseCase{
		market:  market,
		macro:   macro,
		cache:   c,
		metrics: noopMetrics{},
		log:     logger.Nop(),
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc, nil
}

// Components returns the active component table.
func (uc *LiquidityUseCase) Components() []models.Component {
	out := make([]models.Component, len(uc.cfg.Components))
	copy(out, uc.cfg.Components)
	return out
}

// CacheKey is the result cache key for p.
func (uc *LiquidityUseCase) CacheKey(p models.Params) string {
	return cache.GenerateKeyWithParams(uc.cfg.KeyPrefix, p.LookbackYears, p.ShiftMonths)
}

// Compute returns the table for p, from cache when a fresh entry exists.
func (uc *LiquidityUseCase) Compute(ctx context.Context, p models.Params) (*models.ResultTable, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := uc.CacheKey(p)

	if t, ok := uc.cached(ctx, key); ok {
		uc.metrics.RecordCache("hit")
		return t, nil
	}

	ch := uc.group.DoChan(key, func() (interface{}, error) {
		// another flight may have filled the entry while we waited
		if t, ok := uc.cached(ctx, key); ok {
			return t, nil
		}
		uc.metrics.RecordCache("miss")

		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.Timeout)
		defer cancel()

		t, err := uc.compute(cctx, p)
		if err != nil {
			return nil, err
		}
		if err := uc.cache.Set(cctx, key, t, uc.cfg.CacheTTL); err != nil {
			uc.metrics.RecordError("cache_set")
			uc.log.Warn("cache set failed", logger.String("key", key), logger.Error(err))
		}
		uc.publish(key, t)
		return t, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			uc.metrics.RecordCache("shared")
		}
		return res.Val.(*models.ResultTable), nil
	}
}

// Invalidate drops every cached table.
func (uc *LiquidityUseCase) Invalidate(ctx context.Context) error {
	return uc.cache.DeleteByPattern(ctx, cache.BuildPattern(uc.cfg.KeyPrefix))
}

// Wait blocks until background snapshot writes finish.
func (uc *LiquidityUseCase) Wait() { uc.pending.Wait() }

func (uc *LiquidityUseCase) cached(ctx context.Context, key string) (*models.ResultTable, bool) {
	var t models.ResultTable
	err := uc.cache.Get(ctx, key, &t)
	switch {
	case err == nil:
		return &t, true
	case errors.Is(err, cache.ErrCacheMiss):
	default:
		uc.metrics.RecordError("cache_get")
		uc.log.Warn("cache get failed", logger.String("key", key), logger.Error(err))
	}
	return nil, false
}

func (uc *LiquidityUseCase) publish(key string, t *models.ResultTable) {
	if uc.sink == nil {
		return
	}
	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), uc.cfg.Timeout)
		defer cancel()
		if err := uc.sink.Process(ctx, key, t); err != nil {
			uc.log.Warn("snapshot write failed", logger.String("key", key), logger.Error(err))
		}
	}()
}

func (uc *LiquidityUseCase) compute(ctx context.Context, p models.Params) (*models.ResultTable, error) {
	began := time.Now()
	now := uc.now().UTC()

	grid, err := series.BuildGrid(p.LookbackYears, now)
	if err != nil {
		return nil, err
	}
	start := series.Start(grid).AddDate(0, -fetchLeadMonths, 0)

	fetched := uc.fetchAll(ctx, start)
	if err := fetched.macroError(uc.cfg.Components); err != nil {
		uc.metrics.RecordError("fetch_macro")
		uc.log.Error("macro fetch failed, aborting", logger.Error(err))
		return nil, err
	}

	t := &models.ResultTable{
		RunID:         uc.newID(),
		LookbackYears: p.LookbackYears,
		ShiftMonths:   p.ShiftMonths,
		Divisor:       uc.cfg.Divisor,
		ComputedAt:    now,
	}
	for ticker, err := range fetched.marketErr {
		if t.Failures == nil {
			t.Failures = make(map[string]string)
		}
		t.Failures[ticker] = causeOf(err)
	}

	market := func(ticker string) models.Series {
		return series.Align(fetched.market[ticker], grid, models.ResampleAuto)
	}

	byMetric := make(map[models.Metric][]models.Series)
	for _, c := range uc.cfg.Components {
		aligned := series.Align(fetched.macro[c.ID], grid, c.Resample)
		var fx models.Series
		if c.FXOp == models.FXMultiply || c.FXOp == models.FXDivide {
			fx = market(c.FX)
		}
		n, err := series.Normalize(aligned, c.Scale, fx, c.FXOp)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", c.ID, err)
		}
		if n.AllUndefined() {
			t.Warnings = append(t.Warnings, fmt.Sprintf("%s: no defined values on the grid", c.ID))
		}
		byMetric[c.Metric] = append(byMetric[c.Metric], n)
	}

	m2, err := composite(t, models.ColGlobalM2, byMetric[models.MetricM2], len(grid))
	if err != nil {
		return nil, err
	}
	assets, err := composite(t, models.ColGlobalAssets, byMetric[models.MetricAssets], len(grid))
	if err != nil {
		return nil, err
	}
	m2 = series.Shift(m2, p.ShiftMonths)

	price := market(uc.cfg.PriceTicker)
	ratio, err := series.Ratio(market(uc.cfg.RatioNumerator), price, uc.cfg.Divisor)
	if err != nil {
		return nil, err
	}

	rows, err := series.Assemble(grid, m2, assets, price, ratio)
	if err != nil {
		uc.metrics.RecordError("empty_result")
		return nil, err
	}
	t.Rows = rows

	uc.recordLast(rows)
	took := time.Since(began)
	uc.metrics.RecordLatency("compute", took.Seconds())
	uc.log.Info("liquidity computed",
		logger.String("run_id", t.RunID),
		logger.Int("lookback_years", p.LookbackYears),
		logger.Int("shift_months", p.ShiftMonths),
		logger.Int("rows", len(rows)),
		logger.Any("failures", t.Failures),
		logger.Duration("took_ms", took),
	)
	return t, nil
}

// composite aggregates one metric. A metric with no defined value anywhere
// becomes a warning; the assembler decides whether rows remain.
func composite(t *models.ResultTable, name string, parts []models.Series, n int) (models.Series, error) {
	if len(parts) == 0 {
		t.Warnings = append(t.Warnings, fmt.Sprintf("%s: %s", name, models.ErrAllComponentsMissing))
		return models.Undefined(n), nil
	}
	s, err := series.Aggregate(parts...)
	if errors.Is(err, models.ErrAllComponentsMissing) {
		t.Warnings = append(t.Warnings, fmt.Sprintf("%s: %s", name, err))
		return s, nil
	}
	return s, err
}

func (uc *LiquidityUseCase) recordLast(rows []models.Row) {
	for _, col := range models.Columns {
		for i := len(rows) - 1; i >= 0; i-- {
			if v := rows[i].Get(col); v.OK {
				uc.metrics.RecordLastValue(col, v.V)
				break
			}
		}
	}
}

type fetchResult struct {
	market    map[string]models.RawSeries
	macro     map[string]models.RawSeries
	marketErr map[string]error
	macroErr  map[string]error
}

// macroError joins macro failures in component order.
func (r fetchResult) macroError(cs []models.Component) error {
	var errs []error
	for _, c := range cs {
		if err, ok := r.macroErr[c.ID]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fetchAll issues every fetch concurrently. Failures are recorded per
// identifier and never cancel the other requests.
func (uc *LiquidityUseCase) fetchAll(ctx context.Context, start time.Time) fetchResult {
	tickers := uc.tickers()
	codes := make([]string, 0, len(uc.cfg.Components))
	for _, c := range uc.cfg.Components {
		codes = append(codes, c.ID)
	}

	type item struct {
		source models.Source
		id     string
		raw    models.RawSeries
		err    error
	}
	ch := make(chan item, len(tickers)+len(codes))
	var wg sync.WaitGroup

	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			raw, err := uc.market.FetchMarketSeries(ctx, ticker, start)
			ch <- item{models.SourceMarket, ticker, raw, err}
		}(ticker)
	}
	for _, code := range codes {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			raw, err := uc.macro.FetchMacroSeries(ctx, code, start)
			ch <- item{models.SourceMacro, code, raw, err}
		}(code)
	}
	go func() { wg.Wait(); close(ch) }()

	res := fetchResult{
		market:    make(map[string]models.RawSeries),
		macro:     make(map[string]models.RawSeries),
		marketErr: make(map[string]error),
		macroErr:  make(map[string]error),
	}
	for it := range ch {
		result := "ok"
		if it.err != nil {
			result = "error"
			var fe *models.FetchError
			if !errors.As(it.err, &fe) {
				it.err = models.NewFetchError(it.source, it.id, it.err)
			}
		}
		uc.metrics.RecordFetch(string(it.source), it.id, result)

		switch {
		case it.source == models.SourceMarket && it.err != nil:
			res.marketErr[it.id] = it.err
			uc.log.Warn("market series unavailable", logger.String("ticker", it.id), logger.Error(it.err))
		case it.source == models.SourceMarket:
			res.market[it.id] = it.raw
		case it.err != nil:
			res.macroErr[it.id] = it.err
		default:
			res.macro[it.id] = it.raw
		}
	}
	return res
}

// tickers lists every market series the table needs, sorted.
func (uc *LiquidityUseCase) tickers() []string {
	set := map[string]bool{uc.cfg.PriceTicker: true, uc.cfg.RatioNumerator: true}
	for _, c := range uc.cfg.Components {
		if c.FX != "" {
			set[c.FX] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func causeOf(err error) string {
	var fe *models.FetchError
	if errors.As(err, &fe) {
		return fe.Cause
	}
	return err.Error()
}

type noopMetrics struct{}

func (noopMetrics) RecordFetch(string, string, string) {}
func (noopMetrics) RecordError(string)                 {}
func (noopMetrics) RecordCache(string)                 {}
func (noopMetrics) RecordLatency(string, float64)      {}
func (noopMetrics) RecordLastValue(string, float64)    {}
func (noopMetrics) RecordSnapshot(string, string)      {}
