package repository

import (
	"context"
	"time"

	"GlobalLiquidity/internal/domain/models"
)

// MarketSource returns daily quotes for a market ticker.
type MarketSource interface {
	FetchMarketSeries(ctx context.Context, ticker string, start time.Time) (models.RawSeries, error)
}

// MacroSource returns observations for an economic series code.
type MacroSource interface {
	FetchMacroSeries(ctx context.Context, code string, start time.Time) (models.RawSeries, error)
}

// Publisher pushes computed tables to a message bus.
type Publisher interface {
	PublishTable(ctx context.Context, key string, t *models.ResultTable) error
	Close() error
}

// Storage persists computed tables as snapshot rows.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreTable(ctx context.Context, key string, t *models.ResultTable) error
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordFetch(source, id, result string)
	RecordError(kind string)
	RecordCache(result string)
	RecordLatency(op string, seconds float64)
	RecordLastValue(column string, v float64)
	RecordSnapshot(backend, result string)
}
