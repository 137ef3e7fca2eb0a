package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"GlobalLiquidity/internal/domain/models"
	"GlobalLiquidity/internal/domain/repository"
	applogger "GlobalLiquidity/pkg/logger"
)

// DB is the subset of *sql.DB the storage uses.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PingContext(ctx context.Context) error
}

const insertChunk = 500

// ClickHouseStorage implements Storage for ClickHouse. Every computed table
// becomes one row per month, tagged with its run id and cache key.
type ClickHouseStorage struct {
	db    DB
	table string
	l     *applogger.Logger
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db DB, table string, l *applogger.Logger) repository.Storage {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseStorage{db: db, table: table, l: l.Component("clickhouse")}
}

// Init creates the snapshot table if missing.
func (s *ClickHouseStorage) Init(ctx context.Context) error {
	q := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            run_id         String,
            cache_key      LowCardinality(String),
            computed_at    DateTime64(3, 'UTC'),
            lookback_years UInt8,
            shift_months   Int8,
            divisor        Float64,
            month          Date,
            global_m2      Nullable(Float64),
            global_assets  Nullable(Float64),
            price          Nullable(Float64),
            ratio          Nullable(Float64)
        )
        ENGINE = ReplacingMergeTree(computed_at)
        ORDER BY (cache_key, month)
    `, s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *ClickHouseStorage) StoreTable(ctx context.Context, key string, t *models.ResultTable) error {
	start := time.Now()
	for lo := 0; lo < len(t.Rows); lo += insertChunk {
		hi := min(lo+insertChunk, len(t.Rows))
		q, args := s.insert(key, t, t.Rows[lo:hi])
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert error",
				applogger.String("table", s.table),
				applogger.String("run_id", t.RunID),
				applogger.Error(err),
			)
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}
	s.l.Debug("clickhouse snapshot stored",
		applogger.String("table", s.table),
		applogger.String("key", key),
		applogger.Int("rows", len(t.Rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *ClickHouseStorage) insert(key string, t *models.ResultTable, rows []models.Row) (string, []interface{}) {
	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*11)
	for _, r := range rows {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			t.RunID,
			key,
			t.ComputedAt,
			uint8(t.LookbackYears),
			int8(t.ShiftMonths),
			t.Divisor,
			r.Date,
			nullable(r.GlobalM2),
			nullable(r.GlobalAssets),
			nullable(r.Price),
			nullable(r.Ratio),
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (run_id, cache_key, computed_at, lookback_years, shift_months, divisor, month, global_m2, global_assets, price, ratio) VALUES %s",
		s.table, strings.Join(values, ","))
	return q, args
}

func nullable(v models.Value) interface{} {
	if !v.OK {
		return nil
	}
	return v.V
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseStorage) Close() error {
	return nil
}
