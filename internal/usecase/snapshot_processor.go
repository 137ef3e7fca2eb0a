package usecase

import (
	"context"
	"fmt"
	"time"

	"GlobalLiquidity/internal/domain/models"
	drepo "GlobalLiquidity/internal/domain/repository"
)

const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// SnapshotProcessor routes computed tables to the configured backend.
type SnapshotProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
}

// NewSnapshotProcessor creates a new SnapshotProcessor instance.
func NewSnapshotProcessor(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend string,
) *SnapshotProcessor {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if backend == "" {
		backend = BackendNone
	}
	return &SnapshotProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Backend returns the configured backend name.
func (p *SnapshotProcessor) Backend() string { return p.backend }

// Process writes one table to the backend.
func (p *SnapshotProcessor) Process(ctx context.Context, key string, t *models.ResultTable) error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendNone:
		return nil
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka publisher not configured")
			break
		}
		err = p.pub.PublishTable(ctx, key, t)
	case BackendClickHouse:
		if p.store == nil {
			err = fmt.Errorf("clickhouse storage not configured")
			break
		}
		err = p.store.StoreTable(ctx, key, t)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordSnapshot(p.backend, "error")
		p.metrics.RecordError("snapshot")
		return fmt.Errorf("process snapshot: %w", err)
	}

	p.metrics.RecordSnapshot(p.backend, "ok")
	p.metrics.RecordLatency("snapshot", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *SnapshotProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
