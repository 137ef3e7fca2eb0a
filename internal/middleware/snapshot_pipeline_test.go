package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"GlobalLiquidity/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string, string) {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordCache(string)                 {}
func (nopMetrics) RecordLatency(string, float64)      {}
func (nopMetrics) RecordLastValue(string, float64)    {}
func (nopMetrics) RecordSnapshot(string, string)      {}

type flakySink struct {
	mu       sync.Mutex
	failures int
	written  []string
}

func (s *flakySink) Process(_ context.Context, key string, _ *models.ResultTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("backend unavailable")
	}
	s.written = append(s.written, key)
	return nil
}

func (s *flakySink) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

func tbl() *models.ResultTable {
	return &models.ResultTable{
		RunID: "run-1",
		Rows:  []models.Row{{Date: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), GlobalM2: models.Some(1)}},
	}
}

func TestPipelineForwards(t *testing.T) {
	sink := &flakySink{}
	p := NewSnapshotPipeline(sink, nopMetrics{})

	require.NoError(t, p.Process(context.Background(), "liquidity:8:0", tbl()))
	assert.Equal(t, []string{"liquidity:8:0"}, sink.Written())
}

func TestPipelineRejectsInvalid(t *testing.T) {
	p := NewSnapshotPipeline(&flakySink{}, nopMetrics{})
	ctx := context.Background()

	assert.Error(t, p.Process(ctx, "", tbl()))
	assert.Error(t, p.Process(ctx, "k", nil))
	assert.Error(t, p.Process(ctx, "k", &models.ResultTable{RunID: "r"}))
	assert.Error(t, p.Process(ctx, "k", &models.ResultTable{Rows: tbl().Rows}))
}

func TestPipelineThrottlesPerKey(t *testing.T) {
	sink := &flakySink{}
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	p := NewSnapshotPipeline(sink, nopMetrics{},
		WithMinInterval(time.Minute),
		WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, "a", tbl()))
	require.NoError(t, p.Process(ctx, "a", tbl()))
	require.NoError(t, p.Process(ctx, "b", tbl()))
	now = now.Add(time.Minute)
	require.NoError(t, p.Process(ctx, "a", tbl()))

	assert.Equal(t, []string{"a", "b", "a"}, sink.Written())
}

func TestPipelineRetriesBufferedTables(t *testing.T) {
	sink := &flakySink{failures: 2}
	p := NewSnapshotPipeline(sink, nopMetrics{}, WithBackoff(time.Millisecond, 5*time.Millisecond))

	err := p.Process(context.Background(), "k", tbl())
	require.Error(t, err)
	assert.Equal(t, 1, p.Pending())

	p.Start(context.Background())
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return len(sink.Written()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, p.Pending())
}

func TestPipelineDropsWhenBufferFull(t *testing.T) {
	sink := &flakySink{failures: 10}
	p := NewSnapshotPipeline(sink, nopMetrics{}, WithBufferSize(1))
	ctx := context.Background()

	assert.Error(t, p.Process(ctx, "a", tbl()))
	assert.Error(t, p.Process(ctx, "b", tbl()))
	assert.Equal(t, 1, p.Pending())
}

func TestPipelineStopIsIdempotent(t *testing.T) {
	p := NewSnapshotPipeline(&flakySink{}, nopMetrics{})
	p.Stop()
	p.Start(context.Background())
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}

func TestPipelineRestartsAfterStop(t *testing.T) {
	sink := &flakySink{failures: 1}
	p := NewSnapshotPipeline(sink, nopMetrics{}, WithBackoff(time.Millisecond, 5*time.Millisecond))

	p.Start(context.Background())
	p.Stop()

	require.Error(t, p.Process(context.Background(), "k", tbl()))
	require.NotPanics(t, func() { p.Start(context.Background()) })
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return len(sink.Written()) == 1
	}, time.Second, 5*time.Millisecond)
}
