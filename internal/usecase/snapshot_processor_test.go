package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"GlobalLiquidity/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	keys   []string
	err    error
	closed bool
}

func (p *fakePublisher) PublishTable(_ context.Context, key string, _ *models.ResultTable) error {
	p.keys = append(p.keys, key)
	return p.err
}

func (p *fakePublisher) Close() error { p.closed = true; return nil }

type fakeStorage struct {
	keys   []string
	err    error
	closed bool
}

func (s *fakeStorage) Init(context.Context) error   { return nil }
func (s *fakeStorage) Health(context.Context) error { return nil }
func (s *fakeStorage) Close() error                 { s.closed = true; return nil }

func (s *fakeStorage) StoreTable(_ context.Context, key string, _ *models.ResultTable) error {
	s.keys = append(s.keys, key)
	return s.err
}

func sampleTable() *models.ResultTable {
	return &models.ResultTable{
		RunID:         "run-1",
		LookbackYears: 3,
		Divisor:       100,
		ComputedAt:    testNow,
		Rows: []models.Row{
			{Date: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), GlobalM2: models.Some(85.5)},
		},
	}
}

func TestSnapshotProcessorRoutesByBackend(t *testing.T) {
	ctx := context.Background()

	pub, store := &fakePublisher{}, &fakeStorage{}
	mets := newFakeMetrics()
	require.NoError(t, NewSnapshotProcessor(pub, store, mets, BackendKafka).Process(ctx, "liquidity:3:0", sampleTable()))
	assert.Equal(t, []string{"liquidity:3:0"}, pub.keys)
	assert.Empty(t, store.keys)
	assert.Equal(t, 1, mets.snaps["kafka:ok"])

	pub, store = &fakePublisher{}, &fakeStorage{}
	require.NoError(t, NewSnapshotProcessor(pub, store, nil, BackendClickHouse).Process(ctx, "k", sampleTable()))
	assert.Empty(t, pub.keys)
	assert.Equal(t, []string{"k"}, store.keys)

	pub, store = &fakePublisher{}, &fakeStorage{}
	p := NewSnapshotProcessor(pub, store, nil, "")
	assert.Equal(t, BackendNone, p.Backend())
	require.NoError(t, p.Process(ctx, "k", sampleTable()))
	assert.Empty(t, pub.keys)
	assert.Empty(t, store.keys)
}

func TestSnapshotProcessorErrors(t *testing.T) {
	ctx := context.Background()
	mets := newFakeMetrics()

	pub := &fakePublisher{err: errors.New("broker down")}
	err := NewSnapshotProcessor(pub, nil, mets, BackendKafka).Process(ctx, "k", sampleTable())
	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, 1, mets.snaps["kafka:error"])

	err = NewSnapshotProcessor(nil, nil, nil, BackendClickHouse).Process(ctx, "k", sampleTable())
	assert.ErrorContains(t, err, "not configured")

	err = NewSnapshotProcessor(nil, nil, nil, "s3").Process(ctx, "k", sampleTable())
	assert.ErrorContains(t, err, "unknown backend")

	err = NewSnapshotProcessor(pub, nil, nil, BackendKafka).Process(ctx, "k", nil)
	assert.Error(t, err)
}

func TestSnapshotProcessorClose(t *testing.T) {
	pub, store := &fakePublisher{}, &fakeStorage{}
	NewSnapshotProcessor(pub, store, nil, BackendKafka).Close()
	assert.True(t, pub.closed)
	assert.True(t, store.closed)
}
