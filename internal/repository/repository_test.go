package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"GlobalLiquidity/internal/domain/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	key     string
	value   []byte
	headers []kafka.Header
}

type fakeProducer struct {
	msgs   []published
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}, headers ...kafka.Header) error {
	f.msgs = append(f.msgs, published{topic, string(key), value.([]byte), headers})
	return nil
}

func (f *fakeProducer) Close() error { f.closed = true; return nil }

type execCall struct {
	query string
	args  []interface{}
}

type fakeDB struct {
	calls []execCall
	err   error
}

func (f *fakeDB) ExecContext(_ context.Context, q string, args ...interface{}) (sql.Result, error) {
	f.calls = append(f.calls, execCall{q, args})
	if f.err != nil {
		return nil, f.err
	}
	return driverResult(len(args)), nil
}

func (f *fakeDB) PingContext(context.Context) error { return f.err }

type driverResult int64

func (r driverResult) LastInsertId() (int64, error) { return 0, nil }
func (r driverResult) RowsAffected() (int64, error) { return int64(r), nil }

func table(n int) *models.ResultTable {
	t := &models.ResultTable{
		RunID:         "run-7",
		LookbackYears: 8,
		ShiftMonths:   -3,
		Divisor:       100,
		ComputedAt:    time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
	}
	d := time.Date(2018, 10, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		t.Rows = append(t.Rows, models.Row{
			Date:         d.AddDate(0, i, 0),
			GlobalM2:     models.Some(85.5),
			GlobalAssets: models.None(),
			Price:        models.Some(50000),
			Ratio:        models.Some(0.02),
		})
	}
	return t
}

func TestKafkaPublisherPublishesTableKeyedByCacheKey(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewKafkaPublisher(fp, "liquidity.snapshots")

	require.NoError(t, pub.PublishTable(context.Background(), "liquidity:8:-3", table(2)))
	require.Len(t, fp.msgs, 1)

	m := fp.msgs[0]
	assert.Equal(t, "liquidity.snapshots", m.topic)
	assert.Equal(t, "liquidity:8:-3", m.key)
	assert.Equal(t, "run_id", m.headers[0].Key)
	assert.Equal(t, "run-7", string(m.headers[0].Value))

	var got models.ResultTable
	require.NoError(t, json.Unmarshal(m.value, &got))
	assert.Equal(t, *table(2), got)

	require.NoError(t, pub.Close())
	assert.True(t, fp.closed)
}

func TestClickHouseStorageInit(t *testing.T) {
	db := &fakeDB{}
	s := NewClickHouseStorage(db, "liquidity.liquidity_snapshots", nil)

	require.NoError(t, s.Init(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].query, "CREATE TABLE IF NOT EXISTS liquidity.liquidity_snapshots")
	assert.Contains(t, db.calls[0].query, "global_m2      Nullable(Float64)")
}

func TestClickHouseStorageStoreTable(t *testing.T) {
	db := &fakeDB{}
	s := NewClickHouseStorage(db, "snap", nil)

	require.NoError(t, s.StoreTable(context.Background(), "liquidity:8:-3", table(3)))
	require.Len(t, db.calls, 1)

	c := db.calls[0]
	assert.True(t, strings.HasPrefix(c.query, "INSERT INTO snap ("))
	assert.Equal(t, 3, strings.Count(c.query, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, c.args, 33)

	assert.Equal(t, "run-7", c.args[0])
	assert.Equal(t, "liquidity:8:-3", c.args[1])
	assert.Equal(t, uint8(8), c.args[3])
	assert.Equal(t, int8(-3), c.args[4])
	assert.Equal(t, 85.5, c.args[7])
	assert.Nil(t, c.args[8], "undefined values are stored as NULL")
}

func TestClickHouseStorageChunksLargeTables(t *testing.T) {
	db := &fakeDB{}
	s := NewClickHouseStorage(db, "snap", nil)

	require.NoError(t, s.StoreTable(context.Background(), "k", table(insertChunk+10)))
	require.Len(t, db.calls, 2)
	assert.Len(t, db.calls[1].args, 10*11)
}

func TestClickHouseStorageErrors(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}
	s := NewClickHouseStorage(db, "snap", nil)

	assert.ErrorContains(t, s.StoreTable(context.Background(), "k", table(1)), "connection refused")
	assert.ErrorContains(t, s.Init(context.Background()), "init schema")
	assert.Error(t, s.Health(context.Background()))
	assert.NoError(t, s.Close())
}
