package fred

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"GlobalLiquidity/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New("secret", WithBaseURL(srv.URL+"/"), WithRateLimit(0))
	require.NoError(t, err)
	return c
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, models.ErrMissingCredential)
}

func TestFetchMacroSeries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/series/observations", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "M2SL", q.Get("series_id"))
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "json", q.Get("file_type"))
		assert.Equal(t, "2018-10-01", q.Get("observation_start"))
		_, _ = w.Write([]byte(`{"observations":[
			{"date":"2018-10-01","value":"14100.5"},
			{"date":"2018-11-01","value":"."},
			{"date":"2018-12-01","value":"14300"}
		]}`))
	})

	raw, err := c.FetchMacroSeries(context.Background(), "M2SL", time.Date(2018, 10, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "M2SL", raw.ID)
	assert.Equal(t, []models.Observation{
		{Date: time.Date(2018, 10, 1, 0, 0, 0, 0, time.UTC), Value: 14100.5},
		{Date: time.Date(2018, 12, 1, 0, 0, 0, 0, time.UTC), Value: 14300},
	}, raw.Observations)
}

func TestFetchMacroSeriesUnknownSeries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":400,"error_message":"Bad Request.  The series does not exist."}`))
	})

	_, err := c.FetchMacroSeries(context.Background(), "NOPE", time.Now())
	var fe *models.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, models.SourceMacro, fe.Source)
	assert.Equal(t, "NOPE", fe.ID)
	assert.Contains(t, fe.Cause, "series does not exist")
	assert.False(t, errors.Is(err, models.ErrMissingCredential))
}

func TestFetchMacroSeriesBadKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":400,"error_message":"Bad Request.  The value for variable api_key is not registered."}`))
	})

	_, err := c.FetchMacroSeries(context.Background(), "M2SL", time.Now())
	assert.ErrorIs(t, err, models.ErrMissingCredential)
}

func TestFetchMacroSeriesContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})
	WithRateLimit(1)(c)
	c.limiter.Allow() // drain the single burst token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchMacroSeries(ctx, "M2SL", time.Now())
	var fe *models.FetchError
	assert.True(t, errors.As(err, &fe))
}
