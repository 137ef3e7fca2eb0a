package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestAllowConsumesAndRefills(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)}
	l := New(2, 0.5, WithClock(c.now))

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"), "keys are independent")

	assert.Equal(t, 2*time.Second, l.RetryAfter("1.2.3.4"))

	c.t = c.t.Add(2 * time.Second)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))

	c.t = c.t.Add(time.Hour)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"), "refill is capped at capacity")
}

func TestPrune(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)}
	l := New(1, 1, WithClock(c.now))

	l.Allow("a")
	assert.Equal(t, 0, l.Prune(time.Minute))

	c.t = c.t.Add(time.Minute)
	assert.Equal(t, 1, l.Prune(time.Minute))
	assert.Zero(t, l.RetryAfter("a"))
}

func TestPruneJobBoundsBuckets(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)}
	l := New(10, 1, WithClock(c.now))
	for i := 0; i < 10000; i++ {
		l.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	require.Len(t, l.m, 10000)

	job := l.PruneJob(10 * time.Minute)
	assert.Equal(t, "ratelimit-prune", job.Name())

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, l.m, 10000, "recently active remotes are kept")

	c.t = c.t.Add(10 * time.Minute)
	l.Allow("192.168.0.1")
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, l.m, 1)
}
