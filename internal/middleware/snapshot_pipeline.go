package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GlobalLiquidity/internal/domain/models"
	domrepo "GlobalLiquidity/internal/domain/repository"
)

// Sink is the downstream the pipeline forwards to.
type Sink interface {
	Process(ctx context.Context, key string, t *models.ResultTable) error
}

type snapshot struct {
	key   string
	table *models.ResultTable
}

// SnapshotPipeline sits between the engine and the snapshot backend. It
// validates tables, throttles repeated writes of the same key, and buffers
// tables the backend rejected so a background loop can retry them.
type SnapshotPipeline struct {
	sink        Sink
	metrics     domrepo.Metrics
	minInterval time.Duration
	bufSize     int
	bufCh       chan snapshot
	stopCh      chan struct{}
	done        chan struct{}
	started     bool
	mu          sync.Mutex
	lastSeen    map[string]time.Time
	now         func() time.Time
	backoff     time.Duration
	maxBackoff  time.Duration
}

type PipelineOption func(*SnapshotPipeline)

// WithMinInterval sets the minimum time between writes of one key.
func WithMinInterval(d time.Duration) PipelineOption {
	return func(p *SnapshotPipeline) { p.minInterval = d }
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBackoff sets the initial and maximum retry delay.
func WithBackoff(initial, max time.Duration) PipelineOption {
	return func(p *SnapshotPipeline) {
		p.backoff = initial
		p.maxBackoff = max
	}
}

func WithClock(now func() time.Time) PipelineOption {
	return func(p *SnapshotPipeline) { p.now = now }
}

// NewSnapshotPipeline creates a new pipeline.
func NewSnapshotPipeline(sink Sink, metrics domrepo.Metrics, opts ...PipelineOption) *SnapshotPipeline {
	p := &SnapshotPipeline{
		sink:       sink,
		metrics:    metrics,
		bufSize:    64,
		lastSeen:   make(map[string]time.Time),
		now:        time.Now,
		backoff:    200 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan snapshot, p.bufSize)
	return p
}

// Start launches the retry loop. A stopped pipeline can be started again.
func (p *SnapshotPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	stopCh, done := make(chan struct{}), make(chan struct{})
	p.stopCh, p.done = stopCh, done
	p.mu.Unlock()

	go func() {
		defer close(done)
		backoff := p.backoff
		for {
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			case s := <-p.bufCh:
				if err := p.sink.Process(ctx, s.key, s.table); err == nil {
					backoff = p.backoff
					p.metrics.RecordSnapshot("retry", "ok")
					continue
				}
				p.metrics.RecordSnapshot("retry", "error")
				p.requeue(s)
				select {
				case <-time.After(backoff):
				case <-stopCh:
					return
				case <-ctx.Done():
					return
				}
				if backoff < p.maxBackoff {
					backoff = min(backoff*2, p.maxBackoff)
				}
			}
		}
	}()
}

// Stop stops the retry loop and waits for it to exit. Buffered tables
// that were never written are dropped.
func (p *SnapshotPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	stopCh, done := p.stopCh, p.done
	p.mu.Unlock()
	close(stopCh)
	<-done
}

// Pending returns the number of tables waiting for a retry.
func (p *SnapshotPipeline) Pending() int { return len(p.bufCh) }

// Process validates, throttles and forwards one table, buffering it when
// the backend fails.
func (p *SnapshotPipeline) Process(ctx context.Context, key string, t *models.ResultTable) error {
	if err := validateTable(key, t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(key) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.sink.Process(ctx, key, t); err != nil {
		p.requeue(snapshot{key: key, table: t})
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	return nil
}

func (p *SnapshotPipeline) requeue(s snapshot) {
	select {
	case p.bufCh <- s:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
	}
}

func validateTable(key string, t *models.ResultTable) error {
	switch {
	case key == "":
		return fmt.Errorf("snapshot key empty")
	case t == nil:
		return fmt.Errorf("snapshot table nil")
	case t.RunID == "":
		return fmt.Errorf("snapshot run id empty")
	case len(t.Rows) == 0:
		return fmt.Errorf("snapshot has no rows")
	}
	return nil
}

func (p *SnapshotPipeline) allow(key string) bool {
	if p.minInterval <= 0 {
		return true
	}
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if last, ok := p.lastSeen[key]; ok && now.Sub(last) < p.minInterval {
		return false
	}
	p.lastSeen[key] = now
	return true
}
