package server

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	mid "GlobalLiquidity/internal/middleware"
	"GlobalLiquidity/internal/service/ratelimit"
	"GlobalLiquidity/internal/usecase"
	"GlobalLiquidity/pkg/cache"
	pkgch "GlobalLiquidity/pkg/clickhouse"
	"GlobalLiquidity/pkg/config"
	xhttp "GlobalLiquidity/pkg/http"
	applogger "GlobalLiquidity/pkg/logger"
	"GlobalLiquidity/pkg/scheduler"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	uc         *usecase.LiquidityUseCase
	httpServer *xhttp.Server
	sched      *scheduler.Scheduler
	pipeline   *mid.SnapshotPipeline
	proc       *usecase.SnapshotProcessor
	cache      cache.Service
	chClient   *pkgch.Client
	limiter    *ratelimit.Limiter
}

// New creates a new App instance with all dependencies. chClient and
// limiter may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.LiquidityUseCase,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	pipeline *mid.SnapshotPipeline,
	proc *usecase.SnapshotProcessor,
	c cache.Service,
	chClient *pkgch.Client,
	limiter *ratelimit.Limiter,
) *App {
	return &App{
		cfg:        cfg,
		log:        l.Component("app"),
		uc:         uc,
		httpServer: httpServer,
		sched:      sched,
		pipeline:   pipeline,
		proc:       proc,
		cache:      c,
		chClient:   chClient,
		limiter:    limiter,
	}
}

// WarmupJob computes the default table so the first request hits cache.
func (a *App) WarmupJob() scheduler.Job {
	p := a.cfg.Engine.Defaults.Params()
	return scheduler.JobFunc{
		JobName: "warmup",
		Fn: func(ctx context.Context) error {
			t, err := a.uc.Compute(ctx, p)
			if err != nil {
				return err
			}
			a.log.Info("cache warm",
				applogger.String("key", a.uc.CacheKey(p)),
				applogger.String("run_id", t.RunID),
				applogger.Int("rows", len(t.Rows)),
			)
			return nil
		},
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.pipeline.Start(ctx)

	if a.limiter != nil {
		every := a.cfg.Server.RateLimit.PruneInterval
		if err := a.sched.AddJob("@every "+every.String(), a.limiter.PruneJob(every)); err != nil {
			return err
		}
	}
	if a.cfg.Engine.WarmupSchedule != "" {
		if err := a.sched.AddJob(a.cfg.Engine.WarmupSchedule, a.WarmupJob()); err != nil {
			return err
		}
		a.sched.RunNow(a.WarmupJob())
	}
	a.sched.Start()

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}
	a.log.Info("started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("backend", a.proc.Backend()),
		applogger.String("cache", a.cfg.Cache.Type),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-a.httpServer.Err():
	}
	a.shutdown()
	return runErr
}

// shutdown stops intake first, then drains background writes, then
// closes infrastructure clients.
func (a *App) shutdown() {
	a.log.Info("shutting down...")

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	a.sched.Stop()

	a.uc.Wait()
	if n := a.pipeline.Pending(); n > 0 {
		a.log.Warn("dropping unwritten snapshots", applogger.Int("pending", n))
	}
	a.pipeline.Stop()
	a.proc.Close()

	if err := a.cache.Close(); err != nil {
		a.log.Warn("cache close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
}
