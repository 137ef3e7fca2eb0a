//go:build wireinject
// +build wireinject

package di

import (
	"GlobalLiquidity/internal/domain/repository"
	"GlobalLiquidity/internal/usecase"
	"GlobalLiquidity/pkg/config"
	"GlobalLiquidity/pkg/metrics"
	"GlobalLiquidity/pkg/server"

	"github.com/google/wire"
)

var engineSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),
	ProvideFredClient,
	ProvideYahooClient,
	ProvideCache,
	ProvideLiquidityUseCase,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		engineSet,

		// Snapshot backend
		ProvideClickHouseClient,
		ProvideSnapshotStorage,
		ProvideSnapshotPublisher,
		ProvideSnapshotProcessor,
		ProvideSnapshotPipeline,
		ProvideSink,

		// HTTP and scheduling
		ProvideRateLimiter,
		ProvideLiquidityHandler,
		ProvideHTTPServer,
		ProvideScheduler,

		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeEngine wires the engine alone, without publishing snapshots.
func InitializeEngine(cfg *config.Config) (*usecase.LiquidityUseCase, error) {
	wire.Build(
		engineSet,
		ProvideNoSink,
	)
	return &usecase.LiquidityUseCase{}, nil
}
