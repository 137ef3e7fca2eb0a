package di

import (
	"context"
	"fmt"

	"GlobalLiquidity/internal/domain/repository"
	"GlobalLiquidity/internal/handler/api"
	mid "GlobalLiquidity/internal/middleware"
	internalrepo "GlobalLiquidity/internal/repository"
	"GlobalLiquidity/internal/service/fred"
	"GlobalLiquidity/internal/service/ratelimit"
	"GlobalLiquidity/internal/service/yahoo"
	"GlobalLiquidity/internal/usecase"
	"GlobalLiquidity/pkg/cache"
	pkgch "GlobalLiquidity/pkg/clickhouse"
	"GlobalLiquidity/pkg/config"
	xhttp "GlobalLiquidity/pkg/http"
	pkgkafka "GlobalLiquidity/pkg/kafka"
	applogger "GlobalLiquidity/pkg/logger"
	"GlobalLiquidity/pkg/metrics"
	"GlobalLiquidity/pkg/scheduler"
	"GlobalLiquidity/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// snapshotTable is the ClickHouse table every computed run is appended to.
const snapshotTable = "liquidity_snapshots"

// ProvideLogger creates the root logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideFredClient creates the macro series client.
func ProvideFredClient(cfg *config.Config, l *applogger.Logger) (*fred.Client, error) {
	c, err := fred.New(cfg.Fred.APIKey,
		fred.WithBaseURL(cfg.Fred.BaseURL),
		fred.WithRateLimit(cfg.Fred.RequestsPerMinute),
		fred.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Fred.Timeout))),
		fred.WithLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("fred client: %w", err)
	}
	return c, nil
}

// ProvideYahooClient creates the market quote client.
func ProvideYahooClient(cfg *config.Config, l *applogger.Logger) *yahoo.Client {
	opts := []xhttp.ClientOption{xhttp.WithTimeout(cfg.Yahoo.Timeout)}
	if cfg.Yahoo.UserAgent != "" {
		opts = append(opts, xhttp.WithHeader("User-Agent", cfg.Yahoo.UserAgent))
	}
	return yahoo.New(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(xhttp.NewClient(opts...)),
		yahoo.WithLogger(l),
	)
}

// ProvideCache creates the result cache selected by cache.type.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Type {
	case "", "memory":
		return cache.NewMemoryCache(), nil
	case "redis", "layered":
		rc, err := cache.NewRedisCache(redisOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Type == "layered" {
			return cache.NewLayeredCache(rc), nil
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Cache.Type)
	}
}

// redisOptions leaves the key prefix unset: the engine already scopes its
// keys with cache.prefix.
func redisOptions(cfg *config.Config) []cache.RedisOption {
	return []cache.RedisOption{
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	}
}

// ProvideClickHouseClient connects to ClickHouse when it is the backend.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != usecase.BackendClickHouse {
		return nil, nil
	}
	client, err := pkgch.NewClient(context.Background(),
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSnapshotStorage creates ClickHouse storage and its schema.
func ProvideSnapshotStorage(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.Storage, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseStorage(ch.DB(), cfg.ClickHouse.Database+"."+snapshotTable, l)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideSnapshotPublisher creates the Kafka publisher when Kafka is the backend.
func ProvideSnapshotPublisher(cfg *config.Config, reg *prometheus.Registry) (repository.Publisher, error) {
	if cfg.Backend.Type != usecase.BackendKafka {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideSnapshotProcessor routes snapshots to the configured backend.
func ProvideSnapshotProcessor(
	pub repository.Publisher,
	store repository.Storage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.SnapshotProcessor {
	return usecase.NewSnapshotProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideSnapshotPipeline buffers and retries snapshot writes.
func ProvideSnapshotPipeline(proc *usecase.SnapshotProcessor, m repository.Metrics) *mid.SnapshotPipeline {
	return mid.NewSnapshotPipeline(proc, m)
}

// ProvideSink selects the sink the engine publishes to.
func ProvideSink(p *mid.SnapshotPipeline) usecase.SnapshotSink {
	return p
}

// ProvideNoSink is used where nothing should be published.
func ProvideNoSink() usecase.SnapshotSink {
	return nil
}

// ProvideLiquidityUseCase creates the engine.
func ProvideLiquidityUseCase(
	market *yahoo.Client,
	macro *fred.Client,
	c cache.Service,
	sink usecase.SnapshotSink,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) (*usecase.LiquidityUseCase, error) {
	return usecase.NewLiquidityUseCase(market, macro, c, usecase.LiquidityConfig{
		Components:     cfg.Engine.Components,
		PriceTicker:    cfg.Engine.PriceTicker,
		RatioNumerator: cfg.Engine.Ratio.Numerator,
		Divisor:        cfg.Engine.Ratio.Divisor,
		CacheTTL:       cfg.Engine.CacheTTL,
		Timeout:        cfg.Engine.ComputeTimeout,
		KeyPrefix:      cfg.Cache.Prefix,
	},
		usecase.WithSink(sink),
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
	)
}

// ProvideRateLimiter creates the per-remote limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	rl := cfg.Server.RateLimit
	if !rl.Enabled {
		return nil
	}
	return ratelimit.New(rl.Capacity, rl.RefillPerSec)
}

// ProvideLiquidityHandler creates the HTTP API handler.
func ProvideLiquidityHandler(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.LiquidityUseCase,
	c cache.Service,
	store repository.Storage,
	limiter *ratelimit.Limiter,
) *api.LiquidityHandler {
	opts := []api.HandlerOption{
		api.WithStreamInterval(cfg.Engine.StreamInterval),
		api.WithHealthCheck("cache", func(ctx context.Context) error {
			_, err := c.Exists(ctx, "healthz")
			return err
		}),
	}
	if limiter != nil {
		opts = append(opts, api.WithRateLimiter(limiter))
	}
	if store != nil {
		opts = append(opts, api.WithHealthCheck("clickhouse", store.Health))
	}
	return api.NewLiquidityHandler(l, uc, opts...)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	h *api.LiquidityHandler,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, reg, cfg.Metrics.Path))
	}
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...)
}

// ProvideScheduler creates the warm-up scheduler.
func ProvideScheduler(cfg *config.Config, l *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(l, cfg.Engine.ComputeTimeout)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.LiquidityUseCase,
	srv *xhttp.Server,
	sched *scheduler.Scheduler,
	pipeline *mid.SnapshotPipeline,
	proc *usecase.SnapshotProcessor,
	c cache.Service,
	ch *pkgch.Client,
	limiter *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, l, uc, srv, sched, pipeline, proc, c, ch, limiter)
}

