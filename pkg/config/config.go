package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"GlobalLiquidity/internal/domain/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. LIQ_SERVER_PORT.
const EnvPrefix = "LIQ"

type Config struct {
	Environment string           `yaml:"environment" split_words:"true"`
	Logging     LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Server      ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Metrics     MetricsConfig    `yaml:"metrics" envconfig:"METRICS"`
	Fred        FredConfig       `yaml:"fred" envconfig:"FRED"`
	Yahoo       YahooConfig      `yaml:"yahoo" envconfig:"YAHOO"`
	Engine      EngineConfig     `yaml:"engine" envconfig:"ENGINE"`
	Cache       CacheConfig      `yaml:"cache" envconfig:"CACHE"`
	Backend     BackendConfig    `yaml:"backend" envconfig:"BACKEND"`
	Kafka       KafkaConfig      `yaml:"kafka" envconfig:"KAFKA"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse" envconfig:"CLICKHOUSE"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"`
	Output string `yaml:"output" split_words:"true"`
}

type ServerConfig struct {
	Port            int             `yaml:"port" split_words:"true"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" split_words:"true"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig is a per-remote token bucket on the compute endpoints.
type RateLimitConfig struct {
	Enabled      bool    `yaml:"enabled" split_words:"true"`
	Capacity     float64 `yaml:"capacity" split_words:"true"`
	RefillPerSec float64 `yaml:"refill_per_sec" split_words:"true"`
	// PruneInterval is how often buckets idle that long are dropped.
	PruneInterval time.Duration `yaml:"prune_interval" split_words:"true"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" split_words:"true"`
	Path    string `yaml:"path" split_words:"true"`
}

type FredConfig struct {
	APIKey            string        `yaml:"api_key" split_words:"true"`
	BaseURL           string        `yaml:"base_url" split_words:"true"`
	Timeout           time.Duration `yaml:"timeout" split_words:"true"`
	RequestsPerMinute int           `yaml:"requests_per_minute" split_words:"true"`
}

type YahooConfig struct {
	BaseURL   string        `yaml:"base_url" split_words:"true"`
	Timeout   time.Duration `yaml:"timeout" split_words:"true"`
	UserAgent string        `yaml:"user_agent" split_words:"true"`
}

type EngineConfig struct {
	Components     []models.Component `yaml:"components" ignored:"true"`
	PriceTicker    string             `yaml:"price_ticker" split_words:"true"`
	Ratio          RatioConfig        `yaml:"ratio" envconfig:"RATIO"`
	CacheTTL       time.Duration      `yaml:"cache_ttl" split_words:"true"`
	ComputeTimeout time.Duration      `yaml:"compute_timeout" split_words:"true"`
	WarmupSchedule string             `yaml:"warmup_schedule" split_words:"true"`
	StreamInterval time.Duration      `yaml:"stream_interval" split_words:"true"`
	Defaults       ParamsConfig       `yaml:"defaults" envconfig:"DEFAULTS"`
}

// RatioConfig defines ratio = numerator / price ticker / divisor.
type RatioConfig struct {
	Numerator string  `yaml:"numerator" split_words:"true"`
	Divisor   float64 `yaml:"divisor" split_words:"true"`
}

type ParamsConfig struct {
	LookbackYears int `yaml:"lookback_years" split_words:"true"`
	ShiftMonths   int `yaml:"shift_months" split_words:"true"`
}

// Params returns the warm-up parameters.
func (p ParamsConfig) Params() models.Params {
	return models.Params{LookbackYears: p.LookbackYears, ShiftMonths: p.ShiftMonths}
}

type CacheConfig struct {
	Type   string      `yaml:"type" split_words:"true"` // memory, redis, layered
	Prefix string      `yaml:"prefix" split_words:"true"`
	Redis  RedisConfig `yaml:"redis" envconfig:"REDIS"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	DB       int    `yaml:"db" split_words:"true"`
}

type BackendConfig struct {
	Type    string        `yaml:"type" split_words:"true"` // none, kafka, clickhouse
	Timeout time.Duration `yaml:"timeout" split_words:"true"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers" split_words:"true"`
	Topic        string   `yaml:"topic" split_words:"true"`
	RequiredAcks int      `yaml:"required_acks" split_words:"true"`
	Compression  string   `yaml:"compression" split_words:"true"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" split_words:"true"`
		BatchTimeout time.Duration `yaml:"batch_timeout" split_words:"true"`
		WriteTimeout time.Duration `yaml:"write_timeout" split_words:"true"`
		ReadTimeout  time.Duration `yaml:"read_timeout" split_words:"true"`
		Async        bool          `yaml:"async" split_words:"true"`
	} `yaml:"producer" envconfig:"PRODUCER"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" split_words:"true"`
	Port             int           `yaml:"port" split_words:"true"`
	Database         string        `yaml:"database" split_words:"true"`
	User             string        `yaml:"user" split_words:"true"`
	Password         string        `yaml:"password" split_words:"true"`
	UseHTTP          bool          `yaml:"use_http" split_words:"true"`
	AsyncInsert      bool          `yaml:"async_insert" split_words:"true"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert" split_words:"true"`
	DialTimeout      time.Duration `yaml:"dial_timeout" split_words:"true"`
	ReadTimeout      time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout     time.Duration `yaml:"write_timeout" split_words:"true"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" split_words:"true"`
}

// Default returns a configuration with every default applied and the
// built-in component table.
func Default() *Config {
	c := &Config{Environment: "development"}
	c.Logging = LoggingConfig{Level: "info", Format: "json", Output: "stdout"}
	c.Server = ServerConfig{
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimit:       RateLimitConfig{Enabled: true, Capacity: 10, RefillPerSec: 0.5, PruneInterval: 10 * time.Minute},
	}
	c.Metrics = MetricsConfig{Enabled: true, Path: "/metrics"}
	c.Fred = FredConfig{
		BaseURL:           "https://api.stlouisfed.org/fred",
		Timeout:           30 * time.Second,
		RequestsPerMinute: 120,
	}
	c.Yahoo = YahooConfig{
		BaseURL:   "https://query1.finance.yahoo.com",
		Timeout:   30 * time.Second,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
	}
	c.Engine = EngineConfig{
		Components:     DefaultComponents(),
		PriceTicker:    "BTC-USD",
		Ratio:          RatioConfig{Numerator: "MSTR", Divisor: 100},
		CacheTTL:       12 * time.Hour,
		ComputeTimeout: 2 * time.Minute,
		WarmupSchedule: "@every 6h",
		StreamInterval: time.Minute,
		Defaults:       ParamsConfig{LookbackYears: 8},
	}
	c.Cache = CacheConfig{Type: "memory", Prefix: "liquidity", Redis: RedisConfig{Addr: "localhost:6379"}}
	c.Backend = BackendConfig{Type: "none", Timeout: 10 * time.Second}

	c.Kafka.Topic = "liquidity.snapshots"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "gzip"
	c.Kafka.Producer.MaxAttempts = 3
	c.Kafka.Producer.BatchTimeout = time.Second
	c.Kafka.Producer.WriteTimeout = 10 * time.Second
	c.Kafka.Producer.ReadTimeout = 10 * time.Second

	c.ClickHouse = ClickHouseConfig{
		Host:             "localhost",
		Port:             9000,
		Database:         "liquidity",
		User:             "default",
		DialTimeout:      5 * time.Second,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     30 * time.Second,
		MaxExecutionTime: 60 * time.Second,
	}
	return c
}

// Load reads and parses a YAML configuration file over the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		c.Engine.Components = nil
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if len(c.Engine.Components) == 0 {
			c.Engine.Components = DefaultComponents()
		}
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, then a .env file if present, then
// LIQ_* environment overrides, and validates the result. FRED_API_KEY is
// honoured when LIQ_FRED_API_KEY is unset.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	if c.Fred.APIKey == "" {
		c.Fred.APIKey = strings.TrimSpace(os.Getenv("FRED_API_KEY"))
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Fred.APIKey == "" {
		return fmt.Errorf("fred.api_key: %w", models.ErrMissingCredential)
	}
	switch c.Backend.Type {
	case "none", "":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			return fmt.Errorf("backend 'kafka' requires kafka.brokers and kafka.topic")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" || c.ClickHouse.Database == "" {
			return fmt.Errorf("backend 'clickhouse' requires clickhouse.host and clickhouse.database")
		}
	default:
		return fmt.Errorf("backend.type must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	switch c.Cache.Type {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.type must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Type)
	}
	if c.Engine.PriceTicker == "" {
		return fmt.Errorf("engine.price_ticker is required")
	}
	if c.Engine.Ratio.Divisor == 0 {
		return fmt.Errorf("engine.ratio.divisor must be non-zero")
	}
	if c.Engine.CacheTTL <= 0 {
		return fmt.Errorf("engine.cache_ttl must be positive")
	}
	if err := c.Engine.Defaults.Params().Validate(); err != nil {
		return fmt.Errorf("engine.defaults: %w", err)
	}
	if rl := c.Server.RateLimit; rl.Enabled && (rl.Capacity < 1 || rl.RefillPerSec <= 0 || rl.PruneInterval <= 0) {
		return fmt.Errorf("server.rate_limit needs capacity >= 1, refill_per_sec > 0 and prune_interval > 0")
	}
	if c.Fred.RequestsPerMinute <= 0 {
		return fmt.Errorf("fred.requests_per_minute must be positive")
	}
	return ValidateComponents(c.Engine.Components)
}
