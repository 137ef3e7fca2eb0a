package clickhouse

import "time"

// Config describes one ClickHouse endpoint and the pool opened against it.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	// UseHTTP selects the http scheme (port 8123) over the native protocol.
	UseHTTP      bool
	AsyncInsert  bool
	WaitForAsync bool

	DialTimeout      time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MaxExecutionTime time.Duration

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// snapshot writes are small and infrequent; a narrow pool is enough
func defaultConfig() Config {
	return Config{
		Port:            9000,
		Database:        "default",
		User:            "default",
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

type ClientOption func(*Config)

func WithHost(host string) ClientOption { return func(c *Config) { c.Host = host } }

func WithPort(port int) ClientOption { return func(c *Config) { c.Port = port } }

func WithDatabase(db string) ClientOption { return func(c *Config) { c.Database = db } }

func WithCredentials(user, password string) ClientOption {
	return func(c *Config) { c.User, c.Password = user, password }
}

// WithTimeouts sets dial, read and write timeouts. Zero keeps the default.
func WithTimeouts(dial, read, write time.Duration) ClientOption {
	return func(c *Config) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
	}
}

func WithHTTP(enabled bool) ClientOption { return func(c *Config) { c.UseHTTP = enabled } }

// WithAsyncInsert turns on server side batching; wait makes the insert
// return only once the batch is flushed.
func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(c *Config) { c.AsyncInsert, c.WaitForAsync = enabled, wait }
}

func WithMaxExecutionTime(d time.Duration) ClientOption {
	return func(c *Config) { c.MaxExecutionTime = d }
}

// WithPool overrides the connection pool limits.
func WithPool(open, idle int, lifetime time.Duration) ClientOption {
	return func(c *Config) {
		c.MaxOpenConns, c.MaxIdleConns, c.ConnMaxLifetime = open, idle, lifetime
	}
}
