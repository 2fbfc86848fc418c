package cache

import (
	"time"

	applogger "SignalEngine/pkg/logger"
)

// RedisOption configures Redis cache.
type RedisOption func(*RedisConfig)

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	PoolTimeout  time.Duration
	MinIdleConns int
	Prefix       string
}

// WithRedisAddr sets the host:port of the server.
func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		c.Addr = addr
	}
}

// WithRedisPassword sets Redis password.
func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

// WithRedisDB sets Redis database number.
func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

// WithRedisPool sets connection pool settings.
func WithRedisPool(poolSize, minIdleConns int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		c.PoolSize = poolSize
		c.MinIdleConns = minIdleConns
		c.PoolTimeout = timeout
	}
}

// WithRedisPrefix sets key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}

// MemoryOption configures Memory cache.
type MemoryOption func(*MemoryConfig)

// MemoryConfig holds memory cache configuration.
type MemoryConfig struct {
	MaxSize int
	TTL     time.Duration
}

// WithMemoryMaxSize sets max cache size.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		c.MaxSize = size
	}
}

// WithMemoryTTL sets how long an entry stays in the LRU.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		c.TTL = ttl
	}
}

// LayeredOption configures a Loader.
type LayeredOption func(*LayeredConfig)

// LayeredConfig holds layered cache configuration.
type LayeredConfig struct {
	MemoryMaxSize int
	TTL           time.Duration
	Remote        Service
	Recorder      Recorder
	Logger        *applogger.Logger
}

// WithLayeredMemorySize sets L1 cache size.
func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		c.MemoryMaxSize = size
	}
}

// WithLayeredTTL sets the lifetime of every entry.
func WithLayeredTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) {
		c.TTL = ttl
	}
}

// WithRemote adds a shared second level. A nil service is ignored.
func WithRemote(s Service) LayeredOption {
	return func(c *LayeredConfig) {
		c.Remote = s
	}
}

// WithRecorder reports hits, misses and loads.
func WithRecorder(r Recorder) LayeredOption {
	return func(c *LayeredConfig) {
		c.Recorder = r
	}
}

// WithLogger sets the logger used for second level failures.
func WithLogger(l *applogger.Logger) LayeredOption {
	return func(c *LayeredConfig) {
		c.Logger = l
	}
}
