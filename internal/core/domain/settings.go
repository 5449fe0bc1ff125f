package domain

import "time"

const unknownDescription = "Unknown"

// QueueBackend identifies where issue requests are admitted and queued.
type QueueBackend string

// Available queue backends.
const (
	// QueueBackendMemory keeps requests in process. Only suitable when the API
	// and the consumer run in the same process.
	QueueBackendMemory QueueBackend = "memory"

	// QueueBackendRedis keeps requests in Redis, shared by every API node and
	// the consumer.
	QueueBackendRedis QueueBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b QueueBackend) IsValid() bool {
	switch b {
	case QueueBackendMemory, QueueBackendRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b QueueBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b QueueBackend) Description() string {
	switch b {
	case QueueBackendMemory:
		return "Memory (single process)"
	case QueueBackendRedis:
		return "Redis (shared)"
	default:
		return unknownDescription
	}
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StorageSettings configures the relational store.
type StorageSettings struct {
	// DataDir holds the SQLite database. Empty means ~/.coupon/data.
	DataDir string
}

// QueueSettings selects the issue request backend.
type QueueSettings struct {
	Backend QueueBackend
}

// RedisSettings configures the Redis connection used by the redis backend.
type RedisSettings struct {
	Addr     string
	Password string
	DB       int
}

// LockSettings configures the per-coupon issue lock.
type LockSettings struct {
	// Wait is how long to wait for the lock before giving up.
	Wait time.Duration

	// Lease is how long a held lock survives without being released.
	Lease time.Duration
}

// ConsumerSettings configures the issue request consumer.
type ConsumerSettings struct {
	// Interval is the delay between queue drains.
	Interval time.Duration
}

// RateLimitSettings configures the API token bucket.
// A non-positive RequestsPerSecond disables rate limiting.
type RateLimitSettings struct {
	RequestsPerSecond float64
	Burst             int
}

// CacheSettings configures the coupon snapshot cache.
type CacheSettings struct {
	Size int
	TTL  time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Server    ServerSettings
	Storage   StorageSettings
	Queue     QueueSettings
	Redis     RedisSettings
	Lock      LockSettings
	Consumer  ConsumerSettings
	RateLimit RateLimitSettings
	Cache     CacheSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Server: ServerSettings{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Queue: QueueSettings{
			Backend: QueueBackendMemory,
		},
		Redis: RedisSettings{
			Addr: "127.0.0.1:6379",
		},
		Lock: LockSettings{
			Wait:  3 * time.Second,
			Lease: 3 * time.Second,
		},
		Consumer: ConsumerSettings{
			Interval: 1 * time.Second,
		},
		RateLimit: RateLimitSettings{
			RequestsPerSecond: 0,
			Burst:             100,
		},
		Cache: CacheSettings{
			Size: 1024,
			TTL:  30 * time.Minute,
		},
	}
}

// AllQueueBackends returns all available queue backends.
func AllQueueBackends() []QueueBackend {
	return []QueueBackend{
		QueueBackendMemory,
		QueueBackendRedis,
	}
}
