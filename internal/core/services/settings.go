package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
	"github.com/custodia-labs/coupon/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage. Durations are stored in milliseconds
// except the cache TTL, which is stored in seconds.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyServerAddr         = "server.addr"
	keyServerReadTimeout  = "server.read_timeout_ms"
	keyServerWriteTimeout = "server.write_timeout_ms"
	keyServerIdleTimeout  = "server.idle_timeout_ms"
	keyStorageDataDir     = "storage.data_dir"
	keyQueueBackend       = "queue.backend"
	keyRedisAddr          = "redis.addr"
	keyRedisPassword      = "redis.password"
	keyRedisDB            = "redis.db"
	keyLockWait           = "lock.wait_ms"
	keyLockLease          = "lock.lease_ms"
	keyConsumerInterval   = "consumer.interval_ms"
	keyRateLimitRPS       = "ratelimit.rps"
	keyRateLimitBurst     = "ratelimit.burst"
	keyCacheSize          = "cache.size"
	keyCacheTTL           = "cache.ttl_seconds"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Server: domain.ServerSettings{
			Addr:         s.getString(keyServerAddr, defaults.Server.Addr),
			ReadTimeout:  s.getMillis(keyServerReadTimeout, defaults.Server.ReadTimeout),
			WriteTimeout: s.getMillis(keyServerWriteTimeout, defaults.Server.WriteTimeout),
			IdleTimeout:  s.getMillis(keyServerIdleTimeout, defaults.Server.IdleTimeout),
		},
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(keyStorageDataDir), // No default - empty means ~/.coupon/data
		},
		Queue: domain.QueueSettings{
			Backend: s.getQueueBackend(defaults.Queue.Backend),
		},
		Redis: domain.RedisSettings{
			Addr:     s.getString(keyRedisAddr, defaults.Redis.Addr),
			Password: s.configStore.GetString(keyRedisPassword),
			DB:       s.configStore.GetInt(keyRedisDB),
		},
		Lock: domain.LockSettings{
			Wait:  s.getMillis(keyLockWait, defaults.Lock.Wait),
			Lease: s.getMillis(keyLockLease, defaults.Lock.Lease),
		},
		Consumer: domain.ConsumerSettings{
			Interval: s.getMillis(keyConsumerInterval, defaults.Consumer.Interval),
		},
		RateLimit: domain.RateLimitSettings{
			RequestsPerSecond: s.getFloat(keyRateLimitRPS, defaults.RateLimit.RequestsPerSecond),
			Burst:             s.getInt(keyRateLimitBurst, defaults.RateLimit.Burst),
		},
		Cache: domain.CacheSettings{
			Size: s.getInt(keyCacheSize, defaults.Cache.Size),
			TTL:  s.getSeconds(keyCacheTTL, defaults.Cache.TTL),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyServerAddr, settings.Server.Addr},
		{keyServerReadTimeout, settings.Server.ReadTimeout.Milliseconds()},
		{keyServerWriteTimeout, settings.Server.WriteTimeout.Milliseconds()},
		{keyServerIdleTimeout, settings.Server.IdleTimeout.Milliseconds()},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyQueueBackend, settings.Queue.Backend.String()},
		{keyRedisAddr, settings.Redis.Addr},
		{keyRedisDB, int64(settings.Redis.DB)},
		{keyLockWait, settings.Lock.Wait.Milliseconds()},
		{keyLockLease, settings.Lock.Lease.Milliseconds()},
		{keyConsumerInterval, settings.Consumer.Interval.Milliseconds()},
		{keyRateLimitRPS, settings.RateLimit.RequestsPerSecond},
		{keyRateLimitBurst, int64(settings.RateLimit.Burst)},
		{keyCacheSize, int64(settings.Cache.Size)},
		{keyCacheTTL, int64(settings.Cache.TTL / time.Second)},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Redis.Password != "" {
		if err := s.configStore.Set(keyRedisPassword, settings.Redis.Password); err != nil {
			return fmt.Errorf("save %s: %w", keyRedisPassword, err)
		}
	}

	return nil
}

// SetQueueBackend selects where issue requests are queued.
func (s *SettingsService) SetQueueBackend(backend domain.QueueBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid queue backend: %s", backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Queue.Backend = backend

	return s.Save(settings)
}

// Validate checks the stored configuration. Get falls back to defaults for
// unusable values; Validate reports them instead, so a typo in the config
// file does not go unnoticed.
func (s *SettingsService) Validate() error {
	if v, ok := s.configStore.Get(keyServerAddr); ok && s.configStore.GetString(keyServerAddr) == "" {
		return fmt.Errorf("%w: %s must be a non-empty string, got %v", domain.ErrInvalidInput, keyServerAddr, v)
	}

	backend := domain.QueueBackend(s.configStore.GetString(keyQueueBackend))
	if _, ok := s.configStore.Get(keyQueueBackend); ok && !backend.IsValid() {
		return fmt.Errorf("invalid queue backend: %q (want %s or %s)",
			backend, domain.QueueBackendMemory, domain.QueueBackendRedis)
	}
	if backend == domain.QueueBackendRedis {
		if _, ok := s.configStore.Get(keyRedisAddr); ok && s.configStore.GetString(keyRedisAddr) == "" {
			return fmt.Errorf("queue backend %q requires %s to be configured",
				backend.Description(), keyRedisAddr)
		}
	}

	for _, key := range []string{
		keyServerReadTimeout, keyServerWriteTimeout, keyServerIdleTimeout,
		keyLockWait, keyLockLease, keyConsumerInterval,
		keyRateLimitBurst, keyCacheSize, keyCacheTTL,
	} {
		if _, ok := s.configStore.Get(key); ok && s.configStore.GetInt(key) <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
	}
	if _, ok := s.configStore.Get(keyRateLimitRPS); ok && s.configStore.GetFloat(keyRateLimitRPS) < 0 {
		return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, keyRateLimitRPS)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Millisecond
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Second
}

func (s *SettingsService) getQueueBackend(defaultVal domain.QueueBackend) domain.QueueBackend {
	val := s.configStore.GetString(keyQueueBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.QueueBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
