package config_test

import (
	"slices"
	"testing"
	"time"

	cfg "github.com/Gunvolt24/mpsync/config"
)

// TestLoadWithPrefix_Defaults — проверка наличия значений по умолчанию.
func TestLoadWithPrefix_Defaults(t *testing.T) {
	t.Parallel()

	c, err := cfg.LoadWithPrefix("MPSYNC_TEST_DEFAULTS")
	if err != nil {
		t.Fatalf("LoadWithPrefix error: %v", err)
	}

	// HTTP
	if c.HTTP.Addr != ":8080" || c.HTTP.GinMode != "debug" {
		t.Fatalf("HTTP defaults wrong: %+v", c.HTTP)
	}
	if c.HTTP.ReadTimeout != 10*time.Second || c.HTTP.HandlerTimeout != 15*time.Second || c.HTTP.GracefulTimeout != 10*time.Second {
		t.Fatalf("HTTP timeouts wrong: %+v", c.HTTP)
	}

	// Tracing
	if c.Tracing.Enabled || c.Tracing.ServiceName != "mpsync" || c.Tracing.SampleRatio != 1 {
		t.Fatalf("Tracing defaults wrong: %+v", c.Tracing)
	}

	// Postgres / Storage
	if c.Postgres.DSN == "" || c.Postgres.MaxConns != 10 || !c.Postgres.AutoMigrate {
		t.Fatalf("Postgres defaults wrong: %+v", c.Postgres)
	}
	if c.Storage.Driver != "postgres" {
		t.Fatalf("Storage.Driver: want postgres, got %q", c.Storage.Driver)
	}

	// Kafka / Queue
	if !slices.Equal(c.Kafka.Brokers, []string{"kafka:9092"}) {
		t.Fatalf("Kafka.Brokers: want [kafka:9092], got %v", c.Kafka.Brokers)
	}
	if c.Kafka.Topic != "mpsync.jobs" || c.Kafka.GroupID != "mpsync-workers" || c.Kafka.StartOffset != "first" {
		t.Fatalf("Kafka defaults wrong: %+v", c.Kafka)
	}
	if c.Kafka.ProcessTimeout != 30*time.Second || c.Kafka.RetryInitial != time.Second || c.Kafka.RetryMax != 30*time.Second {
		t.Fatalf("Kafka timeouts wrong: %+v", c.Kafka)
	}
	if c.Queue.Driver != "kafka" || c.Queue.Workers != 4 || c.Queue.Buffer != 1024 {
		t.Fatalf("Queue defaults wrong: %+v", c.Queue)
	}

	// Redis
	if c.Redis.Enabled || c.Redis.LockTTL != time.Minute || c.Redis.LockWait != 30*time.Second {
		t.Fatalf("Redis defaults wrong: %+v", c.Redis)
	}

	// Marketplace seed
	m := c.Marketplace
	if m.AuthToken != "" || m.AuthHeader != "AuthorizationToken" || m.BatchSize != 100 || m.RetryAttempts != 3 || m.Timeout != 30*time.Second {
		t.Fatalf("Marketplace defaults wrong: %+v", m)
	}

	// Pull / SyncLog / Cache
	if c.Pull.Interval != 15*time.Minute || c.Pull.Lookback != 24*time.Hour {
		t.Fatalf("Pull defaults wrong: %+v", c.Pull)
	}
	if c.SyncLog.RetentionDays != 30 || c.SyncLog.PruneInterval != 24*time.Hour {
		t.Fatalf("SyncLog defaults wrong: %+v", c.SyncLog)
	}
	if c.Cache.Capacity != 1000 || c.Cache.TTL != 10*time.Minute || c.Cache.WarmUpN != 100 {
		t.Fatalf("Cache defaults wrong: %+v", c.Cache)
	}

	if c.Logger.IsProd {
		t.Fatalf("Logger.IsProd: want false, got true")
	}
}

// Меняем окружение.
func TestLoadWithPrefix_Overrides(t *testing.T) {
	const p = "MPSYNC_TEST_OVR"

	t.Setenv(p+"_HTTP_ADDR", ":9999")
	t.Setenv(p+"_HTTP_HANDLER_TIMEOUT", "4500ms")
	t.Setenv(p+"_TRACING_OTEL_ENABLED", "true")
	t.Setenv(p+"_TRACING_OTEL_SAMPLE_RATIO", "0.25")
	t.Setenv(p+"_STORAGE_DRIVER", " Memory ")
	t.Setenv(p+"_KAFKA_BROKERS", "k1:9092,k2:9093")
	t.Setenv(p+"_KAFKA_RETRY_MAX", "2m")
	t.Setenv(p+"_QUEUE_DRIVER", "MEMORY")
	t.Setenv(p+"_QUEUE_WORKERS", "8")
	t.Setenv(p+"_REDIS_ENABLED", "true")
	t.Setenv(p+"_REDIS_ADDR", "cache:6380")
	t.Setenv(p+"_MARKETPLACE_AUTH_TOKEN", "tok")
	t.Setenv(p+"_MARKETPLACE_RETRY_ATTEMPTS", "5")
	t.Setenv(p+"_MARKETPLACE_STATE_MAPPING", "approved:sale,delivered:done")
	t.Setenv(p+"_PULL_INTERVAL", "5m")
	t.Setenv(p+"_SYNCLOG_RETENTION_DAYS", "7")
	t.Setenv(p+"_CACHE_WARMUP_N", "0")
	t.Setenv(p+"_LOGGER_IS_PROD", "true")

	c, err := cfg.LoadWithPrefix(p)
	if err != nil {
		t.Fatalf("LoadWithPrefix error: %v", err)
	}

	if c.HTTP.Addr != ":9999" || c.HTTP.HandlerTimeout != 4500*time.Millisecond {
		t.Fatalf("HTTP overrides wrong: %+v", c.HTTP)
	}
	if !c.Tracing.Enabled || c.Tracing.SampleRatio != 0.25 {
		t.Fatalf("Tracing overrides wrong: %+v", c.Tracing)
	}
	if c.Storage.Driver != "memory" || c.Queue.Driver != "memory" || c.Queue.Workers != 8 {
		t.Fatalf("drivers must be normalized: storage=%q queue=%+v", c.Storage.Driver, c.Queue)
	}
	if !slices.Equal(c.Kafka.Brokers, []string{"k1:9092", "k2:9093"}) || c.Kafka.RetryMax != 2*time.Minute {
		t.Fatalf("Kafka overrides wrong: %+v", c.Kafka)
	}
	if !c.Redis.Enabled || c.Redis.Addr != "cache:6380" {
		t.Fatalf("Redis overrides wrong: %+v", c.Redis)
	}
	if c.Marketplace.AuthToken != "tok" || c.Marketplace.RetryAttempts != 5 {
		t.Fatalf("Marketplace overrides wrong: %+v", c.Marketplace)
	}
	if c.Marketplace.StateMapping["approved"] != "sale" || c.Marketplace.StateMapping["delivered"] != "done" {
		t.Fatalf("StateMapping wrong: %v", c.Marketplace.StateMapping)
	}
	if c.Pull.Interval != 5*time.Minute || c.SyncLog.RetentionDays != 7 || c.Cache.WarmUpN != 0 {
		t.Fatalf("Pull/SyncLog/Cache overrides wrong: %+v %+v %+v", c.Pull, c.SyncLog, c.Cache)
	}
	if !c.Logger.IsProd {
		t.Fatalf("Logger.IsProd override wrong: %+v", c.Logger)
	}
}

// Тоже меняем окружение — но с невалидным значением.
func TestLoadWithPrefix_InvalidValue_ReturnsError(t *testing.T) {
	const p = "MPSYNC_TEST_BAD"
	t.Setenv(p+"_HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := cfg.LoadWithPrefix(p); err == nil {
		t.Fatalf("expected error for invalid duration, got nil")
	}
}
