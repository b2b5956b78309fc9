// Package kafka_config loads broker connection tuning from the environment.
// It exposes only the knobs the producer and consumer wrappers read.
package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Brokers []string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	ProducerCompression  string // "none", "gzip", "snappy", "lz4", "zstd"
	ProducerAsync        bool

	ConsumerStartOffset       int64 // -1 = newest, -2 = oldest
	ConsumerMinBytes          int
	ConsumerMaxBytes          int
	ConsumerMaxWait           time.Duration
	ConsumerCommitInterval    time.Duration
	ConsumerHeartbeatInterval time.Duration
	ConsumerSessionTimeout    time.Duration
	ConsumerRebalanceTimeout  time.Duration
	ConsumerMaxRetries        int
}

func Load() *Config {
	cfg := &Config{
		Brokers: splitBrokers(envStr("KAFKA_BROKERS", "localhost:9092")),

		ProducerMaxAttempts:  envInt("KAFKA_PRODUCER_MAX_ATTEMPTS", 3),
		ProducerBatchTimeout: envDuration("KAFKA_PRODUCER_BATCH_TIMEOUT", 10*time.Millisecond),
		ProducerRequireAcks:  envInt("KAFKA_PRODUCER_REQUIRE_ACKS", -1),
		ProducerCompression:  envStr("KAFKA_PRODUCER_COMPRESSION", "snappy"),
		ProducerAsync:        envBool("KAFKA_PRODUCER_ASYNC", false),

		ConsumerStartOffset:       envInt64("KAFKA_CONSUMER_START_OFFSET", -1),
		ConsumerMinBytes:          envInt("KAFKA_CONSUMER_MIN_BYTES", 1),
		ConsumerMaxBytes:          envInt("KAFKA_CONSUMER_MAX_BYTES", 10*1024*1024),
		ConsumerMaxWait:           envDuration("KAFKA_CONSUMER_MAX_WAIT", 500*time.Millisecond),
		ConsumerCommitInterval:    envDuration("KAFKA_CONSUMER_COMMIT_INTERVAL", time.Second),
		ConsumerHeartbeatInterval: envDuration("KAFKA_CONSUMER_HEARTBEAT_INTERVAL", 3*time.Second),
		ConsumerSessionTimeout:    envDuration("KAFKA_CONSUMER_SESSION_TIMEOUT", 10*time.Second),
		ConsumerRebalanceTimeout:  envDuration("KAFKA_CONSUMER_REBALANCE_TIMEOUT", time.Minute),
		ConsumerMaxRetries:        envInt("KAFKA_CONSUMER_MAX_RETRIES", 3),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Kafka configuration validation failed: %v", err))
	}
	return cfg
}

func (cfg *Config) Validate() error {
	var problems []string

	if len(cfg.Brokers) == 0 {
		problems = append(problems, "at least one broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			problems = append(problems, fmt.Sprintf("broker %d is empty", i))
		}
	}

	switch cfg.ProducerCompression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		problems = append(problems, fmt.Sprintf("ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got %q", cfg.ProducerCompression))
	}
	if cfg.ProducerRequireAcks < -1 || cfg.ProducerRequireAcks > 1 {
		problems = append(problems, fmt.Sprintf("ProducerRequireAcks must be -1, 0 or 1, got %d", cfg.ProducerRequireAcks))
	}
	if cfg.ConsumerStartOffset < -2 {
		problems = append(problems, fmt.Sprintf("ConsumerStartOffset must be -1 (newest), -2 (oldest) or a partition offset, got %d", cfg.ConsumerStartOffset))
	}
	if cfg.ConsumerMaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("ConsumerMaxRetries cannot be negative, got %d", cfg.ConsumerMaxRetries))
	}

	for _, check := range []struct {
		name  string
		value int64
	}{
		{"ProducerMaxAttempts", int64(cfg.ProducerMaxAttempts)},
		{"ProducerBatchTimeout", int64(cfg.ProducerBatchTimeout)},
		{"ConsumerMinBytes", int64(cfg.ConsumerMinBytes)},
		{"ConsumerMaxBytes", int64(cfg.ConsumerMaxBytes)},
		{"ConsumerMaxWait", int64(cfg.ConsumerMaxWait)},
		{"ConsumerCommitInterval", int64(cfg.ConsumerCommitInterval)},
		{"ConsumerHeartbeatInterval", int64(cfg.ConsumerHeartbeatInterval)},
		{"ConsumerSessionTimeout", int64(cfg.ConsumerSessionTimeout)},
		{"ConsumerRebalanceTimeout", int64(cfg.ConsumerRebalanceTimeout)},
	} {
		if check.value <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", check.name))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("kafka configuration invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (cfg *Config) LogConfiguration(logFunc func(msg string, keysAndValues ...interface{})) {
	if logFunc == nil {
		return
	}

	logFunc("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_batch_timeout", cfg.ProducerBatchTimeout,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"producer_async", cfg.ProducerAsync,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_min_bytes", cfg.ConsumerMinBytes,
		"consumer_max_bytes", cfg.ConsumerMaxBytes,
		"consumer_max_wait", cfg.ConsumerMaxWait,
		"consumer_commit_interval", cfg.ConsumerCommitInterval,
		"consumer_heartbeat_interval", cfg.ConsumerHeartbeatInterval,
		"consumer_session_timeout", cfg.ConsumerSessionTimeout,
		"consumer_rebalance_timeout", cfg.ConsumerRebalanceTimeout,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
	)
}

func splitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func envStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
