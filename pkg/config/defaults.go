package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roomio"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultRoomLockTTL        = 10 * time.Second
	DefaultCreateMaxAttempts  = 3
	DefaultCreateRetryBackoff = 50 * time.Millisecond
	DefaultCheckInGrace       = 1 * time.Hour
	DefaultMaxOverlapFetch    = 50

	DefaultKafkaEnabled = false

	DefaultPaginationLimit = 100

	DefaultLogLevel = "info"
)
