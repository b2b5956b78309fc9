package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvRoomLockTTL        = "ROOM_LOCK_TTL"
	EnvCreateMaxAttempts  = "CREATE_MAX_ATTEMPTS"
	EnvCreateRetryBackoff = "CREATE_RETRY_BACKOFF"
	EnvCheckInGrace       = "CHECK_IN_GRACE"
	EnvMaxOverlapFetch    = "MAX_OVERLAP_FETCH"

	EnvKafkaEnabled = "KAFKA_ENABLED"
)
