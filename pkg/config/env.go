package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvKafkaBrokers          = "KAFKA_BROKERS"
	EnvKafkaReservationTopic = "KAFKA_RESERVATION_TOPIC"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvStorageDriver = "STORAGE_DRIVER"

	EnvSlotDurationMinutes  = "SLOT_DURATION_MINUTES"
	EnvStudioTimezone       = "STUDIO_TIMEZONE"
	EnvOpeningHours         = "OPENING_HOURS"
	EnvConfirmationPrefix   = "CONFIRMATION_PREFIX"
	EnvPhoneRegions         = "PHONE_REGIONS"
	EnvConfirmationWidth    = "CONFIRMATION_WIDTH"
	EnvAdmissionLockTTL     = "ADMISSION_LOCK_TTL"
	EnvAvailabilityCacheTTL = "AVAILABILITY_CACHE_TTL"

	EnvAvailabilityConfigRefresh = "AVAILABILITY_CONFIG_REFRESH"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
