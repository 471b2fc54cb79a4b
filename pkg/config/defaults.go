package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "studiobook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisDB = 0

	DefaultKafkaReservationTopic = "studio.reservations"

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	StorageMongo         = "mongo"
	StorageMemory        = "memory"
	DefaultStorageDriver = StorageMongo

	DefaultSlotDurationMinutes  = 60
	DefaultStudioTimezone       = "UTC"
	DefaultOpeningHours         = "Monday=09:00-18:00,Tuesday=09:00-18:00,Wednesday=09:00-18:00,Thursday=09:00-18:00,Friday=09:00-18:00,Saturday=09:00-18:00,Sunday=00:00-00:00"
	DefaultConfirmationPrefix   = "PSB"
	DefaultPhoneRegions         = "US"
	DefaultConfirmationWidth    = 4
	DefaultAdmissionLockTTL     = 10 * time.Second
	DefaultAvailabilityCacheTTL = 60 * time.Second

	DefaultAvailabilityConfigRefresh = 5 * time.Second

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
