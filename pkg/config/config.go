package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"studiobook/pkg/client"
	"studiobook/pkg/logger"
	"studiobook/pkg/model"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers          []string
	KafkaReservationTopic string

	Port          string
	LogLevel      string
	StorageDriver string

	SlotDurationMinutes  int
	StudioTimezone       string
	OpeningHours         string
	ConfirmationPrefix   string
	PhoneRegions         []string
	ConfirmationWidth    int
	AdmissionLockTTL     time.Duration
	AvailabilityCacheTTL time.Duration

	AvailabilityConfigRefresh time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file, then the environment, and exits on invalid values.
func Load(serviceName string) *Config {
	envErr := loadDotEnv()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
	if envErr != nil {
		cfg.Log.Warn("Failed to load .env file", "error", envErr)
	}
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// loadDotEnv loads the given env files, .env by default. A missing file is not an error.
func loadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// FromEnv builds a Config from the process environment without validating it.
func FromEnv() *Config {
	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		KafkaBrokers:          getEnvList(EnvKafkaBrokers),
		KafkaReservationTopic: getEnvStr(EnvKafkaReservationTopic, DefaultKafkaReservationTopic),

		Port:          getEnvStr(EnvPort, DefaultPort),
		LogLevel:      getEnvStr(EnvLogLevel, DefaultLogLevel),
		StorageDriver: strings.ToLower(getEnvStr(EnvStorageDriver, DefaultStorageDriver)),

		SlotDurationMinutes:  getEnvNum(EnvSlotDurationMinutes, DefaultSlotDurationMinutes),
		StudioTimezone:       getEnvStr(EnvStudioTimezone, DefaultStudioTimezone),
		OpeningHours:         getEnvStr(EnvOpeningHours, DefaultOpeningHours),
		ConfirmationPrefix:   getEnvStr(EnvConfirmationPrefix, DefaultConfirmationPrefix),
		ConfirmationWidth:    getEnvNum(EnvConfirmationWidth, DefaultConfirmationWidth),
		PhoneRegions:         getEnvListOr(EnvPhoneRegions, DefaultPhoneRegions),
		AdmissionLockTTL:     getEnvDuration(EnvAdmissionLockTTL, DefaultAdmissionLockTTL),
		AvailabilityCacheTTL: getEnvDuration(EnvAvailabilityCacheTTL, DefaultAvailabilityCacheTTL),

		AvailabilityConfigRefresh: getEnvDuration(EnvAvailabilityConfigRefresh, DefaultAvailabilityConfigRefresh),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects to Redis when an address is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis address not set, availability cache and idempotency store run in memory")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) UsesMongo() bool {
	return cfg.StorageDriver == StorageMongo
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.StorageDriver != StorageMongo && cfg.StorageDriver != StorageMemory {
		errors = append(errors, fmt.Sprintf("StorageDriver must be %q or %q, got: %s", StorageMongo, StorageMemory, cfg.StorageDriver))
	}

	if cfg.StorageDriver == StorageMongo {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	}

	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaReservationTopic == "" {
		errors = append(errors, "KafkaReservationTopic cannot be empty when KafkaBrokers is set")
	}

	if cfg.SlotDurationMinutes <= 0 || cfg.SlotDurationMinutes > model.MinutesPerDay {
		errors = append(errors, fmt.Sprintf("SlotDurationMinutes must be between 1 and %d, got: %d", model.MinutesPerDay, cfg.SlotDurationMinutes))
	}
	if _, err := time.LoadLocation(cfg.StudioTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("StudioTimezone must be an IANA zone name, got: %s", cfg.StudioTimezone))
	}
	if _, err := ParseOpeningHours(cfg.OpeningHours); err != nil {
		errors = append(errors, fmt.Sprintf("OpeningHours is invalid: %v", err))
	}
	if !regexp.MustCompile(`^[A-Z0-9]{1,10}$`).MatchString(cfg.ConfirmationPrefix) {
		errors = append(errors, fmt.Sprintf("ConfirmationPrefix must be 1-10 uppercase letters or digits, got: %s", cfg.ConfirmationPrefix))
	}
	if cfg.ConfirmationWidth < 1 || cfg.ConfirmationWidth > 9 {
		errors = append(errors, fmt.Sprintf("ConfirmationWidth must be between 1 and 9, got: %d", cfg.ConfirmationWidth))
	}
	if len(cfg.PhoneRegions) == 0 {
		errors = append(errors, "PhoneRegions cannot be empty")
	}
	if cfg.AdmissionLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("AdmissionLockTTL must be positive, got: %s", cfg.AdmissionLockTTL))
	}
	if cfg.AvailabilityCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("AvailabilityCacheTTL must be positive, got: %s", cfg.AvailabilityCacheTTL))
	}
	if cfg.AvailabilityConfigRefresh <= 0 {
		errors = append(errors, fmt.Sprintf("AvailabilityConfigRefresh must be positive, got: %s", cfg.AvailabilityConfigRefresh))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"storage_driver", cfg.StorageDriver,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_enabled", cfg.RedisAddr != "",
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_reservation_topic", cfg.KafkaReservationTopic,
		"port", cfg.Port,
		"slot_duration_minutes", cfg.SlotDurationMinutes,
		"studio_timezone", cfg.StudioTimezone,
		"opening_hours", cfg.OpeningHours,
		"confirmation_prefix", cfg.ConfirmationPrefix,
		"confirmation_width", cfg.ConfirmationWidth,
		"phone_regions", cfg.PhoneRegions,
		"admission_lock_ttl", cfg.AdmissionLockTTL,
		"availability_cache_ttl", cfg.AvailabilityCacheTTL,
		"availability_config_refresh", cfg.AvailabilityConfigRefresh,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

// Location returns the studio time zone. Validate guarantees it loads.
func (cfg *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.StudioTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultAvailability is the configuration used until one is persisted.
func (cfg *Config) DefaultAvailability() *model.AvailabilityConfig {
	hours, err := ParseOpeningHours(cfg.OpeningHours)
	if err != nil {
		hours = model.OpeningHours{}
	}
	return &model.AvailabilityConfig{
		Version:             1,
		SlotDurationMinutes: cfg.SlotDurationMinutes,
		OpeningHours:        hours,
	}
}

// ParseOpeningHours parses "Monday=09:00-18:00,Sunday=00:00-00:00".
func ParseOpeningHours(raw string) (model.OpeningHours, error) {
	hours := model.OpeningHours{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		day, window, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q must be Day=HH:MM-HH:MM", entry)
		}
		day = strings.TrimSpace(day)
		if !isWeekday(day) {
			return nil, fmt.Errorf("unknown weekday %q", day)
		}
		if _, dup := hours[day]; dup {
			return nil, fmt.Errorf("weekday %q listed twice", day)
		}
		start, end, ok := strings.Cut(strings.TrimSpace(window), "-")
		if !ok {
			return nil, fmt.Errorf("entry %q must be Day=HH:MM-HH:MM", entry)
		}
		dh := model.DayHours{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}
		s, e, err := dh.Minutes()
		if err != nil {
			return nil, err
		}
		if !dh.Closed() && s >= e {
			return nil, fmt.Errorf("%s opens at %s but closes at %s", day, dh.Start, dh.End)
		}
		hours[day] = dh
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("no opening hours configured")
	}
	return hours, nil
}

func isWeekday(day string) bool {
	for _, d := range model.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	return splitList(os.Getenv(key))
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func getEnvListOr(key, fallback string) []string {
	if out := getEnvList(key); len(out) > 0 {
		return out
	}
	return splitList(fallback)
}
