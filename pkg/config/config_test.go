package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		MongoURI:              DefaultMongoURI,
		MongoDatabaseName:     DefaultMongoDatabaseName,
		MongoConnTimeout:      DefaultMongoConnTimeout,
		KafkaReservationTopic: DefaultKafkaReservationTopic,
		Port:                  DefaultPort,
		StorageDriver:         StorageMongo,
		SlotDurationMinutes:   DefaultSlotDurationMinutes,
		StudioTimezone:        DefaultStudioTimezone,
		OpeningHours:          DefaultOpeningHours,
		ConfirmationPrefix:    DefaultConfirmationPrefix,
		ConfirmationWidth:     DefaultConfirmationWidth,
		PhoneRegions:          []string{DefaultPhoneRegions},
		AdmissionLockTTL:      DefaultAdmissionLockTTL,
		AvailabilityCacheTTL:  DefaultAvailabilityCacheTTL,
		RateLimitRequests:     DefaultRateLimitRequests,
		RateLimitWindow:       DefaultRateLimitWindow,
		RequestTimeout:        DefaultRequestTimeout,
		IdempotencyTTL:        DefaultIdempotencyTTL,
		MaxRequestSize:        DefaultMaxRequestSize,
		ReadTimeout:           DefaultReadTimeout,
		WriteTimeout:          DefaultWriteTimeout,
		IdleTimeout:           DefaultIdleTimeout,
		ShutdownTimeout:       DefaultShutdownTimeout,

		AvailabilityConfigRefresh: DefaultAvailabilityConfigRefresh,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "memory driver ignores mongo settings", mutate: func(c *Config) {
			c.StorageDriver = StorageMemory
			c.MongoURI = ""
		}},
		{name: "bad port", mutate: func(c *Config) { c.Port = "70000" }, wantErr: "Port"},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "postgres" }, wantErr: "StorageDriver"},
		{name: "bad mongo uri", mutate: func(c *Config) { c.MongoURI = "postgres://localhost" }, wantErr: "MongoURI"},
		{name: "zero slot duration", mutate: func(c *Config) { c.SlotDurationMinutes = 0 }, wantErr: "SlotDurationMinutes"},
		{name: "unknown timezone", mutate: func(c *Config) { c.StudioTimezone = "Mars/Olympus" }, wantErr: "StudioTimezone"},
		{name: "bad opening hours", mutate: func(c *Config) { c.OpeningHours = "Funday=09:00-18:00" }, wantErr: "OpeningHours"},
		{name: "lowercase prefix", mutate: func(c *Config) { c.ConfirmationPrefix = "psb" }, wantErr: "ConfirmationPrefix"},
		{name: "zero width", mutate: func(c *Config) { c.ConfirmationWidth = 0 }, wantErr: "ConfirmationWidth"},
		{name: "no phone regions", mutate: func(c *Config) { c.PhoneRegions = nil }, wantErr: "PhoneRegions"},
		{name: "zero lock ttl", mutate: func(c *Config) { c.AdmissionLockTTL = 0 }, wantErr: "AdmissionLockTTL"},
		{name: "zero config refresh", mutate: func(c *Config) { c.AvailabilityConfigRefresh = 0 }, wantErr: "AvailabilityConfigRefresh"},
		{name: "brokers without topic", mutate: func(c *Config) {
			c.KafkaBrokers = []string{"localhost:9092"}
			c.KafkaReservationTopic = ""
		}, wantErr: "KafkaReservationTopic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvSlotDurationMinutes, "120")
	t.Setenv(EnvStudioTimezone, "Europe/Berlin")
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092, kafka-2:9092,")
	t.Setenv(EnvStorageDriver, "MEMORY")
	t.Setenv(EnvAdmissionLockTTL, "not-a-duration")

	cfg := FromEnv()

	if cfg.SlotDurationMinutes != 120 {
		t.Errorf("SlotDurationMinutes = %d, want 120", cfg.SlotDurationMinutes)
	}
	if cfg.Location().String() != "Europe/Berlin" {
		t.Errorf("Location() = %s, want Europe/Berlin", cfg.Location())
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.StorageDriver != StorageMemory {
		t.Errorf("StorageDriver = %s, want memory", cfg.StorageDriver)
	}
	if cfg.AdmissionLockTTL != DefaultAdmissionLockTTL {
		t.Errorf("AdmissionLockTTL = %s, want fallback %s", cfg.AdmissionLockTTL, DefaultAdmissionLockTTL)
	}
	if len(cfg.PhoneRegions) != 1 || cfg.PhoneRegions[0] != DefaultPhoneRegions {
		t.Errorf("PhoneRegions = %v, want fallback [%s]", cfg.PhoneRegions, DefaultPhoneRegions)
	}
}

func TestParseOpeningHours(t *testing.T) {
	hours, err := ParseOpeningHours(DefaultOpeningHours)
	if err != nil {
		t.Fatalf("ParseOpeningHours(default) error: %v", err)
	}
	if got := hours.For(time.Monday); got.Start != "09:00" || got.End != "18:00" {
		t.Errorf("Monday = %+v", got)
	}
	if !hours.For(time.Sunday).Closed() {
		t.Errorf("Sunday should be closed")
	}

	invalid := []string{
		"",
		"Monday",
		"Monday=09:00",
		"Monday=18:00-09:00",
		"Monday=09:00-18:00,Monday=10:00-12:00",
		"Monday=9-18",
	}
	for _, raw := range invalid {
		if _, err := ParseOpeningHours(raw); err == nil {
			t.Errorf("ParseOpeningHours(%q) expected error", raw)
		}
	}

	late, err := ParseOpeningHours("Friday=18:00-24:00")
	if err != nil {
		t.Fatalf("24:00 end should be accepted: %v", err)
	}
	if late.For(time.Friday).End != "24:00" {
		t.Errorf("Friday end = %s", late.For(time.Friday).End)
	}
}

func TestDefaultAvailability(t *testing.T) {
	cfg := validConfig()
	av := cfg.DefaultAvailability()
	if av.Version != 1 || av.SlotDurationMinutes != 60 {
		t.Errorf("DefaultAvailability() = %+v", av)
	}
	if len(av.OpeningHours) != 7 {
		t.Errorf("expected 7 weekdays, got %d", len(av.OpeningHours))
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017")
	if strings.Contains(got, "secret") {
		t.Errorf("redactMongoURI leaked password: %s", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.env")
	malformed := filepath.Join(dir, "malformed.env")
	if err := os.WriteFile(valid, []byte("STUDIOBOOK_DOTENV_CHECK=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(malformed, []byte("STUDIOBOOK_DOTENV_CHECK=\"unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "missing file", path: filepath.Join(dir, "absent.env")},
		{name: "valid file", path: valid},
		{name: "malformed file", path: malformed, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STUDIOBOOK_DOTENV_CHECK", "")
			os.Unsetenv("STUDIOBOOK_DOTENV_CHECK")

			err := loadDotEnv(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadDotEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.path == valid && os.Getenv("STUDIOBOOK_DOTENV_CHECK") != "loaded" {
				t.Errorf("STUDIOBOOK_DOTENV_CHECK = %q, want loaded", os.Getenv("STUDIOBOOK_DOTENV_CHECK"))
			}
		})
	}
}
