package main

import (
	"context"
	"time"

	availabilityhandler "studiobook/internal/availability/handler"
	availabilityrepo "studiobook/internal/availability/repository"
	availabilityservice "studiobook/internal/availability/service"
	availabilitystore "studiobook/internal/availability/store"
	availabilityvalidator "studiobook/internal/availability/validator"
	"studiobook/internal/reservations/events"
	reservationhandler "studiobook/internal/reservations/handler"
	"studiobook/internal/reservations/repository"
	reservationservice "studiobook/internal/reservations/service"
	reservationvalidator "studiobook/internal/reservations/validator"
	"studiobook/pkg/app"
	"studiobook/pkg/cache"
	"studiobook/pkg/clock"
	"studiobook/pkg/config"
	"studiobook/pkg/kafka"
	kafka_config "studiobook/pkg/kafka/config"
	kafka_middleware "studiobook/pkg/kafka/middleware"
)

const (
	ServiceName = "scheduler"

	configLoadTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Scheduler service")

	store, configRepo := initStorage(cfg)
	cfg.SetRedis()
	availabilityCache := cache.NewAvailabilityCache(cfg.Client.Redis, cfg.AvailabilityCacheTTL)

	publisher := initPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), configLoadTimeout)
	hours, err := availabilitystore.New(ctx, configRepo, cfg.DefaultAvailability(), cfg.Log)
	cancel()
	if err != nil {
		cfg.Log.Fatal("Failed to load availability configuration", "error", err)
	}
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	go hours.Run(refreshCtx, cfg.AvailabilityConfigRefresh)

	systemClock := clock.System()
	reservations := reservationservice.NewReservationService(
		store,
		reservationvalidator.NewReservationValidator(cfg.Log),
		events.NewPublisher(publisher, cfg.Log),
		availabilityCache,
		systemClock,
		cfg,
	)
	availability := availabilityservice.NewAvailabilityService(
		hours,
		store.Reservations,
		availabilityCache,
		availabilityvalidator.NewAvailabilityValidator(cfg.Log),
		systemClock,
		cfg,
	)
	cfg.Log.Info("Scheduler services initialized", "storage", cfg.StorageDriver, "timezone", cfg.StudioTimezone)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		reservationhandler.NewReservationHandler(reservations, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availability, cfg.Log),
	)
	serverApp.Run()
}

func initStorage(cfg *config.Config) (*repository.Store, availabilityrepo.ConfigRepository) {
	if !cfg.UsesMongo() {
		cfg.Log.Warn("Using in-memory storage, reservations are lost on restart")
		return repository.NewMemoryStore(), availabilityrepo.NewMemoryConfigRepository()
	}

	cfg.SetMongo()
	cfg.Log.Info("Using Mongo storage", "database", cfg.MongoDatabaseName)
	return repository.NewMongoStore(cfg), availabilityrepo.NewMongoConfigRepository(cfg)
}

func initPublisher(cfg *config.Config) kafka.Publisher {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.Brokers = cfg.KafkaBrokers
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka brokers not set, reservation events are not published")
		return kafka.NoopPublisher{}
	}
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaReservationTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	return producer
}
