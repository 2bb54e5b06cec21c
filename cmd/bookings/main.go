package main

import (
	"homigo/internal/bookings/handler"
	"homigo/internal/bookings/repository"
	"homigo/internal/bookings/service"
	"homigo/internal/bookings/validator"
	"homigo/internal/directory"
	"homigo/internal/health"
	"homigo/internal/notifications"
	"homigo/internal/payments/gateway"
	"homigo/pkg/app"
	"homigo/pkg/auth"
	"homigo/pkg/config"
	"homigo/pkg/kafka"
	kafka_config "homigo/pkg/kafka/config"
	kafka_middleware "homigo/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	// Log all configuration values
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Bookings service")
	cfg.SetMongo()
	if cfg.IdempotencyBackend == config.BackendRedis {
		cfg.SetRedis()
	}

	serverApp := app.NewApplication(cfg)

	dispatcher, closeDispatcher := initDispatcher(cfg)
	bookingService := initServices(cfg, dispatcher)
	authenticator := auth.NewAuthenticator(cfg.JWTSecret)

	healthHandler := health.NewHealthHandler(cfg.Log).WithCheck("mongo", health.MongoCheck(cfg.Client.Mongo))
	if cfg.Client.Redis != nil {
		healthHandler.WithCheck("redis", health.RedisCheck(cfg.Client.Redis))
	}

	serverApp.OnShutdown(bookingService.Wait)
	serverApp.OnShutdown(closeDispatcher)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.SetApp(
		healthHandler,
		handler.NewBookingHandler(bookingService, authenticator, cfg.Log),
		handler.NewPaymentHandler(bookingService, authenticator, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, dispatcher notifications.Dispatcher) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	lockRepo := repository.NewListingLockRepository(cfg)
	bookingRepo := repository.NewMongoBookingRepository(cfg, lockRepo)
	dir := directory.NewMongoDirectory(cfg)

	paymentGateway, err := gateway.New(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize payment gateway", "error", err)
	}

	bookingService := service.NewBookingService(
		bookingRepo,
		dir,
		dir,
		paymentGateway,
		dispatcher,
		bookingValidator,
		cfg,
	)

	cfg.Log.Info("Booking service initialized",
		"database", cfg.MongoDatabaseName,
		"payment_provider", cfg.PaymentProvider,
	)
	return bookingService
}

// initDispatcher returns the configured dispatcher and a func that releases it.
// The release must run after the booking service has drained its notifications.
func initDispatcher(cfg *config.Config) (notifications.Dispatcher, func()) {
	if cfg.NotificationDispatcher != config.DispatcherKafka {
		return notifications.NewLogDispatcher(cfg.Log), func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationsTopic, kafkaCfg.DLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	cfg.Log.Info("Kafka notification dispatcher enabled", "topic", cfg.NotificationsTopic)
	return notifications.NewKafkaDispatcher(producer), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}
