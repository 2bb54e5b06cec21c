package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"homigo/pkg/client"
	"homigo/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	JWTSecret string

	PaymentProvider       string
	PaymentCurrency       string
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayBaseURL       string
	RazorpayWebhookSecret string
	StripeSecretKey       string
	StripeWebhookSecret   string
	GatewayTimeout        time.Duration

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	IdempotencyBackend string

	NotificationDispatcher string
	NotificationsTopic     string
	NotificationTimeout    time.Duration

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

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		PaymentProvider:       getEnvStr(EnvPaymentProvider, DefaultPaymentProvider),
		PaymentCurrency:       getEnvStr(EnvPaymentCurrency, DefaultPaymentCurrency),
		RazorpayKeyID:         getEnvStr(EnvRazorpayKeyID, ""),
		RazorpayKeySecret:     getEnvStr(EnvRazorpayKeySecret, ""),
		RazorpayBaseURL:       getEnvStr(EnvRazorpayBaseURL, DefaultRazorpayBaseURL),
		RazorpayWebhookSecret: getEnvStr(EnvRazorpayWebhookSecret, ""),
		StripeSecretKey:       getEnvStr(EnvStripeSecretKey, ""),
		StripeWebhookSecret:   getEnvStr(EnvStripeWebhookSecret, ""),
		GatewayTimeout:        getEnvDuration(EnvGatewayTimeout, DefaultGatewayTimeout),

		RedisAddr:          getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword:      getEnvStr(EnvRedisPassword, ""),
		RedisDB:            getEnvNum(EnvRedisDB, DefaultRedisDB),
		IdempotencyBackend: getEnvStr(EnvIdempotencyBackend, DefaultIdempotencyBackend),

		NotificationDispatcher: getEnvStr(EnvNotificationDispatcher, DefaultNotificationDispatcher),
		NotificationsTopic:     getEnvStr(EnvNotificationsTopic, DefaultNotificationsTopic),
		NotificationTimeout:    getEnvDuration(EnvNotificationTimeout, DefaultNotificationTimeout),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.JWTSecret == "" {
		errors = append(errors, "JWTSecret cannot be empty")
	}

	switch cfg.PaymentProvider {
	case ProviderRazorpay:
		if cfg.RazorpayKeyID == "" {
			errors = append(errors, "RazorpayKeyID cannot be empty when the razorpay provider is selected")
		}
		if cfg.RazorpayKeySecret == "" {
			errors = append(errors, "RazorpayKeySecret cannot be empty when the razorpay provider is selected")
		}
	case ProviderStripe:
		if cfg.StripeSecretKey == "" {
			errors = append(errors, "StripeSecretKey cannot be empty when the stripe provider is selected")
		}
	default:
		errors = append(errors, fmt.Sprintf("PaymentProvider must be one of [%s, %s], got: %s", ProviderRazorpay, ProviderStripe, cfg.PaymentProvider))
	}
	if len(cfg.PaymentCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("PaymentCurrency must be a 3-letter ISO code, got: %s", cfg.PaymentCurrency))
	}

	switch cfg.IdempotencyBackend {
	case BackendMemory, BackendRedis:
	default:
		errors = append(errors, fmt.Sprintf("IdempotencyBackend must be one of [%s, %s], got: %s", BackendMemory, BackendRedis, cfg.IdempotencyBackend))
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	switch cfg.NotificationDispatcher {
	case DispatcherLog, DispatcherKafka:
	default:
		errors = append(errors, fmt.Sprintf("NotificationDispatcher must be one of [%s, %s], got: %s", DispatcherLog, DispatcherKafka, cfg.NotificationDispatcher))
	}
	if cfg.NotificationDispatcher == DispatcherKafka && cfg.NotificationsTopic == "" {
		errors = append(errors, "NotificationsTopic cannot be empty when the kafka dispatcher is enabled")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"GatewayTimeout", cfg.GatewayTimeout},
		{"NotificationTimeout", cfg.NotificationTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
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
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"payment_provider", cfg.PaymentProvider,
		"payment_currency", cfg.PaymentCurrency,
		"razorpay_key_id_set", cfg.RazorpayKeyID != "",
		"razorpay_key_secret_set", cfg.RazorpayKeySecret != "",
		"razorpay_webhook_secret_set", cfg.RazorpayWebhookSecret != "",
		"stripe_secret_key_set", cfg.StripeSecretKey != "",
		"stripe_webhook_secret_set", cfg.StripeWebhookSecret != "",
		"gateway_timeout", cfg.GatewayTimeout,
		"redis_addr", cfg.RedisAddr,
		"idempotency_backend", cfg.IdempotencyBackend,
		"notification_dispatcher", cfg.NotificationDispatcher,
		"notifications_topic", cfg.NotificationsTopic,
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

	for _, warning := range cfg.Warnings() {
		cfg.Log.Warn(warning)
	}
}

// Warnings lists settings that are valid but leave a feature disabled.
func (cfg *Config) Warnings() []string {
	var warnings []string
	switch cfg.PaymentProvider {
	case ProviderRazorpay:
		if cfg.RazorpayWebhookSecret == "" {
			warnings = append(warnings, "RazorpayWebhookSecret is empty; payment webhooks will be rejected")
		}
	case ProviderStripe:
		if cfg.StripeWebhookSecret == "" {
			warnings = append(warnings, "StripeWebhookSecret is empty; payment webhooks will be rejected")
		}
	}
	return warnings
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

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
