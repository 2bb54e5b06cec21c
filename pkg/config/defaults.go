package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "homigo"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultPaymentProvider = ProviderRazorpay
	DefaultPaymentCurrency = "INR"
	DefaultRazorpayBaseURL = "https://api.razorpay.com/v1"
	DefaultGatewayTimeout  = 15 * time.Second

	DefaultRedisAddr          = "localhost:6379"
	DefaultRedisDB            = 0
	DefaultIdempotencyBackend = BackendMemory

	DefaultNotificationDispatcher = DispatcherLog
	DefaultNotificationsTopic     = "notifications.email"
	DefaultNotificationTimeout    = 10 * time.Second

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)

const (
	ProviderRazorpay = "razorpay"
	ProviderStripe   = "stripe"

	BackendMemory = "memory"
	BackendRedis  = "redis"

	DispatcherLog   = "log"
	DispatcherKafka = "kafka"
)
