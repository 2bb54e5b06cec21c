package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"

	EnvPaymentProvider       = "PAYMENT_PROVIDER"
	EnvPaymentCurrency       = "PAYMENT_CURRENCY"
	EnvRazorpayKeyID         = "RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret     = "RAZORPAY_KEY_SECRET"
	EnvRazorpayBaseURL       = "RAZORPAY_BASE_URL"
	EnvRazorpayWebhookSecret = "RAZORPAY_WEBHOOK_SECRET"
	EnvStripeSecretKey       = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret   = "STRIPE_WEBHOOK_SECRET"
	EnvGatewayTimeout        = "GATEWAY_TIMEOUT"

	EnvRedisAddr          = "REDIS_ADDR"
	EnvRedisPassword      = "REDIS_PASSWORD"
	EnvRedisDB            = "REDIS_DB"
	EnvIdempotencyBackend = "IDEMPOTENCY_BACKEND"

	EnvNotificationDispatcher = "NOTIFICATION_DISPATCHER"
	EnvNotificationsTopic     = "NOTIFICATIONS_TOPIC"
	EnvNotificationTimeout    = "NOTIFICATION_TIMEOUT"

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
