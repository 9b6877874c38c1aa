package config

// EnvPrefix is handed to envconfig; every field carries its full name in the tag.
const EnvPrefix = "ORDERFLOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv    = "ORDERFLOW_APP_ENV"
	EnvPort      = "ORDERFLOW_APP_PORT"
	EnvDBDSN     = "ORDERFLOW_DB_DSN"
	EnvDBHost    = "ORDERFLOW_DB_HOST"
	EnvDBUser    = "ORDERFLOW_DB_USER"
	EnvDBName    = "ORDERFLOW_DB_NAME"
	EnvUseSQLite = "ORDERFLOW_USE_SQLITE"

	EnvRedisURL = "ORDERFLOW_REDIS_URL"

	EnvJWTSecret  = "ORDERFLOW_JWT_SECRET"
	EnvJWTIssuer  = "ORDERFLOW_JWT_ISSUER"
	EnvJWTExpMins = "ORDERFLOW_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "ORDERFLOW_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic       = "ORDERFLOW_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub         = "ORDERFLOW_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubNotificationTopic = "ORDERFLOW_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "ORDERFLOW_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvCheckoutFreeShippingThreshold = "ORDERFLOW_CHECKOUT_FREE_SHIPPING_THRESHOLD"
	EnvCheckoutShippingFee           = "ORDERFLOW_CHECKOUT_SHIPPING_FEE"
	EnvCheckoutOTPValidity           = "ORDERFLOW_CHECKOUT_OTP_VALIDITY"
	EnvCheckoutTestModeGateways      = "ORDERFLOW_CHECKOUT_TEST_MODE_GATEWAYS"

	EnvCronStalePaymentTTL = "ORDERFLOW_CRON_STALE_PAYMENT_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
