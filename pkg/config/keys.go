package config

const (
	EnvPrefix = "QUOTEENGINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "QUOTEENGINE_APP_ENV"
	EnvPort      = "QUOTEENGINE_APP_PORT"
	EnvDBDSN     = "QUOTEENGINE_DB_DSN"
	EnvDBHost    = "QUOTEENGINE_DB_HOST"
	EnvDBUser    = "QUOTEENGINE_DB_USER"
	EnvDBName    = "QUOTEENGINE_DB_NAME"
	EnvUseSQLite = "QUOTEENGINE_USE_SQLITE"

	EnvRedisURL  = "QUOTEENGINE_REDIS_URL"
	EnvJWTSecret = "QUOTEENGINE_JWT_SECRET"
	EnvJWTIssuer = "QUOTEENGINE_JWT_ISSUER"

	EnvPricingIVARate       = "QUOTEENGINE_PRICING_DEFAULT_IVA_RATE"
	EnvPricingISRRate       = "QUOTEENGINE_PRICING_DEFAULT_ISR_RATE"
	EnvPricingCurrencyScale = "QUOTEENGINE_PRICING_CURRENCY_SCALE"

	EnvGCPProjectID      = "QUOTEENGINE_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "QUOTEENGINE_PUBSUB_DOMAIN_TOPIC"

	defaultSQLiteDSN = "file:quoteengine.db?cache=shared&_foreign_keys=on"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
