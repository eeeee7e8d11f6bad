package config

// EnvPrefix is handed to envconfig; every field carries an explicit name, so it
// only matters for fields added without one.
const EnvPrefix = "WHOLESALE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "WHOLESALE_APP_ENV"
	EnvPort     = "WHOLESALE_APP_PORT"
	EnvLogLevel = "WHOLESALE_LOG_LEVEL"

	EnvDBDSN  = "WHOLESALE_DB_DSN"
	EnvDBHost = "WHOLESALE_DB_HOST"
	EnvDBUser = "WHOLESALE_DB_USER"
	EnvDBName = "WHOLESALE_DB_NAME"

	EnvRedisURL = "WHOLESALE_REDIS_URL"

	EnvJWTSecret = "WHOLESALE_JWT_SECRET"
	EnvJWTIssuer = "WHOLESALE_JWT_ISSUER"

	EnvOffersCacheTTL       = "WHOLESALE_OFFERS_CACHE_TTL"
	EnvOffersRoundingPlaces = "WHOLESALE_OFFERS_ROUNDING_PLACES"
	EnvOffersMaxCartLines   = "WHOLESALE_OFFERS_MAX_CART_LINES"
	EnvOffersSweepInterval  = "WHOLESALE_OFFERS_SWEEP_INTERVAL"
	EnvOffersSweepLookback  = "WHOLESALE_OFFERS_SWEEP_LOOKBACK"

	EnvCatalogBreakerFailureRatio = "WHOLESALE_CATALOG_BREAKER_FAILURE_RATIO"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
