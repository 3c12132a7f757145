package config

// EnvPrefix is passed to envconfig; individual fields carry fully-qualified
// names so the prefix only matters for unqualified lookups.
const EnvPrefix = "TALLYCART"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "TALLYCART_APP_ENV"
	EnvPort     = "TALLYCART_APP_PORT"
	EnvDBDSN    = "TALLYCART_DB_DSN"
	EnvDBHost   = "TALLYCART_DB_HOST"
	EnvDBUser   = "TALLYCART_DB_USER"
	EnvDBName   = "TALLYCART_DB_NAME"
	EnvRedisURL = "TALLYCART_REDIS_URL"

	EnvJWTSecret = "TALLYCART_JWT_SECRET"
	EnvJWTIssuer = "TALLYCART_JWT_ISSUER"

	EnvCartLogEnabled    = "TALLYCART_CART_LOG_ENABLED"
	EnvCartCacheEnabled  = "TALLYCART_CART_CACHE_ENABLED"
	EnvCartCachePrefix   = "TALLYCART_CART_CACHE_KEY_PREFIX"
	EnvCartCacheLifetime = "TALLYCART_CART_CACHE_LIFETIME_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
