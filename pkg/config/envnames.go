package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "LOGISCAN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "LOGISCAN_APP_ENV"
	EnvPort     = "LOGISCAN_APP_PORT"
	EnvDBDSN    = "LOGISCAN_DB_DSN"
	EnvDBHost   = "LOGISCAN_DB_HOST"
	EnvDBUser   = "LOGISCAN_DB_USER"
	EnvDBName   = "LOGISCAN_DB_NAME"
	EnvRedisURL = "LOGISCAN_REDIS_URL"

	EnvJWTSecret  = "LOGISCAN_JWT_SECRET"
	EnvJWTIssuer  = "LOGISCAN_JWT_ISSUER"
	EnvJWTExpMins = "LOGISCAN_JWT_EXPIRATION_MINUTES"

	EnvBridgeURL     = "LOGISCAN_BRIDGE_MAIN_BACKEND_URL"
	EnvBridgeAPIKey  = "LOGISCAN_BRIDGE_API_KEY"
	EnvBridgeTimeout = "LOGISCAN_BRIDGE_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
