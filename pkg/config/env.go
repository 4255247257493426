package config

// EnvPrefix is handed to envconfig; every field declares its full variable name.
const EnvPrefix = "ASHASETU"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "ASHASETU_APP_ENV"
	EnvPort     = "ASHASETU_APP_PORT"
	EnvLogLevel = "ASHASETU_LOG_LEVEL"

	EnvDBDSN    = "ASHASETU_DB_DSN"
	EnvDBDriver = "ASHASETU_DB_DRIVER"
	EnvDBHost   = "ASHASETU_DB_HOST"
	EnvDBPort   = "ASHASETU_DB_PORT"
	EnvDBUser   = "ASHASETU_DB_USER"
	EnvDBPass   = "ASHASETU_DB_PASSWORD"
	EnvDBName   = "ASHASETU_DB_NAME"

	EnvRedisURL = "ASHASETU_REDIS_URL"

	EnvJWTSecret  = "ASHASETU_JWT_SECRET"
	EnvJWTIssuer  = "ASHASETU_JWT_ISSUER"
	EnvJWTExpMins = "ASHASETU_JWT_EXPIRATION_MINUTES"

	EnvPasswordAlgorithm  = "ASHASETU_PASSWORD_ALGORITHM"
	EnvPasswordBcryptCost = "ASHASETU_PASSWORD_BCRYPT_COST"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
