package config

// EnvPrefix is empty because every envconfig tag carries the full
// CSVVAULT_ name already.
const EnvPrefix = ""

const (
	AppEnvLocal = "local"
	AppEnvDev   = "dev"
	AppEnvProd  = "prod"
)

const (
	EnvAppEnv   = "CSVVAULT_APP_ENV"
	EnvAppPort  = "CSVVAULT_APP_PORT"
	EnvDBDSN    = "CSVVAULT_DB_DSN"
	EnvDBHost   = "CSVVAULT_DB_HOST"
	EnvDBUser   = "CSVVAULT_DB_USER"
	EnvDBName   = "CSVVAULT_DB_NAME"
	EnvRedisURL = "CSVVAULT_REDIS_URL"
	EnvS3Bucket = "CSVVAULT_S3_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
