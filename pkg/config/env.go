package config

const (
	// EnvPrefix is passed to envconfig; every variable carries an explicit name.
	EnvPrefix = "PLASA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DefaultCommissionPercentage = 20

	EnvAppEnv            = "PLASA_APP_ENV"
	EnvPort              = "PLASA_APP_PORT"
	EnvDBDSN             = "PLASA_DB_DSN"
	EnvDBHost            = "PLASA_DB_HOST"
	EnvDBUser            = "PLASA_DB_USER"
	EnvDBName            = "PLASA_DB_NAME"
	EnvRedisURL          = "PLASA_REDIS_URL"
	EnvJWTSecret         = "PLASA_JWT_SECRET"
	EnvJWTIssuer         = "PLASA_JWT_ISSUER"
	EnvDefaultCommission = "PLASA_DEFAULT_COMMISSION_PERCENTAGE"
	EnvCronInterval      = "PLASA_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
