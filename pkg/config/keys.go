package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "LICENCIAS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv    = "LICENCIAS_APP_ENV"
	EnvPort      = "LICENCIAS_APP_PORT"
	EnvDBDSN     = "LICENCIAS_DB_DSN"
	EnvDBHost    = "LICENCIAS_DB_HOST"
	EnvDBUser    = "LICENCIAS_DB_USER"
	EnvDBName    = "LICENCIAS_DB_NAME"
	EnvRedisURL  = "LICENCIAS_REDIS_URL"
	EnvJWTSecret = "LICENCIAS_JWT_SECRET"
	EnvJWTIssuer = "LICENCIAS_JWT_ISSUER"

	EnvJWTExpMins             = "LICENCIAS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "LICENCIAS_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID      = "LICENCIAS_GCP_PROJECT_ID"
	EnvGCSBucket         = "LICENCIAS_GCS_BUCKET_NAME"
	EnvGCSUploadExpiry   = "LICENCIAS_GCS_UPLOAD_URL_EXPIRY"
	EnvGCSDownloadExpiry = "LICENCIAS_GCS_DOWNLOAD_URL_EXPIRY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
