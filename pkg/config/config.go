package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Evidence      EvidenceConfig
	Retry         RetryConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LICENCIAS_APP_ENV" required:"true"`
	Port         string `envconfig:"LICENCIAS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LICENCIAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LICENCIAS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LICENCIAS_DB_DSN"`
	Driver string `envconfig:"LICENCIAS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LICENCIAS_DB_HOST"`
	LegacyPort     int    `envconfig:"LICENCIAS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LICENCIAS_DB_USER"`
	LegacyPassword string `envconfig:"LICENCIAS_DB_PASSWORD"`
	LegacyName     string `envconfig:"LICENCIAS_DB_NAME"`
	LegacySSLMode  string `envconfig:"LICENCIAS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LICENCIAS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LICENCIAS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LICENCIAS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LICENCIAS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LICENCIAS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LICENCIAS_REDIS_ADDR"`
	Password     string        `envconfig:"LICENCIAS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LICENCIAS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LICENCIAS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LICENCIAS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LICENCIAS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LICENCIAS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LICENCIAS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LICENCIAS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LICENCIAS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LICENCIAS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LICENCIAS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LICENCIAS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LICENCIAS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LICENCIAS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LICENCIAS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LICENCIAS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"LICENCIAS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"LICENCIAS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"LICENCIAS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"LICENCIAS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"LICENCIAS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"LICENCIAS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LICENCIAS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"LICENCIAS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LICENCIAS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"LICENCIAS_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"LICENCIAS_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"LICENCIAS_GCS_DOWNLOAD_URL_EXPIRY" default:"24h"`
	AccessMode        string        `envconfig:"LICENCIAS_GCS_ACCESS_MODE" default:"signed"`
}

type EvidenceConfig struct {
	MaxUploadMB int `envconfig:"LICENCIAS_EVIDENCE_MAX_UPLOAD_MB" default:"20"`
}

// MaxUploadBytes converts the configured megabyte cap to bytes.
func (e EvidenceConfig) MaxUploadBytes() int64 {
	if e.MaxUploadMB <= 0 {
		return 0
	}
	return int64(e.MaxUploadMB) * 1024 * 1024
}

// RetryConfig is the single retry policy shared by the radicado generator
// and the evidence adapter.
type RetryConfig struct {
	MaxAttempts uint64        `envconfig:"LICENCIAS_RETRY_MAX_ATTEMPTS" default:"5"`
	BaseBackoff time.Duration `envconfig:"LICENCIAS_RETRY_BASE_BACKOFF" default:"50ms"`
	MaxBackoff  time.Duration `envconfig:"LICENCIAS_RETRY_MAX_BACKOFF" default:"2s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LICENCIAS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
