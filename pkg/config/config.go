package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	S3           S3Config
	Upload       UploadConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CSVVAULT_APP_ENV" required:"true"`
	Port         string `envconfig:"CSVVAULT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CSVVAULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CSVVAULT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsLocal() bool {
	return strings.EqualFold(a.Env, AppEnvLocal)
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || a.IsLocal()
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"CSVVAULT_DB_DSN"`
	SQLitePath string `envconfig:"CSVVAULT_DB_SQLITE_PATH" default:"csvvault.db"`

	LegacyHost     string `envconfig:"CSVVAULT_DB_HOST"`
	LegacyPort     int    `envconfig:"CSVVAULT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CSVVAULT_DB_USER"`
	LegacyPassword string `envconfig:"CSVVAULT_DB_PASSWORD"`
	LegacyName     string `envconfig:"CSVVAULT_DB_NAME"`
	LegacySSLMode  string `envconfig:"CSVVAULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CSVVAULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CSVVAULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CSVVAULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CSVVAULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CSVVAULT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CSVVAULT_REDIS_ADDR"`
	Password     string        `envconfig:"CSVVAULT_REDIS_PASSWORD"`
	DB           int           `envconfig:"CSVVAULT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CSVVAULT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CSVVAULT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CSVVAULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CSVVAULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CSVVAULT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type S3Config struct {
	EndpointURL     string        `envconfig:"CSVVAULT_S3_ENDPOINT_URL" default:"http://localhost:9000"`
	BucketName      string        `envconfig:"CSVVAULT_S3_BUCKET_NAME" default:"csv-files"`
	AccessKeyID     string        `envconfig:"CSVVAULT_AWS_ACCESS_KEY_ID" default:"minioadmin"`
	SecretAccessKey string        `envconfig:"CSVVAULT_AWS_SECRET_ACCESS_KEY" default:"minioadmin"`
	Region          string        `envconfig:"CSVVAULT_AWS_REGION" default:"us-east-1"`
	RequestTimeout  time.Duration `envconfig:"CSVVAULT_S3_REQUEST_TIMEOUT" default:"30s"`
}

type UploadConfig struct {
	MaxUploadMB     int           `envconfig:"CSVVAULT_MAX_UPLOAD_MB" default:"50"`
	RateLimitWindow time.Duration `envconfig:"CSVVAULT_UPLOAD_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerIP  int           `envconfig:"CSVVAULT_UPLOAD_RATE_LIMIT_IP_LIMIT" default:"30"`
}

// MaxUploadBytes returns the configured upload ceiling in bytes.
func (u UploadConfig) MaxUploadBytes() int64 {
	if u.MaxUploadMB <= 0 {
		return 0
	}
	return int64(u.MaxUploadMB) << 20
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CSVVAULT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CSVVAULT_AUTO_MIGRATE" default:"false"`
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
