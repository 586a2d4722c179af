package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "userhub"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	JWT          JWTConfig
	Password     PasswordConfig
	CORS         CORSConfig
	Server       ServerConfig
	Avatars      AvatarStorageConfig
	FeatureFlags FeatureFlagsConfig
	SeedAdmin    SeedAdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Avatars.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"USERHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"USERHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"USERHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"USERHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"USERHUB_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"USERHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"USERHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"USERHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"USERHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type JWTConfig struct {
	Secret            string `envconfig:"USERHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"USERHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"USERHUB_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	BcryptCost int `envconfig:"USERHUB_BCRYPT_COST" default:"10"`
}

type CORSConfig struct {
	AllowedOrigin string `envconfig:"USERHUB_CORS_ORIGIN" default:"http://localhost:3000"`
}

type ServerConfig struct {
	// RequestTimeout bounds a single handler's wall-clock work; zero disables
	// the timeout middleware.
	RequestTimeout time.Duration `envconfig:"USERHUB_REQUEST_TIMEOUT" default:"0"`
}

const (
	AvatarStorageDisk = "disk"
	AvatarStorageGCS  = "gcs"
)

type AvatarStorageConfig struct {
	Mode string `envconfig:"USERHUB_AVATAR_STORAGE_MODE" default:"disk"`

	DiskDir string `envconfig:"USERHUB_AVATAR_DISK_DIR" default:"public/avatars"`

	GCSBucket              string `envconfig:"USERHUB_AVATAR_GCS_BUCKET"`
	CredentialsJSON        string `envconfig:"USERHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"USERHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

func (a AvatarStorageConfig) validate() error {
	switch a.Mode {
	case AvatarStorageDisk:
		if a.DiskDir == "" {
			return fmt.Errorf("avatar disk dir is required in disk mode")
		}
	case AvatarStorageGCS:
		if a.GCSBucket == "" {
			return fmt.Errorf("avatar gcs bucket is required in gcs mode")
		}
	default:
		return fmt.Errorf("unknown avatar storage mode %q", a.Mode)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"USERHUB_AUTO_MIGRATE" default:"false"`
}

// SeedAdminConfig optionally bootstraps the first admin account outside prod.
type SeedAdminConfig struct {
	Name     string `envconfig:"USERHUB_SEED_ADMIN_NAME"`
	Email    string `envconfig:"USERHUB_SEED_ADMIN_EMAIL"`
	Password string `envconfig:"USERHUB_SEED_ADMIN_PASSWORD"`
}

func (s SeedAdminConfig) Enabled() bool {
	return s.Name != "" && s.Password != "" && s.Email != ""
}
