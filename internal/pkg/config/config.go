package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	MediaProviderS3         = "s3"
	MediaProviderCloudinary = "cloudinary"
)

// Config holds all application configuration.
type Config struct {
	AppPort         string        `env:"APP_PORT" envDefault:"8080"`
	DatabaseURL     string        `env:"DATABASE_URL,required,notEmpty"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Auth  AuthConfig
	Media MediaConfig

	RedisURL        string        `env:"REDIS_URL"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"1m"`
}

// AuthConfig configures verification of identity provider tokens. Exactly
// one of JWTSecret (HS256) or JWTPublicKey (PEM, RS256) is used; the public
// key wins when both are set.
type AuthConfig struct {
	JWTSecret    string `env:"AUTH_JWT_SECRET"`
	JWTPublicKey string `env:"AUTH_JWT_PUBLIC_KEY"`
	JWTIssuer    string `env:"AUTH_JWT_ISSUER"`
}

// MediaConfig selects and configures the external media store.
type MediaConfig struct {
	Provider string `env:"MEDIA_PROVIDER" envDefault:"s3"`

	S3Bucket    string `env:"MEDIA_S3_BUCKET"`
	S3Region    string `env:"MEDIA_S3_REGION"`
	S3Endpoint  string `env:"MEDIA_S3_ENDPOINT"`
	S3PathStyle bool   `env:"MEDIA_S3_PATH_STYLE"`
	// Static credentials are optional; the default AWS chain is used otherwise.
	S3AccessKeyID     string `env:"MEDIA_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"MEDIA_S3_SECRET_ACCESS_KEY"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// .env is optional, mainly for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings env tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" && c.Auth.JWTPublicKey == "" {
		errs = append(errs, errors.New("one of AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY is required"))
	}
	switch c.Media.Provider {
	case MediaProviderS3:
		if c.Media.S3Bucket == "" {
			errs = append(errs, errors.New("MEDIA_S3_BUCKET is required for the s3 media provider"))
		}
	case MediaProviderCloudinary:
		if c.Media.CloudinaryCloudName == "" || c.Media.CloudinaryAPIKey == "" || c.Media.CloudinaryAPISecret == "" {
			errs = append(errs, errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for the cloudinary media provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_PROVIDER %q", c.Media.Provider))
	}
	return errors.Join(errs...)
}
