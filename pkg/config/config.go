package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every storefront environment variable.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced by tests and deploy tooling.
const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvAPIBaseURL      = "STOREFRONT_API_BASE_URL"
	EnvAPIClientID     = "STOREFRONT_API_CLIENT_ID"
	EnvAPIClientSecret = "STOREFRONT_API_CLIENT_SECRET"
	EnvAPIBuyerID      = "STOREFRONT_API_BUYER_ID"
	EnvSessionDriver   = "STOREFRONT_SESSION_DRIVER"
	EnvSessionPath     = "STOREFRONT_SESSION_PATH"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvMetricsAddr     = "STOREFRONT_METRICS_ADDR"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	Metrics MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the client at a commerce platform tenant.
type APIConfig struct {
	BaseURL      string        `envconfig:"STOREFRONT_API_BASE_URL" required:"true"`
	ClientID     string        `envconfig:"STOREFRONT_API_CLIENT_ID" required:"true"`
	ClientSecret string        `envconfig:"STOREFRONT_API_CLIENT_SECRET"`
	BuyerID      string        `envconfig:"STOREFRONT_API_BUYER_ID"`
	Timeout      time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"30s"`
}

func (a APIConfig) validate() error {
	if !strings.HasPrefix(a.BaseURL, "http://") && !strings.HasPrefix(a.BaseURL, "https://") {
		return fmt.Errorf("api base url must be http(s), got %q", a.BaseURL)
	}
	return nil
}

// NormalizedBaseURL strips the trailing slash the platform rejects on
// concatenated resource paths.
func (a APIConfig) NormalizedBaseURL() string {
	return strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
}

// SessionConfig selects where the active-order id and bearer token live.
type SessionConfig struct {
	Driver string `envconfig:"STOREFRONT_SESSION_DRIVER" default:"sqlite"`
	Path   string `envconfig:"STOREFRONT_SESSION_PATH" default:"storefront.db"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type MetricsConfig struct {
	Addr string `envconfig:"STOREFRONT_METRICS_ADDR"`
}
