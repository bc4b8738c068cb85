package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultTokenLifetimeMs is used when AUTH_TOKEN_LIFETIME_MS is not positive.
	DefaultTokenLifetimeMs int64 = 900000
	// DefaultCookieName is used when AUTH_COOKIE_NAME is blank.
	DefaultCookieName = "ACCESS_TOKEN"
	// DefaultFrontendURL is used when APP_FRONTEND_URL is blank.
	DefaultFrontendURL = "http://localhost:3000"

	minSecretLength    = 32
	minTokenLifetimeMs = 1000
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Auth     AuthConfig
	OAuth    OAuthConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	FrontendURL           string
	RequestTimeoutSeconds int
}

// AuthConfig defines access token and cookie parameters.
type AuthConfig struct {
	JWTSecret       string
	TokenLifetimeMs int64
	CookieName      string
	// CookieSecure sets the Secure attribute. Only plain-HTTP local
	// development should turn it off.
	CookieSecure bool
}

// OAuthConfig configures the external identity provider.
type OAuthConfig struct {
	Provider        string
	ClientID        string
	ClientSecret    string
	RedirectURL     string
	Scopes          []string
	AuthURL         string
	TokenURL        string
	UserInfoURL     string
	StateTTLSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level   string
	Service string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "social-login"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			FrontendURL:           os.Getenv("APP_FRONTEND_URL"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Auth: AuthConfig{
			JWTSecret:       os.Getenv("AUTH_JWT_SECRET"),
			TokenLifetimeMs: getEnvAsInt64("AUTH_TOKEN_LIFETIME_MS", DefaultTokenLifetimeMs),
			CookieName:      os.Getenv("AUTH_COOKIE_NAME"),
			CookieSecure:    getEnvAsBool("AUTH_COOKIE_SECURE", true),
		},
		OAuth: OAuthConfig{
			Provider:        getEnv("OAUTH_PROVIDER", "google"),
			ClientID:        os.Getenv("OAUTH_CLIENT_ID"),
			ClientSecret:    os.Getenv("OAUTH_CLIENT_SECRET"),
			RedirectURL:     getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/login/oauth2/code/google"),
			Scopes:          getEnvAsList("OAUTH_SCOPES", []string{"openid", "email", "profile"}),
			AuthURL:         os.Getenv("OAUTH_AUTH_URL"),
			TokenURL:        os.Getenv("OAUTH_TOKEN_URL"),
			UserInfoURL:     os.Getenv("OAUTH_USERINFO_URL"),
			StateTTLSeconds: getEnvAsInt("OAUTH_STATE_TTL_SECONDS", 600),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Service: getEnv("APP_NAME", "social-login"),
		},
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills blank or non-positive values.
func (c *Config) ApplyDefaults() {
	if c.Auth.TokenLifetimeMs <= 0 {
		c.Auth.TokenLifetimeMs = DefaultTokenLifetimeMs
	}
	if strings.TrimSpace(c.Auth.CookieName) == "" {
		c.Auth.CookieName = DefaultCookieName
	}
	if strings.TrimSpace(c.App.FrontendURL) == "" {
		c.App.FrontendURL = DefaultFrontendURL
	}
	if c.OAuth.StateTTLSeconds <= 0 {
		c.OAuth.StateTTLSeconds = 600
	}
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.TokenLifetimeMs > 0 && c.Auth.TokenLifetimeMs < minTokenLifetimeMs {
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_LIFETIME_MS must be at least %d", minTokenLifetimeMs))
	}
	if len(c.Auth.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", minSecretLength))
	}
	if strings.TrimSpace(c.OAuth.ClientID) == "" {
		errs = append(errs, errors.New("OAUTH_CLIENT_ID is required"))
	}
	if strings.TrimSpace(c.OAuth.RedirectURL) == "" {
		errs = append(errs, errors.New("OAUTH_REDIRECT_URL is required"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenLifetime returns the access token lifetime.
func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeMs) * time.Millisecond
}

// StateTTL returns how long an OAuth2 state value stays redeemable.
func (o OAuthConfig) StateTTL() time.Duration {
	return time.Duration(o.StateTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsInt64(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
