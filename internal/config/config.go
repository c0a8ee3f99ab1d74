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

// Authentication strategies selectable through AUTH_MODE.
const (
	AuthModeLocal   = "local"
	AuthModeCognito = "cognito"
)

// DevJWTSecret is the fallback signing secret used outside production.
const DevJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Cognito      CognitoConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	Mode                  string
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	RefreshCookieName     string
	RefreshCookieSecure   bool
	SeedDefaultAdmin      bool
	DefaultAdminUsername  string
	DefaultAdminEmail     string
	DefaultAdminPassword  string
	LoginRatePerMinute    int
	LoginBurst            int
}

// CognitoConfig points the identity provider adapter at a user pool.
type CognitoConfig struct {
	Region                string
	UserPoolID            string
	AppClientID           string
	Endpoint              string
	TimeoutSeconds        int
	JWKSMinRefreshSeconds int
	GroupCacheTTLSeconds  int
	GroupCacheSize        int
}

// NotificationConfig holds the fan-out channel for realtime notifications.
type NotificationConfig struct {
	Channel string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "centralized-delivery-platform"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			Mode:                  strings.ToLower(getEnv("AUTH_MODE", AuthModeLocal)),
			JWTSecret:             getEnv("AUTH_JWT_SECRET", DevJWTSecret),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 15),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			RefreshCookieName:     getEnv("AUTH_REFRESH_COOKIE_NAME", "refresh_token"),
			RefreshCookieSecure:   getEnvAsBool("AUTH_REFRESH_COOKIE_SECURE", env == "production"),
			SeedDefaultAdmin:      getEnvAsBool("AUTH_SEED_DEFAULT_ADMIN", env != "production"),
			DefaultAdminUsername:  getEnv("AUTH_DEFAULT_ADMIN_USERNAME", "admin"),
			DefaultAdminEmail:     getEnv("AUTH_DEFAULT_ADMIN_EMAIL", "admin@delivery-platform.com"),
			DefaultAdminPassword:  getEnv("AUTH_DEFAULT_ADMIN_PASSWORD", "admin123"),
			LoginRatePerMinute:    getEnvAsInt("AUTH_LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:            getEnvAsInt("AUTH_LOGIN_BURST", 5),
		},
		Cognito: CognitoConfig{
			Region:                getEnv("COGNITO_REGION", "us-east-1"),
			UserPoolID:            os.Getenv("COGNITO_USER_POOL_ID"),
			AppClientID:           os.Getenv("COGNITO_APP_CLIENT_ID"),
			Endpoint:              os.Getenv("COGNITO_ENDPOINT"),
			TimeoutSeconds:        getEnvAsInt("COGNITO_TIMEOUT_SECONDS", 5),
			JWKSMinRefreshSeconds: getEnvAsInt("COGNITO_JWKS_MIN_REFRESH_SECONDS", 60),
			GroupCacheTTLSeconds:  getEnvAsInt("COGNITO_GROUP_CACHE_TTL_SECONDS", 60),
			GroupCacheSize:        getEnvAsInt("COGNITO_GROUP_CACHE_SIZE", 1024),
		},
		Notification: NotificationConfig{
			Channel: getEnv("NOTIFY_REDIS_CHANNEL", "delivery:notifications"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeLocal:
		if strings.TrimSpace(c.Auth.JWTSecret) == "" {
			return errors.New("AUTH_JWT_SECRET is required in local auth mode")
		}
		if c.App.IsProduction() && c.Auth.JWTSecret == DevJWTSecret {
			return errors.New("AUTH_JWT_SECRET must be set in production")
		}
	case AuthModeCognito:
		if c.Cognito.UserPoolID == "" || c.Cognito.AppClientID == "" {
			return errors.New("COGNITO_USER_POOL_ID and COGNITO_APP_CLIENT_ID are required in cognito auth mode")
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q", c.Auth.Mode)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production defaults.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of locally issued access tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// Issuer is the iss claim Cognito stamps on tokens from this pool.
func (c CognitoConfig) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// JWKSURL is where the pool publishes its signing keys.
func (c CognitoConfig) JWKSURL() string {
	return c.Issuer() + "/.well-known/jwks.json"
}

// Timeout bounds every call to the identity provider.
func (c CognitoConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c CognitoConfig) JWKSMinRefresh() time.Duration {
	return time.Duration(c.JWKSMinRefreshSeconds) * time.Second
}

func (c CognitoConfig) GroupCacheTTL() time.Duration {
	return time.Duration(c.GroupCacheTTLSeconds) * time.Second
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
