package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	InitSchema       bool
}

// AuthConfig holds the token issuer settings used to verify bearer tokens.
type AuthConfig struct {
	Domain   string // Issuer tenant domain (e.g. my-tenant.us.auth0.com)
	Audience string // Expected "aud" value
	Issuer   string // Expected "iss" value; derived from Domain when empty
	JWKSURL  string // Key set endpoint; derived from Domain when empty

	Algorithms   []string      // Accepted "alg" header values
	Leeway       time.Duration // Clock skew tolerance for exp/nbf/iat
	HTTPTimeout  time.Duration // Bound on a single key set fetch
	CacheTTL     time.Duration // 0 means refresh on unknown kid only
	PrimeOnStart bool          // Fetch the key set once during startup
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
	MetricsPath    string
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	environment := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Environment: environment,
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: loadDatabaseConfig(environment),
		Auth:     loadAuthConfig(),
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPath:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.IsProduction() {
		if c.Auth.JWKSURL == "" {
			return fmt.Errorf("AUTH0_DOMAIN or AUTH_JWKS_URL is required in production")
		}
		if c.Auth.Issuer == "" {
			return fmt.Errorf("AUTH0_DOMAIN or AUTH_ISSUER is required in production")
		}
		if c.Auth.Audience == "" {
			return fmt.Errorf("API_AUDIENCE is required in production")
		}
	}

	if c.Auth.JWKSURL != "" && c.Auth.Issuer == "" {
		return fmt.Errorf("AUTH_ISSUER is required when a JWKS URL is configured")
	}

	if c.Auth.Issuer != "" && c.Auth.Audience == "" {
		return fmt.Errorf("API_AUDIENCE is required when an issuer is configured")
	}
	if len(c.Auth.Algorithms) == 0 {
		return fmt.Errorf("at least one signing algorithm must be allowed")
	}
	for _, alg := range c.Auth.Algorithms {
		if strings.EqualFold(alg, "none") {
			return fmt.Errorf("signing algorithm %q cannot be allowed", alg)
		}
	}
	if c.Auth.Leeway < 0 || c.Auth.Leeway > 5*time.Minute {
		return fmt.Errorf("auth leeway must be between 0 and 5m")
	}
	if c.Auth.HTTPTimeout <= 0 {
		return fmt.Errorf("auth JWKS timeout must be positive")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Enabled reports whether enough settings are present to verify tokens.
func (a *AuthConfig) Enabled() bool {
	return a.JWKSURL != "" && a.Issuer != "" && a.Audience != ""
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func loadDatabaseConfig(environment string) DatabaseConfig {
	initDefault := environment == "development" || environment == "dev"
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			InitSchema:       getEnvAsBool("DB_INIT_SCHEMA", initDefault),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "casting_agency"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		InitSchema:      getEnvAsBool("DB_INIT_SCHEMA", initDefault),
	}
}

// loadAuthConfig derives issuer and JWKS endpoint from AUTH0_DOMAIN unless
// they are set explicitly.
func loadAuthConfig() AuthConfig {
	domain := strings.TrimSuffix(strings.TrimPrefix(getEnv("AUTH0_DOMAIN", ""), "https://"), "/")

	issuer := getEnv("AUTH_ISSUER", "")
	jwksURL := getEnv("AUTH_JWKS_URL", "")
	if domain != "" {
		if issuer == "" {
			issuer = fmt.Sprintf("https://%s/", domain)
		}
		if jwksURL == "" {
			jwksURL = fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
		}
	}

	return AuthConfig{
		Domain:       domain,
		Audience:     getEnv("API_AUDIENCE", ""),
		Issuer:       issuer,
		JWKSURL:      jwksURL,
		Algorithms:   getEnvAsList("AUTH_ALGORITHMS", []string{"RS256"}),
		Leeway:       getEnvAsDuration("AUTH_LEEWAY", 0),
		HTTPTimeout:  getEnvAsDuration("AUTH_JWKS_TIMEOUT", 5*time.Second),
		CacheTTL:     getEnvAsDuration("AUTH_JWKS_CACHE_TTL", 0),
		PrimeOnStart: getEnvAsBool("AUTH_JWKS_PRIME", false),
	}
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 5000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 5000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
