package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 5000, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "casting_agency", cfg.Database.Database)
				assert.True(t, cfg.Database.InitSchema)
				assert.Equal(t, []string{"RS256"}, cfg.Auth.Algorithms)
				assert.Equal(t, 5*time.Second, cfg.Auth.HTTPTimeout)
				assert.Zero(t, cfg.Auth.CacheTTL)
				assert.False(t, cfg.Auth.Enabled())
			},
		},
		{
			name: "auth settings derived from domain",
			envVars: map[string]string{
				"AUTH0_DOMAIN": "https://casting.us.auth0.com/",
				"API_AUDIENCE": "casting",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "casting.us.auth0.com", cfg.Auth.Domain)
				assert.Equal(t, "https://casting.us.auth0.com/", cfg.Auth.Issuer)
				assert.Equal(t, "https://casting.us.auth0.com/.well-known/jwks.json", cfg.Auth.JWKSURL)
				assert.True(t, cfg.Auth.Enabled())
			},
		},
		{
			name: "explicit issuer and jwks url win over domain",
			envVars: map[string]string{
				"AUTH0_DOMAIN":        "casting.us.auth0.com",
				"AUTH_ISSUER":         "https://issuer.example.com/",
				"AUTH_JWKS_URL":       "https://keys.example.com/jwks.json",
				"API_AUDIENCE":        "casting",
				"AUTH_ALGORITHMS":     "RS256, ES256",
				"AUTH_LEEWAY":         "30s",
				"AUTH_JWKS_CACHE_TTL": "10m",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://issuer.example.com/", cfg.Auth.Issuer)
				assert.Equal(t, "https://keys.example.com/jwks.json", cfg.Auth.JWKSURL)
				assert.Equal(t, []string{"RS256", "ES256"}, cfg.Auth.Algorithms)
				assert.Equal(t, 30*time.Second, cfg.Auth.Leeway)
				assert.Equal(t, 10*time.Minute, cfg.Auth.CacheTTL)
			},
		},
		{
			name: "database url takes precedence",
			envVars: map[string]string{
				"ENVIRONMENT":    "staging",
				"DATABASE_URL":   "postgres://u:p@db.internal:6543/casting",
				"DB_INIT_SCHEMA": "true",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://u:p@db.internal:6543/casting", cfg.Database.DSN())
				assert.Equal(t, "host=db.internal port=6543 database=casting", cfg.Database.LogString())
				assert.True(t, cfg.Database.InitSchema)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "9443",
				"SERVER_PORT": "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name: "custom timeouts and pool settings",
			envVars: map[string]string{
				"SERVER_READ_TIMEOUT":  "60s",
				"SERVER_WRITE_TIMEOUT": "90s",
				"DB_MAX_OPEN_CONNS":    "50",
				"DB_MAX_IDLE_CONNS":    "10",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 50, cfg.Database.MaxOpenConns)
				assert.Equal(t, 10, cfg.Database.MaxIdleConns)
			},
		},
		{
			name: "production without auth config",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
			},
			wantErr: true,
		},
		{
			name: "production without audience",
			envVars: map[string]string{
				"ENVIRONMENT":  "production",
				"AUTH0_DOMAIN": "casting.us.auth0.com",
			},
			wantErr: true,
		},
		{
			name: "production without issuer",
			envVars: map[string]string{
				"ENVIRONMENT":   "production",
				"AUTH_JWKS_URL": "https://keys.example.com/jwks.json",
				"API_AUDIENCE":  "casting-agency",
			},
			wantErr: true,
		},
		{
			name: "none algorithm is refused",
			envVars: map[string]string{
				"AUTH_ALGORITHMS": "RS256,none",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validAuth() AuthConfig {
	return AuthConfig{
		Algorithms:  []string{"RS256"},
		HTTPTimeout: 5 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid development config",
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: true,
			errMsg:  "database configuration required",
		},
		{
			name:    "missing database user",
			mutate:  func(c *Config) { c.Database.User = "" },
			wantErr: true,
			errMsg:  "database user is required",
		},
		{
			name:    "issuer without audience",
			mutate:  func(c *Config) { c.Auth.Issuer = "https://issuer/" },
			wantErr: true,
			errMsg:  "API_AUDIENCE",
		},
		{
			name:    "jwks url without issuer",
			mutate:  func(c *Config) { c.Auth.JWKSURL = "https://keys.example.com/jwks.json" },
			wantErr: true,
			errMsg:  "AUTH_ISSUER",
		},
		{
			name: "production with key set but no issuer",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Auth.JWKSURL = "https://keys.example.com/jwks.json"
				c.Auth.Audience = "casting-agency"
			},
			wantErr: true,
			errMsg:  "AUTH_ISSUER",
		},
		{
			name:    "no algorithms",
			mutate:  func(c *Config) { c.Auth.Algorithms = nil },
			wantErr: true,
			errMsg:  "signing algorithm",
		},
		{
			name:    "negative leeway",
			mutate:  func(c *Config) { c.Auth.Leeway = -time.Second },
			wantErr: true,
			errMsg:  "leeway",
		},
		{
			name:    "zero jwks timeout",
			mutate:  func(c *Config) { c.Auth.HTTPTimeout = 0 },
			wantErr: true,
			errMsg:  "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Environment: "development",
				Database: DatabaseConfig{
					Host:     "localhost",
					User:     "user",
					Database: "db",
				},
				Auth: validAuth(),
				Observability: ObservabilityConfig{
					LogLevel: "info",
				},
			}
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, cfg.DSN())
	assert.NotContains(t, cfg.LogString(), "testpass")
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "0.0.0.0", Port: 5000}
	assert.Equal(t, "0.0.0.0:5000", cfg.Address())
}

func TestGetEnvAsList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"single", "RS256", []string{"RS256"}},
		{"trims spaces", " RS256 , ES256 ", []string{"RS256", "ES256"}},
		{"only separators", " , ,", []string{"default"}},
		{"empty", "", []string{"default"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_LIST", tt.value)
			}
			assert.Equal(t, tt.want, getEnvAsList("TEST_LIST", []string{"default"}))
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"empty value", "", true, true},
		{"invalid bool", "not-a-bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_BOOL", tt.value)
			}
			assert.Equal(t, tt.want, getEnvAsBool("TEST_BOOL", tt.defaultValue))
		})
	}
}
