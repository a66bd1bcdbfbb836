// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Store    StoreConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Auth     AuthConfig
	Search   SearchConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envDefault:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for the postgres driver.
	// DB_URL is accepted as an alias.
	URL string `env:"DATABASE_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" envDefault:"20"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" envDefault:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`

	// MigrateOnStart applies pending migrations when the server starts (default: true)
	MigrateOnStart bool `env:"DB_MIGRATE_ON_START" envDefault:"true"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is "postgres" or "memory" (default: postgres)
	Driver string `env:"STORE_DRIVER" envDefault:"postgres"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted CSV size in bytes (default: 5MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" envDefault:"5242880"`

	// MaxConcurrent is the maximum number of imports running at once (default: 3)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" envDefault:"3"`

	// MaxWaitTime is how long an import waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" envDefault:"30s"`

	// Timeout bounds a single import run (default: 5m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" envDefault:"5m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" envDefault:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" envDefault:"true"`
}

// AuthConfig holds session token and bootstrap account settings.
type AuthConfig struct {
	// JWTSecret signs session tokens (required, at least 32 bytes)
	JWTSecret string `env:"AUTH_JWT_SECRET"`

	// TokenTTL is how long a session token stays valid (default: 12h)
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"12h"`

	// CookieName is the session cookie set on login (default: parts_session)
	CookieName string `env:"AUTH_COOKIE_NAME" envDefault:"parts_session"`

	// SecureCookie marks the session cookie Secure (default: false)
	SecureCookie bool `env:"AUTH_SECURE_COOKIE" envDefault:"false"`

	// BootstrapAdminUser is created as an administrator at startup if missing.
	BootstrapAdminUser string `env:"AUTH_BOOTSTRAP_ADMIN_USER"`

	// BootstrapAdminPassword is the password for BootstrapAdminUser.
	BootstrapAdminPassword string `env:"AUTH_BOOTSTRAP_ADMIN_PASSWORD"`
}

// SearchConfig holds advanced search settings.
type SearchConfig struct {
	// DefaultPageSize applies when a request does not name a page size (default: 20)
	DefaultPageSize int `env:"SEARCH_DEFAULT_PAGE_SIZE" envDefault:"20"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	// Enabled mounts the metrics middleware and endpoint (default: true)
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Path is where metrics are served (default: /metrics)
	Path string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
