// Package config handles configuration for the server component: defaults,
// then an optional JSON file, then OMNI_* environment variables, then
// command-line flags.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/omniguard/internal/common"
)

// Config holds runtime settings for the OmniGuard server.
//
// Database settings accept either a full DatabaseDSN or the discrete DB*
// parts, which DSN assembles into a PostgreSQL URL. For sqlite, DBName is the
// database file path.
type Config struct {
	HTTPAddr string `env:"OMNI_HTTP_ADDR"`

	DatabaseDriver string `env:"OMNI_DB_DRIVER"`
	DatabaseDSN    string `env:"OMNI_DATABASE_DSN"`
	DBHost         string `env:"OMNI_DB_HOST"`
	DBPort         int    `env:"OMNI_DB_PORT"`
	DBUser         string `env:"OMNI_DB_USER"`
	DBPassword     string `env:"OMNI_DB_PASSWORD"`
	DBName         string `env:"OMNI_DB_NAME"`

	CredentialScheme string `env:"OMNI_CREDENTIAL_SCHEME"`
	CredentialKey    string `env:"OMNI_CREDENTIAL_KEY"`
	BcryptCost       int    `env:"OMNI_BCRYPT_COST"`

	SessionCookieName string        `env:"OMNI_SESSION_COOKIE"`
	SessionBackend    string        `env:"OMNI_SESSION_BACKEND"`
	RedisURL          string        `env:"OMNI_REDIS_URL"`
	SessionTTL        time.Duration `env:"OMNI_SESSION_TTL"`
	CookieSecure      bool          `env:"OMNI_COOKIE_SECURE"`

	// LoginRateLimit is the number of login attempts allowed per client
	// address per minute; 0 disables throttling.
	LoginRateLimit int `env:"OMNI_LOGIN_RATE_LIMIT"`

	LogLevel string `env:"OMNI_LOG_LEVEL"`
}

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// LoadDefaults populates Config with development defaults.
// NOTE: the database password default is insecure and must be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5000"
	c.DatabaseDriver = "postgres"
	c.DatabaseDSN = ""
	c.DBHost = "localhost"
	c.DBPort = 5432
	c.DBUser = "postgres"
	c.DBPassword = "postgres"
	c.DBName = "omniguard"
	c.CredentialScheme = "bcrypt"
	c.CredentialKey = ""
	c.BcryptCost = 10
	c.SessionCookieName = common.SessionCookieName
	c.SessionBackend = SessionBackendMemory
	c.RedisURL = "redis://localhost:6379/0"
	c.SessionTTL = 24 * time.Hour
	c.CookieSecure = false
	c.LoginRateLimit = 5
	c.LogLevel = "info"
}

// DSN returns DatabaseDSN when set, otherwise a DSN built from the discrete
// parts for the configured driver.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}

	switch strings.ToLower(c.DatabaseDriver) {
	case "sqlite", "sqlite3":
		return c.DBName
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http address is empty")
	}
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
	if c.SessionBackend == SessionBackendRedis && c.RedisURL == "" {
		return fmt.Errorf("session backend redis needs a redis url")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.SessionCookieName == "" {
		return fmt.Errorf("session cookie name is empty")
	}
	if c.LoginRateLimit < 0 {
		return fmt.Errorf("login rate limit must not be negative")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
