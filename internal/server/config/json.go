package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/omniguard/internal/flagx"
	"github.com/dmitrijs2005/omniguard/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations are
// timex.Duration so both "24h" and integer nanoseconds are accepted. Pointer
// fields distinguish "absent" from the zero value.
type JsonConfig struct {
	HTTPAddr          *string         `json:"http_addr"`
	DatabaseDriver    *string         `json:"database_driver"`
	DatabaseDSN       *string         `json:"database_dsn"`
	DBHost            *string         `json:"db_host"`
	DBPort            *int            `json:"db_port"`
	DBUser            *string         `json:"db_user"`
	DBPassword        *string         `json:"db_password"`
	DBName            *string         `json:"db_name"`
	CredentialScheme  *string         `json:"credential_scheme"`
	CredentialKey     *string         `json:"credential_key"`
	BcryptCost        *int            `json:"bcrypt_cost"`
	SessionCookieName *string         `json:"session_cookie_name"`
	SessionBackend    *string         `json:"session_backend"`
	RedisURL          *string         `json:"redis_url"`
	SessionTTL        *timex.Duration `json:"session_ttl"`
	CookieSecure      *bool           `json:"cookie_secure"`
	LoginRateLimit    *int            `json:"login_rate_limit"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag. Without the flag nothing is loaded. An unreadable file or
// invalid JSON panics. Only keys present in the file override config.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (c *JsonConfig) apply(config *Config) {
	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.DatabaseDriver, c.DatabaseDriver)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.DBHost, c.DBHost)
	set(&config.DBPort, c.DBPort)
	set(&config.DBUser, c.DBUser)
	set(&config.DBPassword, c.DBPassword)
	set(&config.DBName, c.DBName)
	set(&config.CredentialScheme, c.CredentialScheme)
	set(&config.CredentialKey, c.CredentialKey)
	set(&config.BcryptCost, c.BcryptCost)
	set(&config.SessionCookieName, c.SessionCookieName)
	set(&config.SessionBackend, c.SessionBackend)
	set(&config.RedisURL, c.RedisURL)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	set(&config.CookieSecure, c.CookieSecure)
	set(&config.LoginRateLimit, c.LoginRateLimit)
	set(&config.LogLevel, c.LogLevel)
}
