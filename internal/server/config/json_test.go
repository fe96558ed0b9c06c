package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":           "www.example:9000",
		"database_driver":     "sqlite",
		"database_dsn":        "omni.db",
		"db_port":             6000,
		"credential_scheme":   "cipher",
		"credential_key":      "k",
		"bcrypt_cost":         12,
		"session_cookie_name": "sid",
		"session_backend":     "redis",
		"redis_url":           "redis://x:1/2",
		"session_ttl":         "30m",
		"cookie_secure":       true,
		"login_rate_limit":    0,
		"log_level":           "warn",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "sqlite", cfg.DatabaseDriver)
		assert.Equal(t, "omni.db", cfg.DatabaseDSN)
		assert.Equal(t, 6000, cfg.DBPort)
		assert.Equal(t, "cipher", cfg.CredentialScheme)
		assert.Equal(t, "k", cfg.CredentialKey)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, "sid", cfg.SessionCookieName)
		assert.Equal(t, "redis", cfg.SessionBackend)
		assert.Equal(t, "redis://x:1/2", cfg.RedisURL)
		assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
		assert.True(t, cfg.CookieSecure)
		assert.Equal(t, 0, cfg.LoginRateLimit, "explicit zero overrides the default")
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "localhost", cfg.DBHost, "absent keys keep defaults")
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{HTTPAddr: "defaults:1234", SessionTTL: 2 * time.Minute}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
		assert.Equal(t, 2*time.Minute, cfg.SessionTTL)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "absent.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
