package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/omniguard/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   database DSN
//	-t string   database driver: postgres or sqlite
//	-s string   credential scheme: bcrypt or cipher
//	-k string   base64 AES-256 key for the cipher scheme
//	-b string   session backend: memory or redis
//	-r string   redis URL for the redis session backend
//	-l string   log level: debug, info, warn, error
//
// os.Args is first filtered with flagx.FilterArgs so flags meant for other
// components (such as -c for the JSON file) do not cause errors.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t", "-s", "-k", "-b", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseDriver, "t", config.DatabaseDriver, "database driver (postgres, sqlite)")
	fs.StringVar(&config.CredentialScheme, "s", config.CredentialScheme, "credential scheme (bcrypt, cipher)")
	fs.StringVar(&config.CredentialKey, "k", config.CredentialKey, "credential key for the cipher scheme")
	fs.StringVar(&config.SessionBackend, "b", config.SessionBackend, "session backend (memory, redis)")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
