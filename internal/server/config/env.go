package config

import "github.com/caarlos0/env/v11"

// LoadEnv overlays every OMNI_* variable that is set. Unset variables leave
// the current value alone.
func LoadEnv(config *Config) error {
	return env.Parse(config)
}

// parseEnv is LoadEnv for server start-up, where a malformed value panics
// like a bad JSON file.
func parseEnv(config *Config) {
	if err := LoadEnv(config); err != nil {
		panic(err)
	}
}
