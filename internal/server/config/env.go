package config

import (
	"github.com/caarlos0/env/v11"
)

// envParse is a seam for tests.
var envParse = env.Parse

// parseEnv overlays COUNCIL_* environment variables. Variables that are not
// set leave the current value untouched. Malformed values panic, same as a
// malformed JSON file.
func parseEnv(config *Config) {
	if err := envParse(config); err != nil {
		panic(err)
	}
}
