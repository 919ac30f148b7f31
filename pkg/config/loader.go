package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into cfg using `env` struct tags.
//
//	type Config struct {
//	    Port       int               `env:"HTTP_PORT" envDefault:"8080"`
//	    BasePaths  map[string]string `env:"BASE_PATH_OVERRIDES"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadWithPrefix is Load with every variable name prefixed, e.g. "STOREFRONT_".
func LoadWithPrefix(cfg any, prefix string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse config with prefix %s: %w", prefix, err)
	}
	return nil
}

// IsProduction reports whether the environment name denotes production.
func IsProduction(environment string) bool {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "production", "prod":
		return true
	default:
		return false
	}
}
