package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabasePath string `envconfig:"IVD_DATABASE_PATH" default:"database/ivd_monitor.db"`

	// CompaniesPath overrides the embedded company dataset when set.
	CompaniesPath string `envconfig:"IVD_COMPANIES_PATH" default:""`
	// RulesPath points at an optional YAML file with custom classifier rules.
	RulesPath string `envconfig:"IVD_RULES_PATH" default:""`
	// MatcherRulesPath points at an optional YAML file with matcher pattern
	// overrides and blacklist terms.
	MatcherRulesPath string `envconfig:"IVD_MATCHER_RULES_PATH" default:""`

	FuzzyCutoff int `envconfig:"IVD_FUZZY_CUTOFF" default:"90"`

	HTTPHost string `envconfig:"IVD_HTTP_HOST" default:"127.0.0.1"`
	HTTPPort int    `envconfig:"IVD_HTTP_PORT" default:"8090"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("IVD_DATABASE_PATH is required")
	}
	if c.FuzzyCutoff < 1 || c.FuzzyCutoff > 100 {
		return fmt.Errorf("IVD_FUZZY_CUTOFF must be between 1 and 100")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("IVD_HTTP_PORT must be a valid port")
	}
	return nil
}
