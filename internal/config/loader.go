package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, LEARNING_MAX_USERS, etc.)
//  2. YAML config file
//  3. Hardcoded defaults
//
// A missing config file is not an error; defaults and environment
// variables apply. Files larger than 1MB are rejected.
//
// Environment variables use an underscore separator and are uppercased.
// The transformer splits on the first underscore only, so compound field
// names survive:
//
//	SERVER_SHUTDOWN_TIMEOUT   -> server.shutdown_timeout
//	LEARNING_MAX_USERS        -> learning.max_users
//	LOGGING_FORMAT            -> logging.format
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil {
			if info.Size() > maxConfigFileSize {
				return nil, fmt.Errorf("config file %s exceeds %d bytes", configPath, maxConfigFileSize)
			}
			content, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
