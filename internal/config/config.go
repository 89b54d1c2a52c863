// Package config provides configuration loading for metalearnd.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/metalearn/internal/learning"
	"github.com/fyrsmithlabs/metalearn/internal/logging"
)

// Config is the full metalearnd configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  logging.Config `koanf:"logging"`
	Learning LearningConfig `koanf:"learning"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LearningConfig holds learning service settings.
type LearningConfig struct {
	// ConfidenceThreshold is the pattern-matching selection cutoff.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	// MaxUsers caps resident per-user learning states.
	MaxUsers int `koanf:"max_users"`

	// DisableSemanticIndex turns off the embedded semantic example
	// index; semantic similarity then falls back to an exhaustive scan.
	DisableSemanticIndex bool `koanf:"disable_semantic_index"`
}

// applyDefaults fills in missing values.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8520
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Learning.ConfidenceThreshold == 0 {
		cfg.Learning.ConfidenceThreshold = learning.DefaultConfidenceThreshold
	}
	if cfg.Learning.MaxUsers == 0 {
		cfg.Learning.MaxUsers = learning.DefaultMaxUsers
	}
}

// Validate checks configuration bounds.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout must not be negative, got %v", c.Server.ShutdownTimeout)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Learning.ConfidenceThreshold <= 0 || c.Learning.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in (0,1], got %v", c.Learning.ConfidenceThreshold)
	}
	if c.Learning.MaxUsers < 1 {
		return fmt.Errorf("max users must be positive, got %d", c.Learning.MaxUsers)
	}
	return nil
}
