package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all recall configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Verify    VerifyConfig    `toml:"verify"`
	Password  PasswordConfig  `toml:"password"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type EmbeddingConfig struct {
	OllamaURL  string `toml:"ollama_url"`
	Model      string `toml:"model"`      // e.g. "nomic-embed-text"
	Dimensions int    `toml:"dimensions"` // fallback hashing embedder dims
}

// VerifyConfig carries the decision thresholds and lockout policy.
// The ordering denied < ambiguous < authorized is enforced by Validate.
type VerifyConfig struct {
	AuthorizedThreshold     float64 `toml:"authorized_threshold"`
	AmbiguousThreshold      float64 `toml:"ambiguous_threshold"`
	MaxAttempts             int     `toml:"max_attempts"`
	LockoutMinutes          int     `toml:"lockout_minutes"`
	ClarificationTTLSeconds int     `toml:"clarification_ttl_seconds"`
}

type PasswordConfig struct {
	MinLength  int `toml:"min_length"`
	MinClasses int `toml:"min_classes"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37710,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Embedding: EmbeddingConfig{
			OllamaURL:  "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 512,
		},
		Verify: VerifyConfig{
			AuthorizedThreshold:     0.80,
			AmbiguousThreshold:      0.65,
			MaxAttempts:             5,
			LockoutMinutes:          10,
			ClarificationTTLSeconds: 300,
		},
		Password: PasswordConfig{
			MinLength:  8,
			MinClasses: 2,
		},
	}
}

// FromEnv returns the default config with RECALL_* environment
// overrides applied.
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv("RECALL_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("RECALL_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("RECALL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("RECALL_OLLAMA_URL"); v != "" {
		cfg.Embedding.OllamaURL = v
	}
	if v := os.Getenv("RECALL_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	return cfg
}

// Validate rejects configurations that would break the decision tiers.
func (c *Config) Validate() error {
	if c.Verify.AmbiguousThreshold >= c.Verify.AuthorizedThreshold {
		return fmt.Errorf("ambiguous threshold %.2f must be below authorized threshold %.2f",
			c.Verify.AmbiguousThreshold, c.Verify.AuthorizedThreshold)
	}
	if c.Verify.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if c.Verify.LockoutMinutes <= 0 {
		return fmt.Errorf("lockout_minutes must be positive")
	}
	if c.Verify.ClarificationTTLSeconds <= 0 {
		return fmt.Errorf("clarification_ttl_seconds must be positive")
	}
	if c.Password.MinLength <= 0 {
		return fmt.Errorf("password min_length must be positive")
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
