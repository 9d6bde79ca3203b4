package config

import (
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := Default()
	cfg.Verify.AmbiguousThreshold = 0.9
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for inverted thresholds")
	}

	cfg = Default()
	cfg.Verify.AmbiguousThreshold = cfg.Verify.AuthorizedThreshold
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for equal thresholds")
	}
}

func TestValidateRejectsBadLimits(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Verify.MaxAttempts = 0 },
		func(c *Config) { c.Verify.LockoutMinutes = -1 },
		func(c *Config) { c.Verify.ClarificationTTLSeconds = 0 },
		func(c *Config) { c.Password.MinLength = 0 },
	} {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error")
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("RECALL_DB", "/tmp/test-recall.db")
	t.Setenv("RECALL_PORT", "9999")
	t.Setenv("RECALL_EMBED_MODEL", "all-minilm")

	cfg := FromEnv()
	if cfg.Database.Path != "/tmp/test-recall.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Embedding.Model != "all-minilm" {
		t.Errorf("model = %q, want all-minilm", cfg.Embedding.Model)
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.Bind = "0.0.0.0"
	cfg.Server.Port = 8080
	if got := cfg.ListenAddr(); got != "0.0.0.0:8080" {
		t.Errorf("ListenAddr = %q, want 0.0.0.0:8080", got)
	}
}
