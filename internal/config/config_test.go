// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validBase returns a default config patched to pass validation.
func validBase() *Config {
	cfg := defaultConfig()
	cfg.Classroom.BaseURL = "https://classroom.example.com"
	return cfg
}

func TestDefaultsAreValidOnceBaseURLSet(t *testing.T) {
	if err := validBase().Validate(); err != nil {
		t.Fatalf("defaults with base URL should validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.Classroom.BaseURL = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"negative retries", func(c *Config) { c.Sync.RetryAttempts = -1 }},
		{"backoff below one", func(c *Config) { c.Sync.RetryBackoffMultiplier = 0.5 }},
		{"zero course window", func(c *Config) { c.Sync.CourseWindow = 0 }},
		{"zero call timeout", func(c *Config) { c.Sync.CallTimeout = 0 }},
		{"zero rate window", func(c *Config) { c.RateLimit.Window = 0 }},
		{"zero full sync limit", func(c *Config) { c.RateLimit.FullSyncLimit = 0 }},
		{"zero snapshot ttl", func(c *Config) { c.Snapshot.TTL = 0 }},
		{"zero pace", func(c *Config) { c.Classroom.RequestsPerSecond = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestRateLimitValidationSkippedWhenDisabled(t *testing.T) {
	cfg := validBase()
	cfg.RateLimit.Disabled = true
	cfg.RateLimit.Window = 0
	cfg.RateLimit.FullSyncLimit = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled rate limiter should skip limit checks: %v", err)
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yamlBody := `
classroom:
  base_url: https://classroom.example.com
server:
  port: 9000
sync:
  retry_attempts: 5
`
	if err := os.WriteFile(configPath, []byte(yamlBody), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("HTTP_PORT", "9100") // env beats file
	t.Setenv("SYNC_COURSE_WINDOW", "720h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("env should override file: port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Sync.RetryAttempts != 5 {
		t.Errorf("file should override defaults: retries = %d, want 5", cfg.Sync.RetryAttempts)
	}
	if cfg.Sync.CourseWindow != 720*time.Hour {
		t.Errorf("course window = %v, want 720h", cfg.Sync.CourseWindow)
	}
	// Untouched values keep defaults.
	if cfg.RateLimit.FullSyncLimit != 10 {
		t.Errorf("default full sync limit = %d, want 10", cfg.RateLimit.FullSyncLimit)
	}
}

func TestEnvTransformDropsUnknownVariables(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("unknown env var should be dropped, got %q", got)
	}
	if got := envTransformFunc("CLASSROOM_BASE_URL"); got != "classroom.base_url" {
		t.Errorf("transform = %q", got)
	}
}
