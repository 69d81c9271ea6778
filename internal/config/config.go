// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

// Package config holds Coursebridge configuration: struct definitions,
// defaults, layered loading (defaults < YAML file < environment), and
// validation.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Coursebridge server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Classroom ClassroomConfig `koanf:"classroom"`
	Sync      SyncConfig      `koanf:"sync"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Snapshot  SnapshotConfig  `koanf:"snapshot"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigins []string      `koanf:"cors_origins"`

	// HTTPRateLimit bounds requests per client IP per minute on API routes.
	// 0 disables HTTP-level limiting (the per-owner sync limiter still applies).
	HTTPRateLimit int `koanf:"http_rate_limit"`
}

// DatabaseConfig configures the embedded DuckDB store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// ClassroomConfig configures the external classroom platform client.
type ClassroomConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// Token is the static bearer credential for the platform. Leave empty
	// when a different CredentialSource is wired in.
	Token string `koanf:"token"`

	// RequestsPerSecond / Burst pace outbound calls to the platform.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// SyncConfig configures reconciliation behavior.
type SyncConfig struct {
	// RetryAttempts is the number of retries after a failed remote call.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryInitialDelay is the backoff before the first retry; it is
	// multiplied by RetryBackoffMultiplier after each attempt.
	RetryInitialDelay      time.Duration `koanf:"retry_initial_delay"`
	RetryBackoffMultiplier float64       `koanf:"retry_backoff_multiplier"`

	// CourseWindow restricts full syncs to remote courses created within
	// this trailing window, so stale historical courses are not surfaced.
	CourseWindow time.Duration `koanf:"course_window"`

	// CallTimeout bounds each individual remote call.
	CallTimeout time.Duration `koanf:"call_timeout"`

	// PassTimeout bounds one whole reconciliation pass.
	PassTimeout time.Duration `koanf:"pass_timeout"`

	// DebounceDelay is the default deferral for auto-triggered re-syncs.
	DebounceDelay time.Duration `koanf:"debounce_delay"`
}

// RateLimitConfig configures the per-owner sync rate limiter.
type RateLimitConfig struct {
	Window          time.Duration `koanf:"window"`
	FullSyncLimit   int           `koanf:"full_sync_limit"`
	SingleSyncLimit int           `koanf:"single_sync_limit"`
	Disabled        bool          `koanf:"disabled"`
}

// SnapshotConfig configures the submission snapshot cache.
type SnapshotConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first and then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8470,
			Timeout:       30 * time.Second,
			CORSOrigins:   []string{"*"},
			HTTPRateLimit: 100,
		},
		Database: DatabaseConfig{
			Path:      "/data/coursebridge.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Classroom: ClassroomConfig{
			BaseURL:           "",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Sync: SyncConfig{
			RetryAttempts:          3,
			RetryInitialDelay:      1 * time.Second,
			RetryBackoffMultiplier: 2.0,
			CourseWindow:           180 * 24 * time.Hour,
			CallTimeout:            30 * time.Second,
			PassTimeout:            5 * time.Minute,
			DebounceDelay:          3 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Window:          5 * time.Minute,
			FullSyncLimit:   10,
			SingleSyncLimit: 30,
			Disabled:        false,
		},
		Snapshot: SnapshotConfig{
			TTL:           time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for values that cannot work. It is
// called by Load; call it directly after programmatic construction.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Classroom.BaseURL == "" {
		return fmt.Errorf("classroom.base_url must be set")
	}
	if c.Classroom.RequestsPerSecond <= 0 {
		return fmt.Errorf("classroom.requests_per_second must be positive, got %v", c.Classroom.RequestsPerSecond)
	}
	if c.Sync.RetryAttempts < 0 {
		return fmt.Errorf("sync.retry_attempts must not be negative, got %d", c.Sync.RetryAttempts)
	}
	if c.Sync.RetryBackoffMultiplier < 1.0 {
		return fmt.Errorf("sync.retry_backoff_multiplier must be >= 1.0, got %v", c.Sync.RetryBackoffMultiplier)
	}
	if c.Sync.CourseWindow <= 0 {
		return fmt.Errorf("sync.course_window must be positive, got %v", c.Sync.CourseWindow)
	}
	if c.Sync.CallTimeout <= 0 || c.Sync.PassTimeout <= 0 {
		return fmt.Errorf("sync timeouts must be positive")
	}
	if !c.RateLimit.Disabled {
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate_limit.window must be positive, got %v", c.RateLimit.Window)
		}
		if c.RateLimit.FullSyncLimit <= 0 || c.RateLimit.SingleSyncLimit <= 0 {
			return fmt.Errorf("rate_limit limits must be positive")
		}
	}
	if c.Snapshot.TTL <= 0 {
		return fmt.Errorf("snapshot.ttl must be positive, got %v", c.Snapshot.TTL)
	}
	return nil
}
