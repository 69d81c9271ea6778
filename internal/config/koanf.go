// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/coursebridge/config.yaml",
	"/etc/coursebridge/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - CLASSROOM_BASE_URL  -> classroom.base_url
//   - SYNC_RETRY_ATTEMPTS -> sync.retry_attempts
//   - HTTP_PORT           -> server.port
//   - LOG_LEVEL           -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":       "server.host",
		"http_port":       "server.port",
		"http_timeout":    "server.timeout",
		"http_rate_limit": "server.http_rate_limit",
		"cors_origins":    "server.cors_origins",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Classroom platform
		"classroom_base_url":            "classroom.base_url",
		"classroom_timeout":             "classroom.timeout",
		"classroom_token":               "classroom.token",
		"classroom_requests_per_second": "classroom.requests_per_second",
		"classroom_burst":               "classroom.burst",

		// Sync
		"sync_retry_attempts":           "sync.retry_attempts",
		"sync_retry_initial_delay":      "sync.retry_initial_delay",
		"sync_retry_backoff_multiplier": "sync.retry_backoff_multiplier",
		"sync_course_window":            "sync.course_window",
		"sync_call_timeout":             "sync.call_timeout",
		"sync_pass_timeout":             "sync.pass_timeout",
		"sync_debounce_delay":           "sync.debounce_delay",

		// Rate limiting
		"rate_limit_window":            "rate_limit.window",
		"rate_limit_full_sync_limit":   "rate_limit.full_sync_limit",
		"rate_limit_single_sync_limit": "rate_limit.single_sync_limit",
		"rate_limit_disabled":          "rate_limit.disabled",

		// Snapshots
		"snapshot_ttl":            "snapshot.ttl",
		"snapshot_sweep_interval": "snapshot.sweep_interval",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	// Unknown variables are dropped rather than guessed at; an unrelated
	// variable like PATH must never land in the config tree.
	return ""
}
