// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

// Package config provides layered configuration loading for URLSync.
//
// Configuration is resolved in three layers, later layers overriding
// earlier ones:
//
//  1. Struct defaults (defaultConfig)
//  2. YAML config file (config.yaml, /etc/urlsync/config.yaml, or CONFIG_PATH)
//  3. Environment variables (URLSYNC_ prefix, e.g. URLSYNC_REMOTE_API_TOKEN)
package config

import "time"

// Config is the root configuration for the urlsyncd daemon.
type Config struct {
	Remote   RemoteConfig   `koanf:"remote"`
	Database DatabaseConfig `koanf:"database"`
	Sync     SyncConfig     `koanf:"sync"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// RemoteConfig configures the tracking service API client.
type RemoteConfig struct {
	// BaseURL is the tracking service API root, e.g. "https://api.tracking.example/v2".
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// APIToken is the bearer token identifying this website's account.
	// An empty token short-circuits every call with a no-credential result.
	APIToken string `koanf:"api_token"`

	// Domain is sent as the domain-identification header on every call.
	Domain string `koanf:"domain" validate:"required,hostname_rfc1123"`

	// Caller identifies the caller (installation) on every call.
	Caller string `koanf:"caller"`

	// Timeout is the per-request HTTP timeout. There is no cross-call
	// deadline; a slow remote simply delays one deferred job.
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	// BreakerEnabled wraps the client in a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// DatabaseConfig configures the local SQLite state store.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" is accepted for tests.
	Path string `koanf:"path" validate:"required"`
}

// SyncConfig governs when and how inventory syncs run.
type SyncConfig struct {
	// RateInterval is the minimum interval between non-forced syncs.
	RateInterval time.Duration `koanf:"rate_interval" validate:"min=1m"`

	// Delay is how long deferred sync jobs wait before execution. Triggers
	// arriving within the window coalesce into one execution.
	Delay time.Duration `koanf:"delay" validate:"min=1s"`

	// ContentPageSize bounds one enumeration page of primary content.
	ContentPageSize int `koanf:"content_page_size" validate:"min=1,max=10000"`

	// TermPageSize bounds one enumeration page of taxonomy terms.
	TermPageSize int `koanf:"term_page_size" validate:"min=1,max=10000"`

	// DeleteMissing asks the remote to drop URLs absent from a full sync.
	DeleteMissing bool `koanf:"delete_missing"`

	// MaxConcurrentUploads caps the batch-upload fan-out.
	MaxConcurrentUploads int `koanf:"max_concurrent_uploads" validate:"min=1,max=64"`

	// UploadsPerSecond rate-limits sub-requests within the fan-out.
	// Zero means unlimited.
	UploadsPerSecond float64 `koanf:"uploads_per_second" validate:"min=0"`

	// WorkerInterval is how often the deferred-job worker polls for due jobs.
	WorkerInterval time.Duration `koanf:"worker_interval" validate:"min=1s"`

	// DailyHour is the local hour (0-23) at which the daily full sync is
	// enqueued. Negative disables the cron.
	DailyHour int `koanf:"daily_hour" validate:"min=-1,max=23"`
}

// ServerConfig configures the HTTP trigger/status surface.
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	// RateLimitReqs/RateLimitWindow configure per-IP request throttling.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL:        "https://api.tracking.example/api/v2",
			APIToken:       "",
			Domain:         "localhost",
			Caller:         "urlsyncd",
			Timeout:        30 * time.Second,
			BreakerEnabled: true,
		},
		Database: DatabaseConfig{
			Path: "/data/urlsync.db",
		},
		Sync: SyncConfig{
			RateInterval:         time.Hour,
			Delay:                5 * time.Second,
			ContentPageSize:      1000,
			TermPageSize:         500,
			DeleteMissing:        true,
			MaxConcurrentUploads: 4,
			UploadsPerSecond:     0,
			WorkerInterval:       time.Second,
			DailyHour:            3,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3858,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
