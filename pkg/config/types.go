package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent docuwatch configuration stored as
// config.toml in the .docuwatch/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Server  ServerConfig  `toml:"server"`
	Stream  StreamConfig  `toml:"stream"`
	Poll    PollConfig    `toml:"poll"`
	History HistoryConfig `toml:"history"`
}

// ServerConfig holds the backend the client talks to.
type ServerConfig struct {
	// Target is the full base URL (scheme + host + port).
	Target string `toml:"target,omitempty"`

	// TimeoutSeconds bounds plain REST calls. Streams are unbounded.
	TimeoutSeconds uint `toml:"timeout_seconds,omitempty"`
}

// StreamConfig holds stream transport settings.
type StreamConfig struct {
	// Disable forces the polling path for every operation, skipping the
	// SSE transport entirely.
	Disable bool `toml:"disable,omitempty"`
}

// PollConfig holds fallback poller settings.
type PollConfig struct {
	IntervalSeconds uint `toml:"interval_seconds,omitempty"`
	MaxAttempts     uint `toml:"max_attempts,omitempty"`
}

// HistoryConfig holds the local operation-history store settings.
type HistoryConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.target": {
		get: func(c *Config) string { return c.Server.Target },
		set: func(c *Config, v string) error { c.Server.Target = v; return nil },
	},
	"server.timeout_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Server.TimeoutSeconds), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for server.timeout_seconds: %w", err)
			}
			c.Server.TimeoutSeconds = uint(n)
			return nil
		},
	},
	"stream.disable": {
		get: func(c *Config) string { return strconv.FormatBool(c.Stream.Disable) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for stream.disable: %w", err)
			}
			c.Stream.Disable = b
			return nil
		},
	},
	"poll.interval_seconds": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Poll.IntervalSeconds), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for poll.interval_seconds: %w", err)
			}
			c.Poll.IntervalSeconds = uint(n)
			return nil
		},
	},
	"poll.max_attempts": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Poll.MaxAttempts), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for poll.max_attempts: %w", err)
			}
			c.Poll.MaxAttempts = uint(n)
			return nil
		},
	},
	"history.sqlite_path": {
		get: func(c *Config) string { return c.History.SQLitePath },
		set: func(c *Config, v string) error { c.History.SQLitePath = v; return nil },
	},
}
