// Package config loads the optional --config-file TOML overlay (§2 AMBIENT
// STACK / §6 "semantics are opaque to the core"). Absence of the file, or
// of any individual key, silently falls back to the built-in defaults.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults match §4.5/§4.6/§9: T_diag=5s, quiescence=400ms, T_idle=15min.
const (
	DefaultDiagTimeoutMs    = 5000
	DefaultQuiescenceMs     = 400
	DefaultIdleShutdownMins = 15
	DefaultLogLevel         = "info"
)

// Config holds the daemon tuning knobs a --config-file may override.
type Config struct {
	DiagTimeoutMs       int    `toml:"diagTimeoutMs"`
	QuiescenceMs        int    `toml:"quiescenceMs"`
	IdleShutdownMinutes int    `toml:"idleShutdownMinutes"`
	LogLevel            string `toml:"logLevel"`
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		DiagTimeoutMs:       DefaultDiagTimeoutMs,
		QuiescenceMs:        DefaultQuiescenceMs,
		IdleShutdownMinutes: DefaultIdleShutdownMins,
		LogLevel:            DefaultLogLevel,
	}
}

// Load reads path as TOML and overlays any keys present onto the defaults.
// A missing path is not an error — it just returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	var overlay struct {
		DiagTimeoutMs       *int    `toml:"diagTimeoutMs"`
		QuiescenceMs        *int    `toml:"quiescenceMs"`
		IdleShutdownMinutes *int    `toml:"idleShutdownMinutes"`
		LogLevel            *string `toml:"logLevel"`
	}
	if _, err := toml.DecodeFile(path, &overlay); err != nil {
		return cfg, err
	}

	if overlay.DiagTimeoutMs != nil {
		cfg.DiagTimeoutMs = *overlay.DiagTimeoutMs
	}
	if overlay.QuiescenceMs != nil {
		cfg.QuiescenceMs = *overlay.QuiescenceMs
	}
	if overlay.IdleShutdownMinutes != nil {
		cfg.IdleShutdownMinutes = *overlay.IdleShutdownMinutes
	}
	if overlay.LogLevel != nil {
		cfg.LogLevel = *overlay.LogLevel
	}
	return cfg, nil
}

// DiagTimeout returns the diagnostics wait deadline as a time.Duration.
func (c Config) DiagTimeout() time.Duration {
	return time.Duration(c.DiagTimeoutMs) * time.Millisecond
}

// Quiescence returns the diagnostics quiescence window as a time.Duration.
func (c Config) Quiescence() time.Duration {
	return time.Duration(c.QuiescenceMs) * time.Millisecond
}

// IdleShutdown returns the daemon idle-shutdown window as a time.Duration.
func (c Config) IdleShutdown() time.Duration {
	return time.Duration(c.IdleShutdownMinutes) * time.Minute
}
