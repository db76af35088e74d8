// Package config handles loading, validation, and hot-reloading of the
// kanabridge settings file. The file is owned by the settings UI; the bridge
// treats it as read-only input, replaced wholesale on every reload. A
// missing or invalid file never halts the bridge: it keeps the previous (or
// default) in-memory state and continues in degraded mode.
package config

import "strings"

// Config holds the complete bridge configuration.
type Config struct {
	// Engine controls the external converter.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// Dictionary is the user dictionary, rebuilt wholesale on every load.
	Dictionary DictionaryConfig `toml:"dictionary" json:"dictionary" yaml:"dictionary"`

	// IPC configures the engine transport.
	IPC IPCConfig `toml:"ipc" json:"ipc" yaml:"ipc"`

	// Logging configures diagnostics output.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// EngineConfig holds engine-enable flags.
type EngineConfig struct {
	// Enabled gates the engine candidate tier entirely.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Profile selects the engine-side conversion profile.
	Profile string `toml:"profile" json:"profile" yaml:"profile"`
}

// DictionaryConfig is the on-disk user dictionary shape.
type DictionaryConfig struct {
	Entries []Entry `toml:"entries" json:"entries" yaml:"entries"`
}

// Entry is one user-registered word. Reading is expected to be purely
// phonetic (hiragana plus the prolonged sound mark); the settings UI
// enforces that and the core only logs violations.
type Entry struct {
	Word    string `toml:"word" json:"word" yaml:"word"`
	Reading string `toml:"reading" json:"reading" yaml:"reading"`
}

// IPCConfig holds engine transport settings.
type IPCConfig struct {
	// SocketPath is the engine's local stream socket.
	SocketPath string `toml:"socket_path" json:"socket_path" yaml:"socket_path"`

	// CallTimeoutMs bounds one request/response exchange.
	CallTimeoutMs int `toml:"call_timeout_ms" json:"call_timeout_ms" yaml:"call_timeout_ms"`

	// ReconnectCooldownSec is the minimum wait between failed dials.
	ReconnectCooldownSec int `toml:"reconnect_cooldown_sec" json:"reconnect_cooldown_sec" yaml:"reconnect_cooldown_sec"`
}

// LoggingConfig holds diagnostics settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// File, when set, receives log output; required inside a foreign host
	// process where stderr goes nowhere.
	File string `toml:"file" json:"file" yaml:"file"`
}

// Default returns the built-in configuration used when no settings file is
// available.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Enabled: true,
			Profile: "default",
		},
		IPC: IPCConfig{
			CallTimeoutMs:        5000,
			ReconnectCooldownSec: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// normalize fills unset fields from defaults so a sparse settings file
// behaves predictably.
func (c *Config) normalize() {
	def := Default()
	if c.Engine.Profile == "" {
		c.Engine.Profile = def.Engine.Profile
	}
	if c.IPC.CallTimeoutMs <= 0 {
		c.IPC.CallTimeoutMs = def.IPC.CallTimeoutMs
	}
	if c.IPC.ReconnectCooldownSec <= 0 {
		c.IPC.ReconnectCooldownSec = def.IPC.ReconnectCooldownSec
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}
