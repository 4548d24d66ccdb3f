// Package config provides configuration loading and management for contentgen.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `json:"server"     mapstructure:"server"     yaml:"server"`
	Storage    StorageConfig    `json:"storage"    mapstructure:"storage"    yaml:"storage"`
	Completion CompletionConfig `json:"completion" mapstructure:"completion" yaml:"completion"`
	Security   SecurityConfig   `json:"security"   mapstructure:"security"   yaml:"security"`
	Log        LogConfig        `json:"log"        mapstructure:"log"        yaml:"log"`
}

// ServerConfig configures the admin web server.
type ServerConfig struct {
	Addr            string        `json:"addr"             mapstructure:"addr"             yaml:"addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StorageConfig locates the settings database.
type StorageConfig struct {
	Path string `json:"path" mapstructure:"path" yaml:"path"`
}

// CompletionConfig tunes outbound completion calls.
type CompletionConfig struct {
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" yaml:"timeout"`
}

// SecurityConfig controls form verification tokens.
type SecurityConfig struct {
	NonceTTL time.Duration `json:"nonce_ttl" mapstructure:"nonce_ttl" yaml:"nonce_ttl"`
}

// LogConfig selects the log output format.
type LogConfig struct {
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Path: DefaultDir + "/contentgen.db",
		},
		Completion: CompletionConfig{
			Timeout: 60 * time.Second,
		},
		Security: SecurityConfig{
			NonceTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Format: LogFormatConsole,
		},
	}
}

// DefaultDir is the per-project state directory.
const DefaultDir = ".contentgen"

// DefaultPath is the default config file location.
const DefaultPath = DefaultDir + "/config.yaml"
