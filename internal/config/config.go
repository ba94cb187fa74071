package config

import (
	"time"

	"github.com/vovakirdan/microom-server/internal/core"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	AllowedOrigin     string        `mapstructure:"allowed_origin" yaml:"allowed_origin"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReportErrors      bool          `mapstructure:"report_errors" yaml:"report_errors"`
	AnnounceRooms     bool          `mapstructure:"announce_rooms" yaml:"announce_rooms"`
	ClientBuffer      int           `mapstructure:"client_buffer" yaml:"client_buffer"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3000",
		AllowedOrigin:     "http://localhost:5173",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		ReportErrors:      true,
		AnnounceRooms:     false,
		ClientBuffer:      32,
		MaxMessageBytes:   64 << 10,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Booleans are not merged since their zero value is meaningful.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.AllowedOrigin != "" {
		c.AllowedOrigin = other.AllowedOrigin
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
}

// HubOptions returns the coordinator behavior switches.
func (c Config) HubOptions() core.Options {
	return core.Options{
		ReportErrors:  c.ReportErrors,
		AnnounceRooms: c.AnnounceRooms,
	}
}
