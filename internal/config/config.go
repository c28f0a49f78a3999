package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// WriteTimeout bounds each per-recipient delivery attempt in the
	// broadcast pool. A recipient that cannot accept a frame within this
	// window is treated as a failed send, not a stall.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// QueueSize is the capacity of the command queue between the transport
	// producers and the single resolver consumer.
	QueueSize int    `mapstructure:"queue_size" yaml:"queue_size"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		WriteTimeout:      10 * time.Second,
		QueueSize:         1024,
		LogLevel:          "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.QueueSize != 0 {
		c.QueueSize = other.QueueSize
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
