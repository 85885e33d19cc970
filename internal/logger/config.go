package logger

import "fmt"

// Config represents logging configuration
type Config struct {
	Level      string `mapstructure:"level" json:"level"` // debug, info, warn, error
	File       string `mapstructure:"file" json:"file"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age"` // days
	Compress   bool   `mapstructure:"compress" json:"compress"`
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() *Config {
	cfg := &Config{}
	return cfg.SetDefaults()
}

// SetDefaults fills in default values for unset fields
func (cfg *Config) SetDefaults() *Config {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.File == "" {
		cfg.File = "ipbot.log"
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 32
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 28
	}
	return cfg
}

// Validate validates logging configuration
func (cfg *Config) Validate() error {
	if cfg.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	return nil
}
