package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"ipbot/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// AppName is the application name used for config search paths
const AppName = "ipbot"

// DefaultConfigFile is the config file generated on first run
const DefaultConfigFile = "configuration.json"

// ErrCreatedTemplate indicates a config template was generated and the
// user must edit it before the bot can start.
var ErrCreatedTemplate = errors.New("configuration template created")

// Config represents bot configuration
type Config struct {
	CheckInterval int            `mapstructure:"check_interval" json:"check_interval" validate:"min=10"` // seconds
	StateFile     string         `mapstructure:"state_file" json:"state_file" validate:"required"`
	Providers     []string       `mapstructure:"providers" json:"providers" validate:"required,min=1"`
	Telegram      TelegramConfig `mapstructure:"telegram" json:"telegram"`
	History       HistoryConfig  `mapstructure:"history" json:"history"`
	Log           logger.Config  `mapstructure:"log" json:"log"`
}

// TelegramConfig represents Telegram bot credentials and recipient
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" json:"bot_token" validate:"required"`
	ChatID   string `mapstructure:"chat_id" json:"chat_id" validate:"required"`
}

// HistoryConfig represents the IP change journal configuration
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled" json:"enabled"`
	Path          string `mapstructure:"path" json:"path"`
	RetentionDays int    `mapstructure:"retention_days" json:"retention_days" validate:"min=0"` // 0 keeps forever
}

// Load loads the bot configuration from file. When no explicit path is
// given and no config file exists in any search path, a template is
// written to DefaultConfigFile and ErrCreatedTemplate is returned.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.retention_days", 90)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("configuration")
		// Add search paths
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/" + AppName)
		v.AddConfigPath("/etc/" + AppName)
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			if err := writeTemplate(DefaultConfigFile); err != nil {
				return nil, fmt.Errorf("failed to write config template: %w", err)
			}
			return nil, ErrCreatedTemplate
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set defaults if not specified
	setDefaults(&config)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values if not specified
func setDefaults(config *Config) {
	if config.CheckInterval == 0 {
		config.CheckInterval = 60
	}

	if config.StateFile == "" {
		config.StateFile = "ipbot_state.json"
	}

	if len(config.Providers) == 0 {
		config.Providers = []string{
			"https://api.ipify.org",
			"https://ifconfig.me/ip",
			"https://icanhazip.com",
		}
	}

	if config.History.Path == "" {
		config.History.Path = "ipbot_history.db"
	}

	config.Log.SetDefaults()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Providers))
	for _, provider := range c.Providers {
		u, err := url.Parse(provider)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid provider URL: %s", provider)
		}
		if _, ok := seen[provider]; ok {
			return fmt.Errorf("duplicate provider URL: %s", provider)
		}
		seen[provider] = struct{}{}
	}

	return c.Log.Validate()
}

// writeTemplate writes a config template with placeholder credentials.
// An existing file is never overwritten.
func writeTemplate(path string) error {
	template := &Config{
		Telegram: TelegramConfig{
			BotToken: "bot token here",
			ChatID:   "telegram chat ID here",
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 90,
		},
	}
	setDefaults(template)

	data, err := json.MarshalIndent(template, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create template file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write template file: %w", err)
	}

	return f.Close()
}
