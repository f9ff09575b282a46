package domain

import (
	"errors"
	"time"
)

// ErrMissingToken is returned when the bot has no access token configured
var ErrMissingToken = errors.New("bot token not configured")

// Config represents the application configuration
type Config struct {
	Bot          BotConfig          `mapstructure:"bot"`
	Server       ServerConfig       `mapstructure:"server"`
	Search       SearchConfig       `mapstructure:"search"`
	Download     DownloadConfig     `mapstructure:"download"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// BotConfig contains Telegram bot configuration
type BotConfig struct {
	Token       string        `mapstructure:"token"`
	Greeting    string        `mapstructure:"greeting"`
	EchoPrefix  string        `mapstructure:"echo_prefix"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
	APIURL      string        `mapstructure:"api_url"` // empty means api.telegram.org
}

// ServerConfig contains the bot health server configuration
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// SearchConfig contains video search configuration
type SearchConfig struct {
	Limit    int           `mapstructure:"limit"`
	APIKey   string        `mapstructure:"api_key"` // YouTube Data API v3 key, optional
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
	BaseURL  string        `mapstructure:"base_url"`
	APIURL   string        `mapstructure:"api_url"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	Format      string `mapstructure:"format"`
	YTDLPBinary string `mapstructure:"ytdlp_binary"` // empty means resolve from PATH
	AutoInstall bool   `mapstructure:"auto_install"`
}

// HistoryConfig contains download history configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send, or empty to detect
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// Default echo responder replies
const (
	DefaultGreeting   = "Привет! Бот работает на Render.com 🎉"
	DefaultEchoPrefix = "Ты сказал: "
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Greeting:    DefaultGreeting,
			EchoPrefix:  DefaultEchoPrefix,
			PollTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
		},
		Search: SearchConfig{
			Limit:    10,
			Language: "en",
			Timeout:  30 * time.Second,
			BaseURL:  "https://www.youtube.com",
			APIURL:   "https://www.googleapis.com/youtube/v3",
		},
		Download: DownloadConfig{
			OutputDir:   ".",
			Format:      "best",
			AutoInstall: false,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.vidfetch/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}
