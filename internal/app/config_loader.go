package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/echo-fetch-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	// Set up viper
	v := viper.New()
	v.SetConfigType("yaml")

	// Register every key so environment overrides reach Unmarshal
	for key, value := range configValues(config) {
		v.SetDefault(key, value)
	}

	// If config path is provided, use it
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.vidfetch")
		v.AddConfigPath("/etc/vidfetch")
	}

	// Read environment variables
	v.SetEnvPrefix("VIDFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Hosting platforms hand these over without a prefix
	if err := v.BindEnv("bot.token", "VIDFETCH_BOT_TOKEN", "BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind bot token: %w", err)
	}
	if err := v.BindEnv("server.port", "VIDFETCH_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind server port: %w", err)
	}

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand environment variables in paths
	config = expandPaths(config)

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// ValidateBotConfig checks what only the bot binary needs
func ValidateBotConfig(config *domain.BotConfig) error {
	if strings.TrimSpace(config.Token) == "" {
		return domain.ErrMissingToken
	}
	if config.PollTimeout <= 0 {
		return fmt.Errorf("poll timeout must be positive")
	}
	return nil
}

// configValues flattens config into viper keys
func configValues(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"bot.token":             config.Bot.Token,
		"bot.greeting":          config.Bot.Greeting,
		"bot.echo_prefix":       config.Bot.EchoPrefix,
		"bot.poll_timeout":      config.Bot.PollTimeout.String(),
		"bot.api_url":           config.Bot.APIURL,
		"server.enabled":        config.Server.Enabled,
		"server.host":           config.Server.Host,
		"server.port":           config.Server.Port,
		"search.limit":          config.Search.Limit,
		"search.api_key":        config.Search.APIKey,
		"search.language":       config.Search.Language,
		"search.timeout":        config.Search.Timeout.String(),
		"search.base_url":       config.Search.BaseURL,
		"search.api_url":        config.Search.APIURL,
		"download.output_dir":   config.Download.OutputDir,
		"download.format":       config.Download.Format,
		"download.ytdlp_binary": config.Download.YTDLPBinary,
		"download.auto_install": config.Download.AutoInstall,
		"history.enabled":       config.History.Enabled,
		"history.database_path": config.History.DatabasePath,
		"notification.enabled":  config.Notification.Enabled,
		"notification.method":   config.Notification.Method,
		"logging.level":         config.Logging.Level,
		"logging.format":        config.Logging.Format,
		"logging.output_path":   config.Logging.OutputPath,
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.OutputDir = expandPath(config.Download.OutputDir)
	config.Download.YTDLPBinary = expandPath(config.Download.YTDLPBinary)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	// Expand home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// Replace $HOME
	if strings.Contains(path, "$HOME") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	// Expand remaining environment variables
	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Search.Limit < 1 {
		return fmt.Errorf("search limit must be at least 1")
	}

	if config.Download.OutputDir == "" {
		config.Download.OutputDir = "."
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	// The token stays in the environment
	for key, value := range configValues(config) {
		if key == "bot.token" {
			continue
		}
		v.Set(key, value)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
