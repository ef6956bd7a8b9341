package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// StorageConfig locates the device-local database.
type StorageConfig struct {
	// Path is the SQLite file holding the persisted documents.
	Path string `mapstructure:"path" yaml:"path"`
}

// AuthConfig holds login settings.
type AuthConfig struct {
	// DefaultPassword is assigned to any stored user that has none.
	DefaultPassword string `mapstructure:"default_password" yaml:"default_password"`
}

// AlertsConfig holds settings for OS-level alerts.
type AlertsConfig struct {
	// Permission is "default" (not yet asked), "granted" or "denied".
	Permission string `mapstructure:"permission" yaml:"permission"`

	// WindowSec is how recent a notification must be to raise an alert.
	WindowSec int `mapstructure:"window_sec" yaml:"window_sec"`
}

// AIConfig holds settings for the description refiner.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	ToastSec int `mapstructure:"toast_sec" yaml:"toast_sec"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Alerts  AlertsConfig  `mapstructure:"alerts" yaml:"alerts"`
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// AlertWindow returns the alert age window as a duration.
func (c *AppConfig) AlertWindow() time.Duration {
	return time.Duration(c.Alerts.WindowSec) * time.Second
}

// ToastDuration returns how long a toast stays on screen.
func (c *AppConfig) ToastDuration() time.Duration {
	return time.Duration(c.Display.ToastSec) * time.Second
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/prodtask/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "prodtask", "config.yaml")
}

// defaultDataPath returns path joined under ~/.local/share/prodtask.
func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", name)
	}
	return filepath.Join(home, ".local", "share", "prodtask", name)
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{Path: defaultDataPath("prodtask.db")},
		Auth:    AuthConfig{DefaultPassword: "123456"},
		Alerts: AlertsConfig{
			Permission: "default",
			WindowSec:  5,
		},
		AI: AIConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 512,
			Endpoint:  "https://api.anthropic.com/v1/messages",
		},
		Display: DisplayConfig{ToastSec: 3},
		Log: LogConfig{
			Level: "info",
			File:  defaultDataPath("prodtask.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	defaults := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("storage.path", defaults.Storage.Path)
	v.SetDefault("auth.default_password", defaults.Auth.DefaultPassword)
	v.SetDefault("alerts.permission", defaults.Alerts.Permission)
	v.SetDefault("alerts.window_sec", defaults.Alerts.WindowSec)
	v.SetDefault("ai.model", defaults.AI.Model)
	v.SetDefault("ai.max_tokens", defaults.AI.MaxTokens)
	v.SetDefault("ai.endpoint", defaults.AI.Endpoint)
	v.SetDefault("display.toast_sec", defaults.Display.ToastSec)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch cfg.Alerts.Permission {
	case "default", "granted", "denied":
	default:
		cfg.Alerts.Permission = "default"
	}
	if cfg.Alerts.WindowSec <= 0 {
		cfg.Alerts.WindowSec = defaults.Alerts.WindowSec
	}
	if cfg.Display.ToastSec <= 0 {
		cfg.Display.ToastSec = defaults.Display.ToastSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("auth", cfg.Auth)
	v.Set("alerts", cfg.Alerts)
	v.Set("ai", cfg.AI)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
