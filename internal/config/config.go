package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	BlockSize     int     `mapstructure:"block_size"`
	ListenAddr    string  `mapstructure:"listen_addr"`
	RateLimitMbps float64 `mapstructure:"rate_limit_mbps"`
	BlobRoot      string  `mapstructure:"blob_root"`
	CompressBlobs bool    `mapstructure:"compress_blobs"`
	EnableHTTP3   bool    `mapstructure:"enable_http3"`
	NoColor       bool    `mapstructure:"no_color"`
	Quiet         bool    `mapstructure:"quiet"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BlockSize:     65536,            // 64KB fetch granularity
		ListenAddr:    "127.0.0.1:8632", // demo server bind address
		RateLimitMbps: 0,                // no limit
		BlobRoot:      defaultBlobRoot(),
		CompressBlobs: false,
		EnableHTTP3:   false,
		NoColor:       false,
		Quiet:         false, // quiet suppresses per-fetch lines, not the summary
	}
}

func defaultBlobRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fetchtrace-store"
	}
	return filepath.Join(homeDir, ".local", "share", "fetchtrace", "store")
}

// LoadConfig loads configuration from file or creates default config
func LoadConfig() (*Config, error) {
	config := DefaultConfig()

	// Set config file name and type
	viper.SetConfigName("fetchtrace")
	viper.SetConfigType("yaml")

	// Add config paths in order of priority
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".config", "fetchtrace"))
		viper.AddConfigPath(homeDir) // for .fetchtrace.yaml
	}
	viper.AddConfigPath("/etc/fetchtrace")
	viper.AddConfigPath(".")

	// Set environment variable prefix
	viper.SetEnvPrefix("FETCHTRACE")
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found - use defaults (not an error)
			return config, nil
		}
		// Config file was found but another error occurred (parse error, permission, etc.)
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal config
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(config *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "fetchtrace")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "fetchtrace.yaml")

	// Set values in viper
	viper.Set("block_size", config.BlockSize)
	viper.Set("listen_addr", config.ListenAddr)
	viper.Set("rate_limit_mbps", config.RateLimitMbps)
	viper.Set("blob_root", config.BlobRoot)
	viper.Set("compress_blobs", config.CompressBlobs)
	viper.Set("enable_http3", config.EnableHTTP3)
	viper.Set("no_color", config.NoColor)
	viper.Set("quiet", config.Quiet)

	// Write config file
	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "~/.config/fetchtrace/fetchtrace.yaml"
	}

	return filepath.Join(homeDir, ".config", "fetchtrace", "fetchtrace.yaml")
}
