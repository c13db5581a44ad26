package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	DataDir       string `mapstructure:"data_dir"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.data_dir", "./data")
	viper.SetDefault("server.max_upload_size", int64(1<<30))
	viper.SetDefault("log.level", "info")

	var cfg Config
	if err := viper.UnmarshalKey("server", &cfg.Server); err != nil {
		return nil, fmt.Errorf("unable to decode server config: %w", err)
	}
	if err := viper.UnmarshalKey("log", &cfg.Log); err != nil {
		return nil, fmt.Errorf("unable to decode log config: %w", err)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.DataDir == "" {
		return nil, fmt.Errorf("server.data_dir must not be empty")
	}
	if cfg.Server.MaxUploadSize <= 0 {
		return nil, fmt.Errorf("server.max_upload_size must be positive, got %d", cfg.Server.MaxUploadSize)
	}

	return &cfg, nil
}
