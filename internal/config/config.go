package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type StoreConfig struct {
	Path      string `mapstructure:"path"`
	BackupDir string `mapstructure:"backup_dir"`
}

type AdminConfig struct {
	// Secret is a shared admin secret. Placeholder mechanism: swap for a
	// proper secret store before exposing this beyond a single machine.
	Secret string `mapstructure:"secret"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Admin AdminConfig `mapstructure:"admin"`
	Log   LogConfig   `mapstructure:"log"`
}

// Load reads configuration from the given yaml file (default "config.yaml"
// in the working directory) with PINBANK_* environment overrides. A missing
// file is fine; the defaults below make the binary runnable as-is.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store.path", "data/registry.json")
	v.SetDefault("store.backup_dir", "data/backups")
	v.SetDefault("admin.secret", "")
	v.SetDefault("log.level", "info")

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("PINBANK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
