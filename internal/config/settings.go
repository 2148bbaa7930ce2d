package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseSettings selects the relational backend.
type DatabaseSettings struct {
	// Driver is one of "postgres", "mysql" or "sqlite".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Settings are process-level settings, distinct from the importer
// configuration document. They come from an optional settings file
// and AHTI_-prefixed environment variables.
type Settings struct {
	Database    DatabaseSettings `mapstructure:"database"`
	HTTPTimeout time.Duration    `mapstructure:"http_timeout"`
	LogLevel    string           `mapstructure:"log_level"`
}

// LoadSettings reads process settings. Pass an empty path to use
// defaults and environment variables only.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "ahti.db")
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("AHTI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	switch s.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", s.Database.Driver)
	}

	return &s, nil
}
