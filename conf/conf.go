// Package conf loads the process configuration from file and environment.
package conf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/girmesh03/taskhub/internal/log"
	"github.com/girmesh03/taskhub/internal/purge"
	"github.com/girmesh03/taskhub/internal/storage"
)

// Config is the full process configuration.
type Config struct {
	Name  string              `conf:"name" yaml:"name" json:"name"`
	Log   log.Config          `conf:"log" yaml:"log" json:"log"`
	DB    storage.Config      `conf:"db" yaml:"db" json:"db"`
	Purge purge.Config        `conf:"purge" yaml:"purge" json:"purge"`
	Retry storage.RetryConfig `conf:"retry" yaml:"retry" json:"retry"`
}

func defaults() Config {
	return Config{
		Name: "taskhub",
		Log: log.Config{
			Name:   "taskhub",
			Level:  "info",
			Format: "json",
		},
		DB: storage.Config{
			Dialect: "sqlite3",
			DSN:     "file:taskhub.db?cache=shared",
		},
		Purge: purge.Config{
			CRON:      "0 3 * * *",
			BatchSize: 500,
		},
		Retry: storage.DefaultRetryConfig,
	}
}

// Load reads config.yml from the working directory, /etc/taskhub and
// $HOME/.taskhub, then applies TASKHUB_* environment overrides. A missing
// file is fine; defaults cover everything.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/taskhub")
	v.AddConfigPath("$HOME/.taskhub")

	v.SetEnvPrefix("TASKHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("conf: failed to read config: %w", err)
		}
	}

	config := defaults()

	err := v.Unmarshal(&config, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("conf: failed to unmarshal config: %w", err)
	}

	return config, nil
}
