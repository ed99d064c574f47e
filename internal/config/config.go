package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	DBPath          string        `envconfig:"DB_PATH" default:"./data/callplanner.db"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	DefaultTZ       string        `envconfig:"DEFAULT_TZ" default:"UTC"` // requester timezone when none is given
	BotToken        string        `envconfig:"BOT_TOKEN"`                // Telegram adapter is off when empty
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TelegramEnabled reports whether a bot token is configured.
func (c Config) TelegramEnabled() bool {
	return c.BotToken != ""
}
