package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is read from the environment, a .env file in the working directory is loaded first if present.
// Feed and model keys are optional here since a server answering only caller supplied reports needs none of them.
type Config struct {
	AlphaVantageApiKey     string `env:"ALPHAVANTAGE_API_KEY"`
	AlphaVantageHost       string `env:"ALPHAVANTAGE_HOST" envDefault:"www.alphavantage.co" validate:"required"`
	AlphaVantageOutputSize string `env:"ALPHAVANTAGE_OUTPUT_SIZE" envDefault:"full" validate:"oneof=compact full"`
	AlphaVantageSeries     string `env:"ALPHAVANTAGE_SERIES" envDefault:"daily" validate:"oneof=daily adjusted"`
	AlphaVantageRPM        int    `env:"ALPHAVANTAGE_REQUESTS_PER_MINUTE" envDefault:"5" validate:"min=1"`

	NYTimesApiKey            string `env:"NYT_API_KEY"`
	NYTimesHost              string `env:"NYT_HOST" envDefault:"api.nytimes.com" validate:"required"`
	NYTimesPagesPerWindow    int    `env:"NYT_PAGES_PER_WINDOW" envDefault:"2" validate:"min=1,max=100"`
	NYTimesRequestsPerMinute int    `env:"NYT_REQUESTS_PER_MINUTE" envDefault:"5" validate:"min=1"`

	AnthropicApiKey   string        `env:"ANTHROPIC_API_KEY"`
	SentimentModel    string        `env:"SENTIMENT_MODEL" envDefault:"claude-3-5-haiku-latest" validate:"required"`
	SentimentCacheTTL time.Duration `env:"SENTIMENT_CACHE_TTL" envDefault:"720h"`

	DatabaseUrl string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR" validate:"omitempty,hostname_port"`

	HttpAddr  string `env:"HTTP_ADDR" envDefault:":8080" validate:"required"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
}

// Load reads .env then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env: %w", err)
		}
		log.Debug().Msg("no .env file found, using process environment")
	}

	return parse(env.Options{})
}

// LoadFrom reads only the given variables, the process environment is ignored
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("error validating configuration: %w", err)
	}

	return &cfg, nil
}

// HasFeeds tells whether reports can be fetched rather than only supplied by callers
func (c *Config) HasFeeds() bool {
	return c.AlphaVantageApiKey != "" && c.NYTimesApiKey != "" && c.AnthropicApiKey != ""
}
