// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/tonyc-ship/latios-oss-sub001/middlewares"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/cookie"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/db"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/deepgram"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/itunes"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/job"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/llm"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/locale"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/logger"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/mailer"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/mailer/resend"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/oauth"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/redis"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/storage"
)

var ErrInvalid = errors.New("config: invalid configuration")

// LocaleConfig lists the negotiable locales.
type LocaleConfig struct {
	Supported []string `env:"SUPPORTED" envSeparator:"," envDefault:"en,zh"`
	Default   string   `env:"DEFAULT" envDefault:"en"`
}

// Build validates the settings into a locale.Config.
func (c LocaleConfig) Build() (locale.Config, error) {
	supported := make([]string, 0, len(c.Supported))
	for _, s := range c.Supported {
		if s = strings.TrimSpace(s); s != "" {
			supported = append(supported, s)
		}
	}
	return locale.New(strings.TrimSpace(c.Default), supported...)
}

// Config is the whole service configuration.
type Config struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	BaseURL         string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	// HistoryRetention is how long search history is kept.
	HistoryRetention time.Duration `env:"HISTORY_RETENTION" envDefault:"2160h"`
	MetricsEnabled   bool          `env:"METRICS_ENABLED" envDefault:"true"`

	Log      logger.Config          `envPrefix:"LOG_"`
	DB       db.Config              `envPrefix:"DB_"`
	Redis    redis.Config           `envPrefix:"REDIS_"`
	S3       storage.Config         `envPrefix:"S3_"`
	Notion   oauth.NotionConfig     `envPrefix:"NOTION_"`
	Resend   resend.Config          `envPrefix:"RESEND_"`
	Mailer   mailer.Config          `envPrefix:"MAILER_"`
	Deepgram deepgram.Config        `envPrefix:"DEEPGRAM_"`
	ITunes   itunes.Config          `envPrefix:"ITUNES_"`
	Locale   LocaleConfig           `envPrefix:"LOCALE_"`
	Auth     middlewares.AuthConfig `envPrefix:"AUTH_"`
	CORS     middlewares.CORSConfig `envPrefix:"CORS_"`
	Cookie   cookie.Config          `envPrefix:"COOKIE_"`
	Jobs     job.Config             `envPrefix:"JOBS_"`

	// LLM reads ANTHROPIC_API_KEY and OPENAI_API_KEY unprefixed.
	LLM llm.Config
}

// Load parses the environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if _, err := c.Locale.Build(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	if c.Notion.Enabled() && c.Cookie.Secret == "" {
		errs = append(errs, errors.New("COOKIE_SECRET is required when Notion is configured"))
	}
	if c.HistoryRetention < 24*time.Hour {
		errs = append(errs, errors.New("HISTORY_RETENTION must be at least 24h"))
	}
	if c.LLM.Enabled() {
		if _, err := c.LLM.Detect(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalid}, errs...)...)
	}
	return nil
}

// Migrations holds what `latios migrate` needs, so it runs without the
// secrets the server requires.
type Migrations struct {
	Log logger.Config `envPrefix:"LOG_"`
	DB  db.Config     `envPrefix:"DB_"`
}

// LoadMigrations parses only the database and logging settings.
func LoadMigrations() (*Migrations, error) {
	var cfg Migrations
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
