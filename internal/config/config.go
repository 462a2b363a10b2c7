// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github-gitee-mirror/internal/mirror"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr          string        `mapstructure:"HTTP_ADDR"`
	DBURL             string        `mapstructure:"DB_URL"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	GithubAPIURL      string        `mapstructure:"GITHUB_API_URL"`
	GiteeAPIURL       string        `mapstructure:"GITEE_API_URL"`
	GiteeWebURL       string        `mapstructure:"GITEE_WEB_URL"`
	WebhookSecret     string        `mapstructure:"WEBHOOK_SECRET"`
	WorkerCount       int           `mapstructure:"WORKER_COUNT"`
	SyncSchedule      string        `mapstructure:"SYNC_SCHEDULE"`
	SyncTimezone      string        `mapstructure:"SYNC_TIMEZONE"`
	AccountPacing     time.Duration `mapstructure:"ACCOUNT_PACING"`
	GitBinary         string        `mapstructure:"GIT_BINARY"`
	GitTimeout        time.Duration `mapstructure:"GIT_TIMEOUT"`
	WorkDir           string        `mapstructure:"WORK_DIR"`
	RepoCacheTTL      time.Duration `mapstructure:"REPO_CACHE_TTL"`
	DashboardCacheTTL time.Duration `mapstructure:"DASHBOARD_CACHE_TTL"`
	StaleTaskAfter    time.Duration `mapstructure:"STALE_TASK_AFTER"`
	ReaperInterval    time.Duration `mapstructure:"REAPER_INTERVAL"`

	// SyncLocation is resolved from SyncTimezone during validation.
	SyncLocation *time.Location `mapstructure:"-"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_URL", "")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("GITHUB_API_URL", "")
	v.SetDefault("GITEE_API_URL", "https://gitee.com/api/v5")
	v.SetDefault("GITEE_WEB_URL", "https://gitee.com")
	v.SetDefault("WEBHOOK_SECRET", "")
	v.SetDefault("WORKER_COUNT", 4)
	v.SetDefault("SYNC_SCHEDULE", "0 2 * * *")
	v.SetDefault("SYNC_TIMEZONE", "Asia/Shanghai")
	v.SetDefault("ACCOUNT_PACING", "2s")
	v.SetDefault("GIT_BINARY", "git")
	v.SetDefault("GIT_TIMEOUT", "30m")
	v.SetDefault("WORK_DIR", "")
	v.SetDefault("REPO_CACHE_TTL", "30m")
	v.SetDefault("DASHBOARD_CACHE_TTL", "1m")
	v.SetDefault("STALE_TASK_AFTER", "6h")
	v.SetDefault("REAPER_INTERVAL", "15m")
}

func (c *Config) validate() error {
	if c.DBURL == "" {
		return errors.New("DB_URL is a required configuration field")
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is a required configuration field")
	}
	if c.WorkerCount <= 0 {
		return errors.New("WORKER_COUNT must be a positive integer")
	}
	if c.GitTimeout <= 0 {
		return errors.New("GIT_TIMEOUT must be a positive duration")
	}
	if c.AccountPacing < 0 {
		return errors.New("ACCOUNT_PACING must not be negative")
	}
	if c.StaleTaskAfter > 0 && c.StaleTaskAfter <= mirror.MaxDuration(c.GitTimeout) {
		return fmt.Errorf("STALE_TASK_AFTER must be longer than %d x GIT_TIMEOUT (%s)",
			mirror.MaxCommands, mirror.MaxDuration(c.GitTimeout))
	}
	if c.StaleTaskAfter > 0 && c.ReaperInterval <= 0 {
		return errors.New("REAPER_INTERVAL must be a positive duration")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.SyncSchedule); err != nil {
		return errors.New("SYNC_SCHEDULE must be a five-field cron expression (e.g. '0 2 * * *')")
	}

	loc, err := time.LoadLocation(c.SyncTimezone)
	if err != nil {
		return errors.New("SYNC_TIMEZONE must be an IANA time zone name (e.g. 'Asia/Shanghai')")
	}
	c.SyncLocation = loc

	return nil
}
