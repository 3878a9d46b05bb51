package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	Env         string `envconfig:"ENV" default:"development"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	BaseURL     string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	JWTAccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`

	Log       LogConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Connector ConnectorConfig
	SMTP      SMTPConfig
}

type LogConfig struct {
	Level     string `envconfig:"LOG_LEVEL" default:"info"`
	Format    string `envconfig:"LOG_FORMAT" default:"json"`
	WarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
}

type RedisConfig struct {
	URL         string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	DialTimeout time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
}

type SchedulerConfig struct {
	Enabled            bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	OrphanScanSchedule string        `envconfig:"ORPHAN_SCAN_SCHEDULE" default:"@every 1h"`
	SiteSyncSchedule   string        `envconfig:"SITE_SYNC_SCHEDULE" default:"@every 30m"`
	LockTTL            time.Duration `envconfig:"SCHEDULER_LOCK_TTL" default:"10m"`
	// UnreadPollInterval paces the unread counts pushed over /events.
	UnreadPollInterval time.Duration `envconfig:"UNREAD_POLL_INTERVAL" default:"10s"`
}

type ConnectorConfig struct {
	Timeout            time.Duration `envconfig:"CONNECTOR_TIMEOUT" default:"30s"`
	InstallConcurrency int           `envconfig:"INSTALL_CONCURRENCY" default:"4"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     string `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("required environment variable not set: JWT_SECRET")
	}
	if cfg.Connector.InstallConcurrency < 1 {
		cfg.Connector.InstallConcurrency = 1
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
