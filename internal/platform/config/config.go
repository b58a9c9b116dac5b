package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	SourceStdin = "stdin"
	SourceHTTP  = "http"
	SourceRedis = "redis"
)

type Config struct {
	ConsoleURL        string  `env:"CONSOLE_URL"`
	PollIntervalMs    int     `env:"POLL_INTERVAL_MS" default:"250"`
	ReconnectDelayMs  int     `env:"RECONNECT_DELAY_MS" default:"5000"`
	SendTimeoutMs     int     `env:"SEND_TIMEOUT_MS" default:"3000"`
	SendRatePerSecond float64 `env:"SEND_RATE_PER_SECOND" default:"0"`
	DispatchMode      string  `env:"DISPATCH_MODE" default:"persistent"`

	CommandSource string `env:"COMMAND_SOURCE" default:"stdin"`
	RedisURL      string `env:"REDIS_URL"`
	RedisQueueKey string `env:"REDIS_QUEUE_KEY" default:"bridge:commands"`
	QueueCapacity int    `env:"COMMAND_QUEUE_CAPACITY" default:"1024"`

	HTTPAddr  string `env:"HTTP_ADDR" default:":8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMs) * time.Millisecond
}

func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutMs) * time.Millisecond
}

func validate(cfg *Config) error {
	if cfg.ConsoleURL == "" {
		return errors.New("CONSOLE_URL is required")
	}
	u, err := url.Parse(cfg.ConsoleURL)
	if err != nil {
		return fmt.Errorf("CONSOLE_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("CONSOLE_URL must use ws:// or wss://, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("CONSOLE_URL must include a host")
	}

	positive := map[string]int{
		"POLL_INTERVAL_MS":   cfg.PollIntervalMs,
		"RECONNECT_DELAY_MS": cfg.ReconnectDelayMs,
		"SEND_TIMEOUT_MS":    cfg.SendTimeoutMs,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %d", name, value)
		}
	}

	if cfg.SendRatePerSecond < 0 {
		return fmt.Errorf("SEND_RATE_PER_SECOND must not be negative, got %v", cfg.SendRatePerSecond)
	}

	if cfg.DispatchMode != "persistent" && cfg.DispatchMode != "oneshot" {
		return fmt.Errorf("DISPATCH_MODE must be persistent or oneshot, got %q", cfg.DispatchMode)
	}

	switch cfg.CommandSource {
	case SourceStdin:
	case SourceHTTP:
		if cfg.HTTPAddr == "" {
			return errors.New("HTTP_ADDR is required when COMMAND_SOURCE is http")
		}
		if cfg.QueueCapacity <= 0 {
			return fmt.Errorf("COMMAND_QUEUE_CAPACITY must be a positive integer, got %d", cfg.QueueCapacity)
		}
	case SourceRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required when COMMAND_SOURCE is redis")
		}
		if cfg.RedisQueueKey == "" {
			return errors.New("REDIS_QUEUE_KEY must not be empty")
		}
	default:
		return fmt.Errorf("COMMAND_SOURCE must be stdin, http or redis, got %q", cfg.CommandSource)
	}

	return nil
}
