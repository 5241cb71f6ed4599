package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvironment     = "development"
	defaultRefreshInterval = 5 * time.Minute
	defaultTimezone        = "UTC"
)

type Config struct {
	DBDSN         string `mapstructure:"DB_DSN"`
	Environment   string `mapstructure:"ENV"`
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`

	// StatusRefreshInterval - период фонового пересчёта статусов мероприятий (0 - выключен)
	StatusRefreshInterval time.Duration `mapstructure:"STATUS_REFRESH_INTERVAL"`
	// Location - часовой пояс, в котором бот показывает время
	Location *time.Location `mapstructure:"TIMEZONE"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv читает конфигурацию из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:                 os.Getenv("DB_DSN"),
		Environment:           os.Getenv("ENV"),
		TelegramToken:         os.Getenv("TELEGRAM_TOKEN"),
		StatusRefreshInterval: defaultRefreshInterval,
	}

	if cfg.Environment == "" {
		cfg.Environment = defaultEnvironment
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	if raw := os.Getenv("STATUS_REFRESH_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse STATUS_REFRESH_INTERVAL: %w", err)
		}
		if interval < 0 {
			return nil, fmt.Errorf("STATUS_REFRESH_INTERVAL must not be negative")
		}
		cfg.StatusRefreshInterval = interval
	}

	tz := os.Getenv("TIMEZONE")
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// BotEnabled сообщает, задан ли токен Telegram-бота
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}
