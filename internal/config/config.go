// Package config предоставляет структуры и функции для загрузки конфигурации
// из YAML-файла и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	Storage         `yaml:"storage"`
	Billing         `yaml:"billing"`
	Log             `yaml:"log"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	SMTP            `yaml:"smtp"`
	Sender          `yaml:"sender"`
}

// Storage настройки подключения к реляционному хранилищу.
type Storage struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	DSN         string `yaml:"dsn" env:"STORAGE_DSN" env-default:"isp.db"`
	SkipMigrate bool   `yaml:"skip_migrate" env:"STORAGE_SKIP_MIGRATE"`
}

// Billing бизнес-параметры тарифов и напоминаний.
type Billing struct {
	PriceMin           float64 `yaml:"price_min" env:"BILLING_PRICE_MIN" env-default:"2000"`
	PriceMax           float64 `yaml:"price_max" env:"BILLING_PRICE_MAX" env-default:"100000"`
	Currency           string  `yaml:"currency" env:"BILLING_CURRENCY" env-default:"KES"`
	ReminderWindowDays int     `yaml:"reminder_window_days" env:"BILLING_REMINDER_WINDOW_DAYS" env-default:"7"`
}

// Log настройки логирования. Пустой File означает вывод в stderr.
type Log struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"10"`
	MaxBackups int    `yaml:"max_backups" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env-default:"28"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кеш.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	TTL          time.Duration `yaml:"ttl" env-default:"1h"`
}

// RabbitMQ настройки брокера для уведомлений о напоминаниях.
// Пустой URL означает, что напоминания только пишутся в лог.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange           string        `yaml:"exchange" env-default:"notifications"`
	Queue              string        `yaml:"queue" env-default:"notifications.reminders"`
	RoutingKey         string        `yaml:"routing_key" env-default:"reminder"`
}

// SMTP настройки почтового сервера для отправки напоминаний.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// Sender настройки воркера отправки напоминаний.
type Sender struct {
	AddressHTTP   string        `yaml:"address_http" env:"SENDER_ADDRESS_HTTP" env-default:":8081"`
	TimeoutHTTP   time.Duration `yaml:"timeout_http" env-default:"10s"`
	RatePerMinute int           `yaml:"rate_per_minute" env-default:"30"`
	Workers       int           `yaml:"workers" env-default:"10"`
}

// Load читает конфигурацию из файла path. Если path пуст, берётся CONFIG_PATH,
// а при его отсутствии конфигурация собирается из переменных окружения и значений по умолчанию.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, cfg.validate()
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, cfg.validate()
}

// MustLoad загружает конфиг по CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load("")
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported storage driver %q", c.Driver)
	}
	if c.PriceMin > c.PriceMax {
		return fmt.Errorf("config: price_min %.2f is greater than price_max %.2f", c.PriceMin, c.PriceMax)
	}
	if c.ReminderWindowDays < 0 {
		return fmt.Errorf("config: reminder_window_days must not be negative")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  DSN: %s\n"+
			"Billing:\n"+
			"  Price: %.2f-%.2f %s\n"+
			"  ReminderWindowDays: %d\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"  Queue: %s\n"+
			"SMTP:\n"+
			"  Host: %s:%s\n"+
			"  User: %s\n",
		c.Env,
		c.Driver,
		mask(c.DSN),
		c.PriceMin, c.PriceMax, c.Currency,
		c.ReminderWindowDays,
		c.AddressRedis,
		c.DB,
		mask(c.RabbitMQURL),
		c.Queue,
		c.SMTPHost, c.SMTPPort,
		c.SMTPUser,
	)
}

// mask скрывает значения, которые могут содержать пароли.
func mask(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8] + "***"
}
