package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config описывает настройки запуска сервиса заказов.
type Config struct {
	App struct {
		MetricsAddr string `koanf:"metrics_addr"`
		LogLevel    string `koanf:"log_level"`
	} `koanf:"app"`

	AMQP struct {
		URL          string        `koanf:"url"`
		Prefetch     int           `koanf:"prefetch"`
		CallTimeout  time.Duration `koanf:"call_timeout"`
		CatalogQueue string        `koanf:"catalog_queue"`
	} `koanf:"amqp"`

	Postgres struct {
		DSN string `koanf:"dsn"`
	} `koanf:"postgres"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
	} `koanf:"kafka"`
}

// DefaultConfig возвращает конфигурацию с адресами по умолчанию.
func DefaultConfig() Config {
	var cfg Config
	cfg.App.MetricsAddr = ":9090"
	cfg.App.LogLevel = "info"
	cfg.AMQP.Prefetch = 50
	cfg.AMQP.CallTimeout = 10 * time.Second
	return cfg
}

// LoadConfig собирает конфигурацию: yaml-файл (опционально) и поверх него
// переменные окружения с префиксом ORDERS_ (вложенность через __,
// например ORDERS_AMQP__URL, ORDERS_POSTGRES__DSN).
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("ORDERS_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "ORDERS_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет обязательные поля конфигурации.
func (c Config) Validate() error {
	if c.AMQP.URL == "" {
		return fmt.Errorf("amqp.url is required")
	}
	if c.App.MetricsAddr == "" {
		return fmt.Errorf("app.metrics_addr is required")
	}
	return nil
}
