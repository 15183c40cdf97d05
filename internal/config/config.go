package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8081"`
	RecordAPIURL   string        `env:"RECORD_API_URL" envDefault:"http://record-backend:8080/api"`
	RecordTimeout  time.Duration `env:"RECORD_API_TIMEOUT" envDefault:"5s"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"redis:6379"`
	KafkaBrokers   []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"kafka:9092"`
	ServiceName    string        `env:"SERVICE_NAME" envDefault:"order-gateway"`
	BusinessZone   string        `env:"BUSINESS_ZONE" envDefault:"Asia/Kolkata"`
	NotifierGroup  string        `env:"NOTIFIER_GROUP" envDefault:"order-notifier"`
	NotifierWorker int           `env:"NOTIFIER_WORKERS" envDefault:"4"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return c, nil
}
