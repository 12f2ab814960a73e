package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr     string   `env:"LISTEN_ADDR" envDefault:":5000"`
	PostgresURL    string   `env:"POSTGRES_URL,required"`
	JWTKey         string   `env:"JWT_KEY,required"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	Debug          bool     `env:"DEBUG" envDefault:"false"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
