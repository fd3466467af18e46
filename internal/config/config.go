package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Upstreams  Upstreams  `yaml:"upstreams"`
	UserDB     UserDB     `yaml:"user_db"`
}

type HTTPServer struct {
	Address        string   `yaml:"address" env:"HTTP_SERVER_ADDRESS" env-default:"0.0.0.0:8080"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"*"`
}

type Upstreams struct {
	MonitoringBaseURL string        `yaml:"monitoring_base_url" env:"MONITORING_BASE_URL"`
	IdentityBaseURL   string        `yaml:"identity_base_url" env:"IDENTITY_BASE_URL"`
	Timeout           time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"10s"`
}

type UserDB struct {
	DSN string `yaml:"dsn" env:"USER_DB_DSN"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	var config Config
	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		log.Fatalf("cannot read config %s: %v", configPath, err)
	}
	return &config
}
