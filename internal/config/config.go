package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Debug   bool    `yaml:"debug"`
	Backend Backend `yaml:"backend"`
	Limiter Limiter `yaml:"limiter"`
	Session Session `yaml:"session"`
	Tasks   Tasks   `yaml:"tasks"`
}

type Backend struct {
	BaseURL      string        `yaml:"base_url" env:"BACKEND_BASE_URL" env-default:"http://localhost:5000"`
	Timeout      time.Duration `yaml:"timeout" env-default:"10s"`
	RetriesCount int           `yaml:"retries_count" env-default:"2"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled"`
	Rps     float64 `yaml:"rps" env-default:"20"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Session struct {
	TokenPath string `yaml:"token_path" env:"SESSION_TOKEN_PATH" env-default:".reelrate_token"`
}

type Tasks struct {
	MaxWorkers         int           `yaml:"max_workers" env-default:"2"`
	MaxQueueSize       int           `yaml:"max_queue_size" env-default:"16"`
	HealthPollInterval time.Duration `yaml:"health_poll_interval" env-default:"30s"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
}

func MustLoad(configPath string) *Config {
	var cfg Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic(fmt.Errorf("config file %s not found", configPath))
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic(err)
	}

	return &cfg
}
