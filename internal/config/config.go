package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	HTTPServer  `yaml:"http_server"`
	Limits      `yaml:"limits"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

// Limits bound the query windows so recurrence expansion work per request
// stays finite.
type Limits struct {
	EventInstancesQueryLimit time.Duration `yaml:"event_instances_query_limit" env-default:"1464h"`
	BookingSlotsQueryLimit   time.Duration `yaml:"booking_slots_query_limit" env-default:"240h"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
