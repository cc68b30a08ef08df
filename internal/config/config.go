// Package config содержит логику чтения конфигурации сервиса foodwrapped.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

const defaultGenAIAddress = "https://generativelanguage.googleapis.com"

// Config содержит параметры конфигурации сервиса foodwrapped.
type Config struct {
	RunAddress   string `env:"RUN_ADDRESS"`
	DatabaseURI  string `env:"DATABASE_URI"`
	GenAIAddress string `env:"GENAI_ADDRESS"`
	GenAIAPIKey  string `env:"GOOGLE_API_KEY"`
	GenAIModel   string `env:"GENAI_MODEL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envGenAIAddress := cfg.GenAIAddress
	envGenAIAPIKey := cfg.GenAIAPIKey
	envGenAIModel := cfg.GenAIModel

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for upload history (optional)")
	flag.StringVar(&cfg.GenAIAddress, "g", defaultGenAIAddress, "text generation service address")
	flag.StringVar(&cfg.GenAIAPIKey, "k", "", "text generation service API key")
	flag.StringVar(&cfg.GenAIModel, "m", "", "text generation model name")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envGenAIAddress != "" {
		cfg.GenAIAddress = envGenAIAddress
	}
	if envGenAIAPIKey != "" {
		cfg.GenAIAPIKey = envGenAIAPIKey
	}
	if envGenAIModel != "" {
		cfg.GenAIModel = envGenAIModel
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.GenAIAddress == "" {
		cfg.GenAIAddress = defaultGenAIAddress
	}

	return cfg, nil
}
