package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server settings. Values come from an optional YAML file
// layered over these defaults; secrets stay in the environment.
type Config struct {
	Port                string   `yaml:"port"`
	UploadDir           string   `yaml:"upload_dir"`
	OutputDir           string   `yaml:"output_dir"`
	MaxUploadBytes      int64    `yaml:"max_upload_bytes"`
	Workers             int      `yaml:"workers"`
	ImageTimeoutSeconds int      `yaml:"image_timeout_seconds"`
	Provider            string   `yaml:"provider"`
	Model               string   `yaml:"model"`
	Temperature         float64  `yaml:"temperature"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
}

// Default returns the baseline configuration. The origin list mirrors the
// frontend dev setup this service ships with, wildcard included.
func Default() *Config {
	return &Config{
		Port:                "8000",
		UploadDir:           "uploads",
		OutputDir:           "processed",
		MaxUploadBytes:      10 * 1024 * 1024,
		Workers:             3,
		ImageTimeoutSeconds: 60,
		Provider:            "gemini",
		Temperature:         0.2,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"*",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error; an unreadable or malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.ImageTimeoutSeconds < 1 {
		return nil, fmt.Errorf("image_timeout_seconds must be at least 1, got %d", cfg.ImageTimeoutSeconds)
	}

	return cfg, nil
}

// ImageTimeout returns the per-image analysis deadline.
func (c *Config) ImageTimeout() time.Duration {
	return time.Duration(c.ImageTimeoutSeconds) * time.Second
}

// ResolveModel returns the configured model, falling back to the
// provider's default when unset.
func (c *Config) ResolveModel() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case "gemini":
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return "gemini-1.5-flash"
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o"
	case "ollama":
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return "mistral-small3.2:24b"
	}
	return ""
}
