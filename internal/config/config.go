package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	CORS     CORSConfig     `yaml:"cors"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

type ServerConfig struct {
	Port     int    `yaml:"port" default:"8000"`
	LogLevel string `yaml:"log_level" default:"info"`
}

type SessionConfig struct {
	// Secret signs and verifies session cookies and extension bearer tokens.
	Secret string `yaml:"secret"`
}

type CORSConfig struct {
	// CanonicalOrigin is the deployment's own origin, always allow-listed.
	CanonicalOrigin string `yaml:"canonical_origin"`
	// ExtraOrigins are additional operator-approved origins.
	ExtraOrigins []string `yaml:"extra_origins"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" default:"localhost:6379"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Timeout  time.Duration `yaml:"timeout" default:"500ms"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// Load reads a YAML config file and applies environment overrides.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	LoadFromEnv(cfg)
	return cfg, nil
}

// Default returns a config with development defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8000,
			LogLevel: "info",
		},
		CORS: CORSConfig{
			CanonicalOrigin: "http://localhost:3000",
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Timeout: 500 * time.Millisecond,
		},
	}
}
