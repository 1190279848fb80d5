// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	APIKey          string        `yaml:"api_key"`           // bearer token for the API
	JWTSecret       string        `yaml:"jwt_secret"`        // HMAC secret for dashboard sessions
	SessionTTL      time.Duration `yaml:"session_ttl"`       // dashboard session lifetime
	StartRateLimit  int           `yaml:"start_rate_limit"`  // generation starts per user per window
	StartRateWindow time.Duration `yaml:"start_rate_window"` // fixed rate-limit window
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // plan cache TTL
}

// GenerationConfig controls the remote generation service client and the
// client-side poll loop.
type GenerationConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	GrowthFactor    float64       `yaml:"growth_factor"`
	GrowthEveryN    int           `yaml:"growth_every_n"`
	MaxAttempts     int           `yaml:"max_attempts"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Generation GenerationConfig `yaml:"generation"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(configPath string, dev bool) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = 30 * time.Minute
	}
	if cfg.Server.StartRateLimit <= 0 {
		cfg.Server.StartRateLimit = 10
	}
	if cfg.Server.StartRateWindow <= 0 {
		cfg.Server.StartRateWindow = time.Minute
	}
	if cfg.Generation.RequestTimeout <= 0 {
		cfg.Generation.RequestTimeout = 15 * time.Second
	}
	if cfg.Generation.InitialInterval <= 0 {
		cfg.Generation.InitialInterval = 2 * time.Second
	}
	if cfg.Generation.MaxInterval <= 0 {
		cfg.Generation.MaxInterval = 30 * time.Second
	}
	if cfg.Generation.GrowthFactor < 1 {
		cfg.Generation.GrowthFactor = 2
	}
	if cfg.Generation.GrowthEveryN <= 0 {
		cfg.Generation.GrowthEveryN = 3
	}
	if cfg.Generation.MaxAttempts <= 0 {
		// 1-3 minutes of polling with the default backoff ramp.
		cfg.Generation.MaxAttempts = 30
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Generation.BaseURL == "" {
		return nil, errors.New("generation.base_url is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
