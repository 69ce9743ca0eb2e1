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

type APIConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"` // empty -> in-memory repositories and ledger
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty -> in-memory rate limiter
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type LimitsConfig struct {
	RateCapacity     int           `yaml:"rate_capacity"`      // tokens per bucket
	RateRefillPerMin int           `yaml:"rate_refill_per_min"`
	BucketIdleTTL    time.Duration `yaml:"bucket_idle_ttl"`
	MaxBuckets       int           `yaml:"max_buckets"`
	BatchConcurrency int           `yaml:"batch_concurrency"` // items in flight per batch
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Limits   LimitsConfig   `yaml:"limits"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
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
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.Limits.RateCapacity <= 0 {
		cfg.Limits.RateCapacity = 10
	}
	if cfg.Limits.RateRefillPerMin <= 0 {
		cfg.Limits.RateRefillPerMin = 10
	}
	if cfg.Limits.BucketIdleTTL <= 0 {
		cfg.Limits.BucketIdleTTL = 10 * time.Minute
	}
	if cfg.Limits.MaxBuckets <= 0 {
		cfg.Limits.MaxBuckets = 10000
	}
	if cfg.Limits.BatchConcurrency <= 0 {
		cfg.Limits.BatchConcurrency = 3
	}

	// Minimal validation
	if !dev && cfg.API.JWTSecret == "" {
		return nil, errors.New("api.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
