package config

import (
	"errors"
	"fmt"
	"os"

	"libris/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Backend    BackendConfig    `yaml:"backend"`
	Auth       AuthConfig       `yaml:"auth"`
	Cache      CacheConfig      `yaml:"cache"`
	Polling    PollingConfig    `yaml:"polling"`
	Pagination PaginationConfig `yaml:"pagination"`
	Exports    ExportConfig     `yaml:"exports"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type BackendConfig struct {
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

type AuthConfig struct {
	RefreshCookie      string `yaml:"refresh_cookie"`
	TokenLeewaySeconds int    `yaml:"token_leeway_seconds"`
}

type CacheConfig struct {
	Enabled    bool        `yaml:"enabled"`
	TTLSeconds int         `yaml:"ttl_seconds"`
	Redis      RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type PollingConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	MaxAttempts     int `yaml:"max_attempts"`
}

type PaginationConfig struct {
	PageSize int `yaml:"page_size"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment variables referenced from the YAML may
	// come from the real environment just as well.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand ${VAR} references before parsing so secrets stay out of the file
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend base_url is required")
	}

	if c.Cache.Enabled && c.Cache.Redis.Address == "" {
		return errors.New("cache.redis.address is required when cache is enabled")
	}

	if c.Polling.MaxAttempts < 0 {
		return errors.New("polling.max_attempts must not be negative")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "libris"
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = models.DefaultRequestTimeout
	}
	if c.Backend.RateLimitRPS == 0 {
		c.Backend.RateLimitRPS = 10
	}
	if c.Backend.RateLimitBurst == 0 {
		c.Backend.RateLimitBurst = 20
	}
	if c.Auth.RefreshCookie == "" {
		c.Auth.RefreshCookie = "refresh_token"
	}
	if c.Auth.TokenLeewaySeconds == 0 {
		c.Auth.TokenLeewaySeconds = models.DefaultTokenLeeway
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = models.DefaultCacheTTL
	}
	if c.Polling.IntervalSeconds == 0 {
		c.Polling.IntervalSeconds = models.DefaultPollInterval
	}
	if c.Polling.MaxAttempts == 0 {
		c.Polling.MaxAttempts = models.DefaultPollMaxAttempts
	}
	if c.Pagination.PageSize == 0 {
		c.Pagination.PageSize = models.DefaultPageSize
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
