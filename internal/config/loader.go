package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"product_advisor/internal/logger"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// placeholderKey is the sample value shipped in .env templates, treated as no credential
const placeholderKey = "your_api_key_here"

// Config represents the structure of config.yaml
type Config struct {
	Log     logger.Config `yaml:"log"`
	LLM     LLMConfig     `yaml:"llm"`
	Redis   RedisConfig   `yaml:"redis"`
	Catalog CatalogConfig `yaml:"catalog"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// LLMConfig selects and tunes the generative backend
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // openai, deepseek, ollama, ark
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RedisConfig holds Redis configuration; an empty URL selects the in-memory session store
type RedisConfig struct {
	URL string        `yaml:"url"`
	TTL time.Duration `yaml:"ttl"`
}

// CatalogConfig locates the product catalog
type CatalogConfig struct {
	DBPath          string `yaml:"db_path"`
	SeedFile        string `yaml:"seed_file"`
	DefaultCategory string `yaml:"default_category"`
}

// HTTPConfig holds the listen address of the API server
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// env lists the environment overrides, applied on top of the YAML file
type env struct {
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	LogFormat       string        `envconfig:"LOG_FORMAT"`
	LLMProvider     string        `envconfig:"LLM_PROVIDER"`
	LLMAPIKey       string        `envconfig:"LLM_API_KEY"`
	LLMModel        string        `envconfig:"LLM_MODEL"`
	LLMBaseURL      string        `envconfig:"LLM_BASE_URL"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT"`
	RedisURL        string        `envconfig:"REDIS_URL"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL"`
	CatalogDBPath   string        `envconfig:"CATALOG_DB_PATH"`
	DefaultCategory string        `envconfig:"DEFAULT_CATALOG_CATEGORY"`
	HTTPHost        string        `envconfig:"HTTP_HOST"`
	HTTPPort        int           `envconfig:"HTTP_PORT"`
}

// Default returns the configuration used when no file or environment is present
func Default() *Config {
	return &Config{
		Log: logger.Config{
			Level:      "info",
			Format:     "console",
			Output:     "stdout",
			TimeFormat: "rfc3339",
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "openai/gpt-4o-mini",
			BaseURL:     "https://openrouter.ai/api/v1",
			MaxTokens:   1500,
			Temperature: 0.1,
			Timeout:     20 * time.Second,
		},
		Redis: RedisConfig{
			TTL: 60 * time.Minute,
		},
		Catalog: CatalogConfig{
			DBPath:          "data/catalog.db",
			DefaultCategory: "laptop",
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
	}
}

// LoadConfig reads the optional YAML file at path, loads .env if present and
// applies environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("error parsing YAML: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// .env is a convenience for local runs
	_ = godotenv.Load()

	var overrides env
	if err := envconfig.Process("", &overrides); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	overrides.apply(config)

	return config, nil
}

func (e env) apply(c *Config) {
	setString(&c.Log.Level, e.LogLevel)
	setString(&c.Log.Format, e.LogFormat)
	setString(&c.LLM.Provider, e.LLMProvider)
	setString(&c.LLM.APIKey, e.LLMAPIKey)
	setString(&c.LLM.Model, e.LLMModel)
	setString(&c.LLM.BaseURL, e.LLMBaseURL)
	setString(&c.Redis.URL, e.RedisURL)
	setString(&c.Catalog.DBPath, e.CatalogDBPath)
	setString(&c.Catalog.DefaultCategory, e.DefaultCategory)
	setString(&c.HTTP.Host, e.HTTPHost)
	if e.LLMTimeout > 0 {
		c.LLM.Timeout = e.LLMTimeout
	}
	if e.SessionTTL > 0 {
		c.Redis.TTL = e.SessionTTL
	}
	if e.HTTPPort > 0 {
		c.HTTP.Port = e.HTTPPort
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// HasCredential reports whether the generative backend can be used.
// Ollama runs locally and needs no key.
func (l LLMConfig) HasCredential() bool {
	if strings.EqualFold(l.Provider, "ollama") {
		return true
	}
	key := strings.TrimSpace(l.APIKey)
	return key != "" && key != placeholderKey
}
