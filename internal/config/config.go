// Package config loads ~/.debatepad/config.yml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL        = "http://localhost:8000"
	DefaultAPITimeout    = 30 * time.Second
	DefaultServerAddr    = ":8000"
	DefaultGenerator     = "static"
	DefaultGeminiModel   = "gemini-1.5-flash"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultLogLevel      = "info"
	defaultStoreFileName = "debatepad.db"
)

type Config struct {
	API    APIConfig    `yaml:"api" json:"api"`
	Server ServerConfig `yaml:"server" json:"server"`
	Gemini GeminiConfig `yaml:"gemini" json:"gemini"`
	OpenAI OpenAIConfig `yaml:"openai" json:"openai"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

type APIConfig struct {
	URL     string        `yaml:"url" json:"url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gte=0"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr" json:"addr" validate:"required"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
	// Store is a sqlite file path or a mongodb:// URI.
	Store     string `yaml:"store" json:"store" validate:"required"`
	Generator string `yaml:"generator" json:"generator" validate:"oneof=static gemini openai"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key" json:"api_key"`
	Model  string `yaml:"model" json:"model"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key" json:"api_key"`
	Model  string `yaml:"model" json:"model"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file" json:"file"`
}

// Dir is ~/.debatepad unless DEBATEPAD_CONFIG_DIR is set.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("DEBATEPAD_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".debatepad"), nil
}

// Path is the config file location: $DEBATEPAD_CONFIG, else <Dir>/config.yml.
func Path() (string, error) {
	if v := strings.TrimSpace(os.Getenv("DEBATEPAD_CONFIG")); v != "" {
		return v, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

func Default() *Config {
	cfg := &Config{
		API:    APIConfig{URL: DefaultAPIURL, Timeout: DefaultAPITimeout},
		Server: ServerConfig{Addr: DefaultServerAddr, CORSOrigins: []string{"*"}, Generator: DefaultGenerator},
		Gemini: GeminiConfig{Model: DefaultGeminiModel},
		OpenAI: OpenAIConfig{Model: DefaultOpenAIModel},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
	if dir, err := Dir(); err == nil {
		cfg.Server.Store = filepath.Join(dir, defaultStoreFileName)
	} else {
		cfg.Server.Store = defaultStoreFileName
	}
	return cfg
}

// Load reads path (or Path() when empty). A missing file yields the defaults. Environment
// overrides are applied on top and the result is validated.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.API.URL, "DEBATEPAD_API_URL")
	set(&c.Server.Store, "DEBATEPAD_STORE")
	set(&c.Server.Generator, "DEBATEPAD_GENERATOR")
	set(&c.Server.Addr, "DEBATEPAD_ADDR")
	set(&c.Gemini.APIKey, "GEMINI_API_KEY")
	set(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&c.Log.Level, "DEBATEPAD_LOG_LEVEL")
}

// fillDefaults restores defaults for keys a config file set to empty.
func (c *Config) fillDefaults() {
	d := Default()
	if strings.TrimSpace(c.API.URL) == "" {
		c.API.URL = d.API.URL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = d.API.Timeout
	}
	if c.Server.Generator == "" {
		c.Server.Generator = d.Server.Generator
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = d.Gemini.Model
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = d.OpenAI.Model
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	c.Server.Generator = strings.ToLower(c.Server.Generator)
	c.Log.Level = strings.ToLower(c.Log.Level)
}

var validate = validator.New()

func (c *Config) Validate() error {
	return validate.Struct(c)
}

// ResolveAPIURL applies flag > env > file > default precedence. Load already folded the
// environment into c.API.URL.
func (c *Config) ResolveAPIURL(flag string) string {
	if v := strings.TrimSpace(flag); v != "" {
		return v
	}
	if c != nil && strings.TrimSpace(c.API.URL) != "" {
		return c.API.URL
	}
	return DefaultAPIURL
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Gemini.APIKey != "" {
		c.Gemini.APIKey = "********"
	}
	if c.OpenAI.APIKey != "" {
		c.OpenAI.APIKey = "********"
	}
	c.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	return c
}

// Save writes cfg as YAML, replacing the file atomically.
func Save(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".config-*.yml")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
