// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables and an optional YAML file. It provides a centralized Config
// struct used by the server and the CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/goccy/go-yaml"

	"inkwell/internal/richtext"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Conversion options
	RawHTML     richtext.RawHTMLPolicy
	AlignTables bool

	// Public rendering
	HighlightStyle string

	ConvertCacheTTL time.Duration
	SessionTTL      time.Duration
	RateLimit       int // requests per minute per IP on /api

	ConfigFile string
}

// File is the YAML configuration file. Unset keys leave the environment
// values in place.
type File struct {
	Markdown struct {
		RawHTML     string `yaml:"raw_html"`
		AlignTables *bool  `yaml:"align_tables"`
	} `yaml:"markdown"`
	Render struct {
		HighlightStyle string `yaml:"highlight_style"`
	} `yaml:"render"`
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate, then overlays CONFIG_FILE when set.
// Returns an error if a value is malformed or critical values are missing
// in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "inkwell"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "inkwell"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		HighlightStyle: envOrDefault("HIGHLIGHT_STYLE", "monokai"),
		ConfigFile:     os.Getenv("CONFIG_FILE"),
	}

	var err error
	if cfg.RawHTML, err = richtext.ParseRawHTMLPolicy(envOrDefault("MARKDOWN_RAW_HTML", "escape")); err != nil {
		return nil, fmt.Errorf("MARKDOWN_RAW_HTML: %w", err)
	}
	if cfg.AlignTables, err = strconv.ParseBool(envOrDefault("MARKDOWN_ALIGN_TABLES", "false")); err != nil {
		return nil, fmt.Errorf("MARKDOWN_ALIGN_TABLES: %w", err)
	}
	if cfg.ConvertCacheTTL, err = time.ParseDuration(envOrDefault("CONVERT_CACHE_TTL", "10m")); err != nil {
		return nil, fmt.Errorf("CONVERT_CACHE_TTL: %w", err)
	}
	if cfg.SessionTTL, err = time.ParseDuration(envOrDefault("SESSION_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if cfg.RateLimit, err = strconv.Atoi(envOrDefault("RATE_LIMIT", "120")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT: %w", err)
	}

	if cfg.ConfigFile != "" {
		f, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(f); err != nil {
			return nil, err
		}
	}

	if err := ValidateStyle(cfg.HighlightStyle); err != nil {
		return nil, err
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT must be positive, got %d", cfg.RateLimit)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// LoadFile reads and decodes a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &f, nil
}

// Apply overlays the values set in f.
func (c *Config) Apply(f *File) error {
	if f.Markdown.RawHTML != "" {
		p, err := richtext.ParseRawHTMLPolicy(f.Markdown.RawHTML)
		if err != nil {
			return fmt.Errorf("markdown.raw_html: %w", err)
		}
		c.RawHTML = p
	}
	if f.Markdown.AlignTables != nil {
		c.AlignTables = *f.Markdown.AlignTables
	}
	if f.Render.HighlightStyle != "" {
		c.HighlightStyle = f.Render.HighlightStyle
	}
	return nil
}

// ValidateStyle returns an error unless name is a registered chroma style.
func ValidateStyle(name string) error {
	if _, ok := styles.Registry[name]; !ok {
		return fmt.Errorf("unknown highlight style %q", name)
	}
	return nil
}

// ConverterOptions returns the richtext options selected by the config.
func (c *Config) ConverterOptions() richtext.Options {
	return richtext.Options{RawHTML: c.RawHTML, AlignTables: c.AlignTables}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
