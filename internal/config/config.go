// Package config resolves leadr settings from defaults, an optional YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/leadr/internal/leadapi"
	"github.com/sadopc/leadr/internal/pipeline"
	"github.com/sadopc/leadr/internal/store"
)

type Config struct {
	API    APIConfig    `yaml:"api"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Export ExportConfig `yaml:"export"`
}

type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	SessionCookie string        `yaml:"session_cookie"`
	PageLimit     int           `yaml:"page_limit"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

const maxPageLimit = 1000

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		dbPath = filepath.Join(".", "leadr.db")
	}
	dir := filepath.Dir(dbPath)
	return Config{
		API: APIConfig{
			BaseURL:   leadapi.DefaultBaseURL,
			Timeout:   15 * time.Second,
			PageLimit: pipeline.DefaultPageLimit,
		},
		DB:     DBConfig{Path: dbPath},
		Log:    LogConfig{Path: filepath.Join(dir, "leadr.log"), Level: "info"},
		Export: ExportConfig{Dir: "."},
	}
}

// LoadDotenv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("LEADR_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if v := firstEnv("LEADR_API_BASE_URL", "VITE_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("LEADR_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LEADR_API_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}
	if v := os.Getenv("LEADR_SESSION_COOKIE"); v != "" {
		cfg.API.SessionCookie = v
	}
	if v := os.Getenv("LEADR_PAGE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LEADR_PAGE_LIMIT: %w", err)
		}
		cfg.API.PageLimit = n
	}
	if v := os.Getenv("LEADR_DB_PATH"); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv("LEADR_LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}
	if v := os.Getenv("LEADR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LEADR_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.PageLimit < 1 || c.API.PageLimit > maxPageLimit {
		return fmt.Errorf("page limit must be between 1 and %d, got %d", maxPageLimit, c.API.PageLimit)
	}
	if c.DB.Path == "" {
		return errors.New("db path is empty")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level. Invalid levels were rejected
// by Validate and map to info here.
func (c Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
