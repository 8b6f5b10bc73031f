package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	FallbackFile  = "file"
	FallbackRedis = "redis"
	FallbackNone  = "none"
)

// RedisConfig points the redis fallback backend at a server
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

type Config struct {
	// DataDir holds the sqlite database and the file fallback store
	DataDir string `yaml:"data_dir,omitempty"`

	// Debounce is the quiet period before a write, as a Go duration ("500ms")
	Debounce string `yaml:"debounce,omitempty"`

	// UpcomingDays is the default window for upcoming renewals
	UpcomingDays int `yaml:"upcoming_days,omitempty"`

	// Fallback selects the secondary backend: file (default), redis or none
	Fallback string `yaml:"fallback,omitempty"`

	Redis RedisConfig `yaml:"redis,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level,omitempty"`

	// Locale forces the money formatting locale, e.g. "sv_SE". Empty means detect.
	Locale string `yaml:"locale,omitempty"`

	// compiled fields
	debounce time.Duration `yaml:"-"`
	logLevel slog.Level    `yaml:"-"`
}

// DefaultConfigPath returns the default config file path (~/.subscription-tracker/config.yaml)
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".subscription-tracker", "config.yaml")
}

// DefaultDataDir returns ~/.subscription-tracker, or a relative directory when
// the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".subscription-tracker"
	}
	return filepath.Join(home, ".subscription-tracker")
}

// NewDefaultConfig creates a compiled config with every value at its default.
// Use this when no config file exists.
func NewDefaultConfig() (*Config, error) {
	cfg := &Config{}
	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigOrDefault loads path if it exists and falls back to defaults if it doesn't.
func LoadConfigOrDefault(path string) (*Config, error) {
	if path == "" {
		return NewDefaultConfig()
	}
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDefaultConfig()
	}
	return cfg, err
}

// compile fills defaults and parses the typed fields
func (c *Config) compile() error {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Debounce == "" {
		c.Debounce = DefaultDebounce.String()
	}
	if c.UpcomingDays <= 0 {
		c.UpcomingDays = DefaultUpcomingDays
	}
	if c.Fallback == "" {
		c.Fallback = FallbackFile
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}

	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return fmt.Errorf("invalid debounce %q: %w", c.Debounce, err)
	}
	if d < 0 {
		return fmt.Errorf("invalid debounce %q: must not be negative", c.Debounce)
	}
	c.debounce = d

	switch c.Fallback {
	case FallbackFile, FallbackNone:
	case FallbackRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("fallback redis needs redis.addr")
		}
	default:
		return fmt.Errorf("invalid fallback %q (want file, redis or none)", c.Fallback)
	}

	if err := c.logLevel.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// LoadDotEnv loads environment files into the process environment. Missing
// files are skipped; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// getEnv returns the value of key, or fallback when it is unset or empty
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ApplyEnv overrides config values from SUBTRACK_* environment variables.
func (c *Config) ApplyEnv() error {
	c.DataDir = getEnv("SUBTRACK_DATA_DIR", c.DataDir)
	c.Fallback = getEnv("SUBTRACK_FALLBACK", c.Fallback)
	c.Redis.Addr = getEnv("SUBTRACK_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("SUBTRACK_REDIS_PASSWORD", c.Redis.Password)
	if db := os.Getenv("SUBTRACK_REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return fmt.Errorf("invalid SUBTRACK_REDIS_DB %q: %w", db, err)
		}
		c.Redis.DB = n
	}
	c.LogLevel = strings.ToLower(getEnv("SUBTRACK_LOG_LEVEL", c.LogLevel))
	c.Locale = getEnv("SUBTRACK_LOCALE", c.Locale)
	return c.compile()
}

func (c *Config) DebounceDuration() time.Duration {
	return c.debounce
}

func (c *Config) Level() slog.Level {
	return c.logLevel
}

// DatabasePath is the sqlite file inside the data directory
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "state.db")
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
