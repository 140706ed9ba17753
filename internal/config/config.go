// Package config loads the lostfound configuration: a YAML file, an optional
// .env file and LOSTFOUND_* environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all lostfound configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Notify  NotifyConfig  `yaml:"notify"`
	Media   MediaConfig   `yaml:"media"`
	Logging LoggingConfig `yaml:"logging"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"` // login and register, per client
	TokenTTL        string `yaml:"token_ttl"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"` // sqlite, postgres, bolt, redis, memory
	Path        string `yaml:"path"`    // sqlite and bolt file
	DatabaseURL string `yaml:"database_url"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// AuthConfig selects the credential verifier.
type AuthConfig struct {
	Verifier     string   `yaml:"verifier"` // demo, bcrypt
	DemoPassword string   `yaml:"demo_password"`
	Admins       []string `yaml:"admins,omitempty"` // university IDs enrolled as admins
}

// NotifyConfig configures claim notifications.
type NotifyConfig struct {
	Backend   string `yaml:"backend"` // memory, redis, off
	QueueSize int    `yaml:"queue_size"`
	RedisKey  string `yaml:"redis_key"`
}

// MediaConfig configures item photos.
type MediaConfig struct {
	Backend      string   `yaml:"backend"` // inline, b2
	MaxDimension int      `yaml:"max_dimension"`
	Quality      int      `yaml:"quality"`
	MaxBytes     int64    `yaml:"max_bytes"`
	B2           B2Config `yaml:"b2"`
}

// B2Config holds Backblaze B2 credentials.
type B2Config struct {
	KeyID   string `yaml:"key_id"`
	AppKey  string `yaml:"app_key"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	BaseURL string `yaml:"base_url"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// CatalogConfig overrides the report form catalog. Empty lists keep the
// built-in values.
type CatalogConfig struct {
	Categories []string `yaml:"categories,omitempty"`
	Locations  []string `yaml:"locations,omitempty"`
}

// Valid option values.
var (
	StorageBackends = []string{"sqlite", "postgres", "bolt", "redis", "memory"}
	Verifiers       = []string{"demo", "bcrypt"}
	NotifyBackends  = []string{"memory", "redis", "off"}
	MediaBackends   = []string{"inline", "b2"}
	LogLevels       = []string{"debug", "info", "warn", "error"}
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			RateLimitPerMin: 30,
			TokenTTL:        "168h",
			ShutdownTimeout: "10s",
		},
		Storage: StorageConfig{
			Backend:     "sqlite",
			Path:        "lostfound.sqlite3",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "lostfound:",
		},
		Auth: AuthConfig{
			Verifier:     "demo",
			DemoPassword: "password",
		},
		Notify: NotifyConfig{
			Backend:   "memory",
			QueueSize: 64,
		},
		Media: MediaConfig{
			Backend:      "inline",
			MaxDimension: 1024,
			Quality:      85,
			MaxBytes:     10 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the environment file (if any), then the YAML file at path, then
// applies environment overrides. A missing YAML or environment file is not an
// error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	str := map[string]*string{
		"LOSTFOUND_ADDR":          &c.Server.Addr,
		"LOSTFOUND_TOKEN_TTL":     &c.Server.TokenTTL,
		"LOSTFOUND_STORAGE":       &c.Storage.Backend,
		"LOSTFOUND_DB_PATH":       &c.Storage.Path,
		"LOSTFOUND_DATABASE_URL":  &c.Storage.DatabaseURL,
		"LOSTFOUND_REDIS_ADDR":    &c.Storage.RedisAddr,
		"LOSTFOUND_VERIFIER":      &c.Auth.Verifier,
		"LOSTFOUND_DEMO_PASSWORD": &c.Auth.DemoPassword,
		"LOSTFOUND_NOTIFY":        &c.Notify.Backend,
		"LOSTFOUND_MEDIA":         &c.Media.Backend,
		"LOSTFOUND_LOG_LEVEL":     &c.Logging.Level,
		"LOSTFOUND_LOG_FILE":      &c.Logging.File,
		"B2_KEY_ID":               &c.Media.B2.KeyID,
		"B2_APP_KEY":              &c.Media.B2.AppKey,
		"B2_BUCKET":               &c.Media.B2.Bucket,
		"B2_BASE_URL":             &c.Media.B2.BaseURL,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("LOSTFOUND_RATE_LIMIT_PER_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOSTFOUND_RATE_LIMIT_PER_MIN: %w", err)
		}
		c.Server.RateLimitPerMin = n
	}
	if v := os.Getenv("LOSTFOUND_ADMINS"); v != "" {
		c.Auth.Admins = nil
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				c.Auth.Admins = append(c.Auth.Admins, id)
			}
		}
	}
	return nil
}

// Validate checks option values and backend requirements.
func (c *Config) Validate() error {
	checks := []struct {
		name, value string
		valid       []string
	}{
		{"storage.backend", c.Storage.Backend, StorageBackends},
		{"auth.verifier", c.Auth.Verifier, Verifiers},
		{"notify.backend", c.Notify.Backend, NotifyBackends},
		{"media.backend", c.Media.Backend, MediaBackends},
		{"logging.level", c.Logging.Level, LogLevels},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.valid, ch.value) {
			return fmt.Errorf("invalid %s: %q (valid: %v)", ch.name, ch.value, ch.valid)
		}
	}

	switch c.Storage.Backend {
	case "sqlite", "bolt":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url is required for the postgres backend")
		}
	}
	if (c.Storage.Backend == "redis" || c.Notify.Backend == "redis") && c.Storage.RedisAddr == "" {
		return fmt.Errorf("storage.redis_addr is required when redis is used")
	}
	if c.Media.Backend == "b2" && (c.Media.B2.KeyID == "" || c.Media.B2.AppKey == "" || c.Media.B2.Bucket == "") {
		return fmt.Errorf("media.b2 key_id, app_key and bucket are required for the b2 backend")
	}

	if _, err := c.GetTokenTTL(); err != nil {
		return err
	}
	if _, err := c.GetShutdownTimeout(); err != nil {
		return err
	}
	if c.Server.RateLimitPerMin < 0 {
		return fmt.Errorf("server.rate_limit_per_min must not be negative")
	}
	return nil
}

// GetTokenTTL returns the API token lifetime.
func (c *Config) GetTokenTTL() (time.Duration, error) {
	return parseDuration("server.token_ttl", c.Server.TokenTTL, 7*24*time.Hour)
}

// GetShutdownTimeout returns how long serve waits for in-flight requests.
func (c *Config) GetShutdownTimeout() (time.Duration, error) {
	return parseDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDuration(name, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return d, nil
}
