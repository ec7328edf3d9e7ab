package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds console configuration. Values come from defaults, then an
// optional TOML file, then SPOTLIGHT_* environment variables.
type Config struct {
	Port     string `toml:"port"`
	LogLevel string `toml:"log_level"`
	DBPath   string `toml:"db_path"`

	Backend BackendConfig `toml:"backend"`
	Session SessionConfig `toml:"session"`
	List    ListConfig    `toml:"list"`
	S3      S3Config      `toml:"s3"`
}

type BackendConfig struct {
	// BaseURL is the fixed prefix of every backend call, e.g. https://host/api.
	BaseURL           string   `toml:"base_url"`
	ClientID          string   `toml:"client_id"`
	SkipTunnelWarning bool     `toml:"skip_tunnel_warning"`
	ImageBaseURL      string   `toml:"image_base_url"`
	Timeout           Duration `toml:"timeout"`
}

type SessionConfig struct {
	Secret       string   `toml:"secret"`
	CookieSecure bool     `toml:"cookie_secure"`
	DefaultTTL   Duration `toml:"default_ttl"`
}

type ListConfig struct {
	PageSize    int      `toml:"page_size"`
	ExportLimit int      `toml:"export_limit"`
	Debounce    Duration `toml:"debounce"`
}

type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

// Configured reports whether export archiving is enabled.
func (c S3Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Duration decodes TOML strings such as "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:     "8080",
		LogLevel: "info",
		DBPath:   "spotlight.db",
		Backend: BackendConfig{
			BaseURL:           "http://localhost:5000/api",
			ClientID:          "kce-admin",
			SkipTunnelWarning: true,
			Timeout:           Duration{15 * time.Second},
		},
		Session: SessionConfig{
			DefaultTTL: Duration{12 * time.Hour},
		},
		List: ListConfig{
			PageSize:    10,
			ExportLimit: 1000,
			Debounce:    Duration{500 * time.Millisecond},
		},
		S3: S3Config{
			Region: "auto",
		},
	}
}

// Load reads .env (if present), the TOML file at path (if non-empty) and
// the environment.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read layers .env, the optional TOML file and the environment over the
// defaults without validating the result. Commands that need only part of
// the configuration validate that part themselves.
func Read(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("SPOTLIGHT_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("SPOTLIGHT_PORT", &cfg.Port)
	str("SPOTLIGHT_LOG_LEVEL", &cfg.LogLevel)
	str("SPOTLIGHT_DB_PATH", &cfg.DBPath)
	str("SPOTLIGHT_BACKEND_URL", &cfg.Backend.BaseURL)
	str("SPOTLIGHT_CLIENT_ID", &cfg.Backend.ClientID)
	str("SPOTLIGHT_IMAGE_BASE_URL", &cfg.Backend.ImageBaseURL)
	str("SPOTLIGHT_SESSION_SECRET", &cfg.Session.Secret)
	str("SPOTLIGHT_S3_ENDPOINT", &cfg.S3.Endpoint)
	str("SPOTLIGHT_S3_BUCKET", &cfg.S3.Bucket)
	str("SPOTLIGHT_S3_REGION", &cfg.S3.Region)
	str("SPOTLIGHT_S3_ACCESS_KEY", &cfg.S3.AccessKey)
	str("SPOTLIGHT_S3_SECRET_KEY", &cfg.S3.SecretKey)

	if v := getenv("SPOTLIGHT_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SPOTLIGHT_COOKIE_SECURE: %w", err)
		}
		cfg.Session.CookieSecure = b
	}
	if v := getenv("SPOTLIGHT_SKIP_TUNNEL_WARNING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SPOTLIGHT_SKIP_TUNNEL_WARNING: %w", err)
		}
		cfg.Backend.SkipTunnelWarning = b
	}
	if v := getenv("SPOTLIGHT_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPOTLIGHT_PAGE_SIZE: %w", err)
		}
		cfg.List.PageSize = n
	}
	if v := getenv("SPOTLIGHT_EXPORT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPOTLIGHT_EXPORT_LIMIT: %w", err)
		}
		cfg.List.ExportLimit = n
	}
	if v := getenv("SPOTLIGHT_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SPOTLIGHT_DEBOUNCE: %w", err)
		}
		cfg.List.Debounce = Duration{d}
	}
	if v := getenv("SPOTLIGHT_BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SPOTLIGHT_BACKEND_TIMEOUT: %w", err)
		}
		cfg.Backend.Timeout = Duration{d}
	}
	return nil
}

// Validate rejects configurations the console cannot run with.
func (c Config) Validate() error {
	problems := c.clientProblems()
	if c.Session.Secret == "" {
		problems = append(problems, "session secret is required (SPOTLIGHT_SESSION_SECRET)")
	} else if len(c.Session.Secret) < 16 {
		problems = append(problems, "session secret must be at least 16 characters")
	}
	return invalid(problems)
}

// ValidateClient checks only what a backend client needs: the base URL
// and list sizes. The session settings are not consulted.
func (c Config) ValidateClient() error {
	return invalid(c.clientProblems())
}

func (c Config) clientProblems() []string {
	var problems []string
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		problems = append(problems, "backend base_url is required")
	}
	if c.List.PageSize <= 0 {
		problems = append(problems, "list page_size must be positive")
	}
	if c.List.ExportLimit <= 0 {
		problems = append(problems, "list export_limit must be positive")
	}
	return problems
}

func invalid(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
