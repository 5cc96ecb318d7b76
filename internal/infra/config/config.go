package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bookshelf/internal/domain"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracer  TracerConfig  `yaml:"tracer"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr              string          `yaml:"addr"`
	ReadHeaderTimeout time.Duration   `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration   `yaml:"read_timeout"`
	WriteTimeout      time.Duration   `yaml:"write_timeout"`
	IdleTimeout       time.Duration   `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration   `yaml:"shutdown_timeout"`
	MaxBodyBytes      int64           `yaml:"max_body_bytes"`
	MetricsEnabled    bool            `yaml:"metrics_enabled"`
	SecurityHeaders   bool            `yaml:"security_headers"`
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig holds per-client request throttling settings.
type RateLimitConfig struct {
	Enabled        bool     `yaml:"enabled"`
	RequestsPerMin int      `yaml:"requests_per_min"`
	Burst          int      `yaml:"burst"`
	TrustedProxies []string `yaml:"trusted_proxies,omitempty"`
}

// StorageConfig selects and configures the book store backend.
type StorageConfig struct {
	Backend    string `yaml:"backend"` // "file" or "sqlite"
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Defaults returns a Config that reproduces the service's fixed behaviour:
// loopback port 3030 and one JSON file per book under ./books.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              "127.0.0.1:3030",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			MaxBodyBytes:      1 << 20,
			MetricsEnabled:    false,
			SecurityHeaders:   true,
			RateLimit: RateLimitConfig{
				Enabled:        false,
				RequestsPerMin: 600,
				Burst:          50,
			},
		},
		Storage: StorageConfig{
			Backend:    "file",
			Dir:        "./books",
			SQLitePath: "./books.db",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file and applies env var overrides. A missing
// file is not an error: defaults plus env overrides are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("%w: read config: %v", domain.ErrConfigLoad, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve config path: %v", domain.ErrConfigLoad, err)
	}
	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", domain.ErrConfigLoad, err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps BOOKSHELF_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOOKSHELF_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BOOKSHELF_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.MetricsEnabled = b
		}
	}
	if v := os.Getenv("BOOKSHELF_RATE_LIMIT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.RateLimit.Enabled = b
		}
	}
	if v := os.Getenv("BOOKSHELF_RATE_LIMIT_TRUSTED_PROXIES"); v != "" {
		cfg.Server.RateLimit.TrustedProxies = splitAndTrim(v, ",")
	}
	if v := os.Getenv("BOOKSHELF_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("BOOKSHELF_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("BOOKSHELF_STORAGE_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("BOOKSHELF_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("BOOKSHELF_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("BOOKSHELF_LOGGER_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("BOOKSHELF_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("BOOKSHELF_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// splitAndTrim splits s by sep and trims whitespace from each element,
// dropping empty entries.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validatePermissions checks the config file has restrictive permissions.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat config: %v", domain.ErrConfigLoad, err)
	}
	mode := info.Mode().Perm()
	// Group and others may read but not write.
	if mode&0o022 != 0 {
		return fmt.Errorf("%w: %w: config file %s has insecure permissions %o (want 0600 or 0644)",
			domain.ErrConfigLoad, domain.ErrPermissionDenied, path, mode)
	}
	return nil
}
