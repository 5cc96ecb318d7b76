package config

import (
	"fmt"
	"net"
	"strings"

	"bookshelf/internal/domain"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// Unwrap lets callers match validation failures with domain.ErrConfigLoad.
func (v *ValidationError) Unwrap() error { return domain.ErrConfigLoad }

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateServer(cfg, ve)
	validateStorage(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateServer(cfg *Config, ve *ValidationError) {
	s := cfg.Server
	if s.Addr == "" {
		ve.Add("server.addr must not be empty")
	} else if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		ve.Add("server.addr %q is not a valid host:port", s.Addr)
	}
	if s.ReadHeaderTimeout < 0 || s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 {
		ve.Add("server timeouts must be >= 0")
	}
	if s.ShutdownTimeout <= 0 {
		ve.Add("server.shutdown_timeout must be > 0")
	}
	if s.MaxBodyBytes <= 0 {
		ve.Add("server.max_body_bytes must be > 0")
	}
	if s.RateLimit.Enabled {
		if s.RateLimit.RequestsPerMin <= 0 {
			ve.Add("server.rate_limit.requests_per_min must be > 0 when rate limiting is enabled")
		}
		if s.RateLimit.Burst <= 0 {
			ve.Add("server.rate_limit.burst must be > 0 when rate limiting is enabled")
		}
	}
}

func validateStorage(cfg *Config, ve *ValidationError) {
	switch cfg.Storage.Backend {
	case "file":
		if cfg.Storage.Dir == "" {
			ve.Add("storage.dir is required for the file backend")
		}
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			ve.Add("storage.sqlite_path is required for the sqlite backend")
		}
	default:
		ve.Add("storage.backend %q is invalid (want: file, sqlite)", cfg.Storage.Backend)
	}
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true, "": true}

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLevels[strings.ToLower(cfg.Logger.Level)] {
		ve.Add("logger.level %q is invalid (want: debug, info, warn, error)", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		ve.Add("logger.format %q is invalid (want: text, json)", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		ve.Add("tracer.exporter %q is invalid (want: noop, stdout)", cfg.Tracer.Exporter)
	}
}
