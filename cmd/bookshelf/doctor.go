package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"

	"bookshelf/internal/infra/config"
)

// CheckStatus is the outcome class of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(cfg *config.Config) CheckResult
}

// runDoctor runs every check against the resolved config and prints a report.
func runDoctor(w io.Writer, cfgPath string) error {
	cfg, cfgErr := config.Load(cfgPath)

	checks := []Check{
		{Name: "Config file", Fn: checkConfigFile(cfgPath, cfgErr)},
		{Name: "Storage", Fn: checkStorage},
		{Name: "Listen address", Fn: checkListenAddr},
	}

	fmt.Fprintln(w, "bookshelf doctor")
	fmt.Fprintln(w, strings.Repeat("=", 50))

	var pass, warn, fail int
	for _, check := range checks {
		result := check.Fn(cfg)
		result.Name = check.Name

		fmt.Fprintf(w, "  %s %s: %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Fix != "" {
			fmt.Fprintf(w, "      Fix: %s\n", result.Fix)
		}
		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)
	if fail > 0 {
		return fmt.Errorf("%d check(s) failed", fail)
	}
	return nil
}

func statusIcon(s CheckStatus) string {
	switch s {
	case StatusPass:
		return "[PASS]"
	case StatusWarn:
		return "[WARN]"
	case StatusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

// checkConfigFile reports whether the config was read. A missing file is
// only a warning since the built-in defaults are a working setup.
func checkConfigFile(cfgPath string, cfgErr error) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config error: %v", cfgErr),
				Fix:     fmt.Sprintf("Fix %s or unset the offending BOOKSHELF_* variables", cfgPath),
			}
		}
		if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no config at %s, using defaults", cfgPath),
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

// checkStorage verifies the configured backend can be written.
func checkStorage(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}

	switch cfg.Storage.Backend {
	case "sqlite":
		return checkWritableDir(filepath.Dir(cfg.Storage.SQLitePath), "sqlite")
	default:
		return checkWritableDir(cfg.Storage.Dir, "file")
	}
}

// checkWritableDir tests dir without creating it: the file store creates
// its directory on first save.
func checkWritableDir(dir, backend string) CheckResult {
	absDir, _ := filepath.Abs(dir)

	info, err := os.Stat(absDir)
	if errors.Is(err, fs.ErrNotExist) {
		parent := filepath.Dir(absDir)
		if _, perr := os.Stat(parent); perr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("neither %s nor its parent exists", absDir),
				Fix:     fmt.Sprintf("mkdir -p %s", absDir),
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("%s will be created on first save (backend: %s)", absDir, backend),
		}
	}
	if err != nil {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("cannot stat %s: %v", absDir, err)}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("%s exists but is not a directory", absDir)}
	}

	marker := filepath.Join(absDir, ".doctor-check")
	if err := os.WriteFile(marker, []byte("ok"), 0o644); err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s is not writable: %v", absDir, err),
			Fix:     fmt.Sprintf("chmod 755 %s", absDir),
		}
	}
	_ = os.Remove(marker)

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s writable (backend: %s)", absDir, backend),
	}
}

// checkListenAddr binds the configured address briefly to catch conflicts.
func checkListenAddr(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cannot bind %s: %v", cfg.Server.Addr, err),
			Fix:     "Stop the process using the port or set BOOKSHELF_SERVER_ADDR",
		}
	}
	_ = ln.Close()
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s is free", cfg.Server.Addr)}
}
