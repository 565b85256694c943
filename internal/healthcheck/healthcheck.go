package healthcheck

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/l3aro/unstar/internal/config"
)

// InterpreterStatus represents the health status of the configured Python
// interpreter.
type InterpreterStatus struct {
	Executable string
	Version    string
	Status     string // "ready" or "error"
	Error      string
}

// CacheStatus represents the health of the export-list cache location.
type CacheStatus struct {
	Path   string
	Status string // "ready", "disabled" or "error"
	Error  string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath      string
	SavedScope     string // "global" or "project"
	EffectivePath  string
	EffectiveScope string // "global" or "project"
	Interpreter    InterpreterStatus
	Cache          CacheStatus
}

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use (considering priority).
func Check(cfg *config.Config, savedPath string, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &HealthCheckResult{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
	}

	result.Interpreter = checkInterpreter(cfg)
	result.Cache = checkCache(cfg)

	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".unstar")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

// checkInterpreter runs the configured interpreter once to confirm it
// exists and answers.
func checkInterpreter(cfg *config.Config) InterpreterStatus {
	status := InterpreterStatus{Executable: cfg.Python}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, cfg.Python, "--version").CombinedOutput()
	if err != nil {
		status.Status = "error"
		status.Error = fmt.Sprintf("failed to run %s --version: %v", cfg.Python, err)
		return status
	}

	status.Status = "ready"
	status.Version = strings.TrimSpace(string(out))
	return status
}

// checkCache confirms the cache directory exists or can be created.
func checkCache(cfg *config.Config) CacheStatus {
	if cfg.CachePath == "" {
		return CacheStatus{Status: "disabled"}
	}

	status := CacheStatus{Path: cfg.CachePath}
	dir := filepath.Dir(cfg.CachePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		status.Status = "error"
		status.Error = fmt.Sprintf("cache directory not writable: %v", err)
		return status
	}

	status.Status = "ready"
	return status
}

// FormatResult renders the health check for terminal display.
func FormatResult(r *HealthCheckResult) string {
	var b strings.Builder

	if r.SavedPath != "" {
		fmt.Fprintf(&b, "Config saved to %s (%s)\n", r.SavedPath, r.SavedScope)
	}
	if r.EffectivePath != "" {
		fmt.Fprintf(&b, "Config in use: %s (%s)\n", r.EffectivePath, r.EffectiveScope)
	}

	fmt.Fprintf(&b, "Interpreter: %s", r.Interpreter.Executable)
	switch r.Interpreter.Status {
	case "ready":
		fmt.Fprintf(&b, " - %s\n", r.Interpreter.Version)
	default:
		fmt.Fprintf(&b, " - ERROR: %s\n", r.Interpreter.Error)
	}

	switch r.Cache.Status {
	case "disabled":
		b.WriteString("Cache: disabled\n")
	case "ready":
		fmt.Fprintf(&b, "Cache: %s\n", r.Cache.Path)
	default:
		fmt.Fprintf(&b, "Cache: ERROR: %s\n", r.Cache.Error)
	}

	return b.String()
}
