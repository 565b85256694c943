package healthcheck

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/l3aro/unstar/internal/config"
)

func TestCheckNilConfig(t *testing.T) {
	if _, err := Check(nil, "", ""); err == nil {
		t.Fatal("expected an error for nil config")
	}
}

func TestCheckReportsMissingInterpreter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Python = filepath.Join(t.TempDir(), "no-such-python")

	result, err := Check(cfg, "", "")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Interpreter.Status != "error" {
		t.Errorf("Interpreter.Status = %q, want error", result.Interpreter.Status)
	}
	if result.Interpreter.Error == "" {
		t.Error("expected an interpreter error message")
	}
}

func TestCheckCacheStates(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Python = filepath.Join(t.TempDir(), "no-such-python")

	result, err := Check(cfg, "", "")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Cache.Status != "disabled" {
		t.Errorf("Cache.Status = %q, want disabled", result.Cache.Status)
	}

	cfg.CachePath = filepath.Join(t.TempDir(), "deep", "exports.cache")
	result, err = Check(cfg, "", "")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Cache.Status != "ready" {
		t.Errorf("Cache.Status = %q, want ready", result.Cache.Status)
	}
}

func TestScopeFromPath(t *testing.T) {
	if got := scopeFromPath(""); got != "" {
		t.Errorf("scopeFromPath(empty) = %q", got)
	}
	if got := scopeFromPath(filepath.Join(".unstar", "config.yaml")); got != "project" {
		t.Errorf("scopeFromPath(project) = %q", got)
	}
}

func TestFormatResult(t *testing.T) {
	result := &HealthCheckResult{
		EffectivePath:  ".unstar/config.yaml",
		EffectiveScope: "project",
		Interpreter:    InterpreterStatus{Executable: "python3", Version: "Python 3.12.1", Status: "ready"},
		Cache:          CacheStatus{Status: "disabled"},
	}
	out := FormatResult(result)
	for _, want := range []string{"Config in use", "python3", "Python 3.12.1", "Cache: disabled"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
