package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// resetFlagSet создаёт новый FlagSet перед каждым вызовом NewConfig,
// чтобы избежать повторной регистрации одних и тех же флагов между тестами.
func resetFlagSet(t *testing.T, args ...string) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flag.CommandLine.SetOutput(os.Stderr)
	old := os.Args
	os.Args = append([]string{old[0]}, args...)
	t.Cleanup(func() { os.Args = old })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SHOP_DATA_DIR", "SHOP_BACKEND", "DATABASE_URI", "SESSION_SECRET",
		"SESSION_FILE", "SESSION_TTL", "LOG_LEVEL", "LOG_FILE"} {
		t.Setenv(k, "") // восстановится после теста
		_ = os.Unsetenv(k)
	}
}

func TestNewConfig_DefaultsWhenEnvEmpty(t *testing.T) {
	clearEnv(t)
	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.Backend != BackendFile {
		t.Fatalf("Backend default expected %q, got %q", BackendFile, cfg.Backend)
	}
	if cfg.DataDir == "" {
		t.Fatalf("DataDir default must be non-empty")
	}
	if cfg.SessionFile != filepath.Join(cfg.DataDir, "session") {
		t.Fatalf("SessionFile default expected inside DataDir, got %q", cfg.SessionFile)
	}
	if cfg.SessionSecret != "dev-secret-key" {
		t.Fatalf("SessionSecret default expected 'dev-secret-key', got %q", cfg.SessionSecret)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("SessionTTL default expected 24h, got %v", cfg.SessionTTL)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel default expected 'warn', got %q", cfg.LogLevel)
	}
	if cfg.DatabaseDSN != "" {
		t.Fatalf("DatabaseDSN must stay empty for file backend, got %q", cfg.DatabaseDSN)
	}
}

func TestNewConfig_EnvValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("SHOP_DATA_DIR", dir)
	t.Setenv("SHOP_BACKEND", "SQL")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("SESSION_SECRET", "top")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.Backend != BackendSQL {
		t.Fatalf("Backend expected 'sql', got %q", cfg.Backend)
	}
	if cfg.DatabaseDSN != filepath.Join(dir, "shop.sqlite") {
		t.Fatalf("DatabaseDSN default expected inside DataDir, got %q", cfg.DatabaseDSN)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Fatalf("SessionTTL expected 90m, got %v", cfg.SessionTTL)
	}
	if cfg.SessionSecret != "top" {
		t.Fatalf("SessionSecret expected from env 'top', got %q", cfg.SessionSecret)
	}
	if cfg.JournalPath() != filepath.Join(dir, "checkouts.journal") {
		t.Fatalf("unexpected journal path %q", cfg.JournalPath())
	}
}

func TestNewConfig_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOP_DATA_DIR", "/from/env")
	t.Setenv("SHOP_BACKEND", "sql")

	resetFlagSet(t, "-data", "/from/flag", "-backend", "file", "-version", "products")
	cfg := NewConfig()

	if cfg.DataDir != "/from/flag" {
		t.Fatalf("DataDir expected from flag, got %q", cfg.DataDir)
	}
	if cfg.Backend != BackendFile {
		t.Fatalf("Backend expected from flag 'file', got %q", cfg.Backend)
	}
	if !cfg.Version {
		t.Fatalf("Version flag expected true")
	}
	if args := flag.Args(); len(args) != 1 || args[0] != "products" {
		t.Fatalf("expected remaining args [products], got %v", args)
	}
}

func TestNewConfig_UnknownBackendFallsBackToFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOP_BACKEND", "mongo")
	resetFlagSet(t)
	cfg := NewConfig()
	if cfg.Backend != BackendFile {
		t.Fatalf("Backend expected fallback 'file', got %q", cfg.Backend)
	}
}
