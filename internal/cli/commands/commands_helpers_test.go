package commands

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"GophShop/internal/cli/bootstrap"
	"GophShop/internal/config"
)

// withTempConfig возвращает конфигурацию, у которой все артефакты
// (файлы данных, журнал, сессия) лежат во временном каталоге.
func withTempConfig(t *testing.T) *config.Config {
	t.Helper()
	bootstrap.LogOutput = io.Discard
	dir := t.TempDir()
	return &config.Config{
		DataDir:       dir,
		Backend:       config.BackendFile,
		SessionSecret: "test-secret",
		SessionFile:   filepath.Join(dir, "session"),
		SessionTTL:    time.Hour,
		LogLevel:      "error",
	}
}

// run выполняет команду через Dispatch и возвращает код выхода и вывод.
func run(t *testing.T, cfg *config.Config, args ...string) (int, string) {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	code := Dispatch(context.Background(), cfg, args)
	return code, buf.String()
}
