package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "shop.log")

	log, cleanup, err := New("info", path, &buf)
	require.NoError(t, err)
	log.Debugw("hidden")
	log.Infow("checkout done", "order_id", 42)
	cleanup()

	assert.Contains(t, buf.String(), "checkout done")
	assert.NotContains(t, buf.String(), "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"checkout done"`)
	assert.Contains(t, line, `"order_id":42`)
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New("loud", "", nil)
	assert.Error(t, err)
}
