package log_test

import (
	"encoding/json"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "storefront/internal/log"
)

func TestSetupWritesJSONLinesToFile(t *testing.T) {
	oldW, oldFlags := stdlog.Writer(), stdlog.Flags()
	t.Cleanup(func() {
		stdlog.SetOutput(oldW)
		stdlog.SetFlags(oldFlags)
	})
	stdlog.SetFlags(0)

	path := filepath.Join(t.TempDir(), "app.log")
	closer := applog.Setup(path)
	applog.Audit(nil, "inventory.stock.set", map[string]any{"variant_id": 101, "stock": 4})
	applog.Error(nil, "checkout.fail", os.ErrDeadlineExceeded, nil)
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var first struct {
		Level  string         `json:"level"`
		Action string         `json:"action"`
		Fields map[string]any `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "audit", first.Level)
	assert.Equal(t, "inventory.stock.set", first.Action)
	assert.Equal(t, float64(4), first.Fields["stock"])
	assert.Contains(t, lines[1], `"err":"i/o timeout"`)
}

func TestSetupWithoutPath(t *testing.T) {
	assert.NoError(t, applog.Setup("").Close())
}
