package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = path

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("receivable created")
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"receivable created"`)
}

func TestNew_ServiceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = path
	cfg.Service = "vendorbill-backend"
	cfg.Env = "test"

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("payment applied")
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"vendorbill-backend"`)
	assert.Contains(t, string(data), `"env":"test"`)
}

func TestNew_UnwritableOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = filepath.Join(t.TempDir(), "missing", "app.log")

	_, err := New(cfg)
	assert.Error(t, err)
}
