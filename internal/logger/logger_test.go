package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestNew_None(t *testing.T) {
	l := New(&Config{Output: "none"})
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forkjoin.log")
	l := New(&Config{Level: "debug", Format: "json", Output: "file", FilePath: path, MaxSize: 1})
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l.Info("pool started")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"pool started"`)
}

func TestL_Default(t *testing.T) {
	assert.NotNil(t, L())
	assert.Same(t, L(), L())
}

func TestInit_ReplacesPackageLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.log")
	first := Init(&Config{Output: "none"})
	assert.Same(t, first, L())

	second := Init(&Config{Level: "warn", Format: "json", Output: "file", FilePath: path})
	assert.Same(t, second, L())
	assert.NotSame(t, first, second)

	Info("dropped below warn")
	Warn("scenario missed", zap.String("scenario", "executes_in_common_pool"))
	Error("scenario failed")
	Debug("dropped below warn")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"scenario missed"`)
	assert.Contains(t, out, `"scenario":"executes_in_common_pool"`)
	assert.Contains(t, out, `"msg":"scenario failed"`)
	assert.NotContains(t, out, "dropped below warn")

	Init(&Config{Output: "none"})
}
