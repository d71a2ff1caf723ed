package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	require.NoError(t, Init(zapcore.DebugLevel, false, zap.String("service", "logger-test")))
	require.NotNil(t, Log)

	first := Log
	require.NoError(t, Init(zapcore.ErrorLevel, true))
	assert.Same(t, first, Log, "Init must only build the logger once")
}

func TestBuildReportsConfigErrors(t *testing.T) {
	cfg := configure(zapcore.InfoLevel, true)
	cfg.OutputPaths = []string{"/nonexistent-helixdash-dir/app.log"}

	log, err := build(cfg)
	require.Error(t, err)
	assert.Nil(t, log)
	assert.ErrorContains(t, err, "build logger")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}
