package debugger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPayload(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	LogPayload(logger, "body", []byte(`{"gc":0.5}`))
	LogPayload(logger, "body", []byte("ACGT not json"))
	LogPayload(logger, "body", bytes.Repeat([]byte("A"), maxPayloadBytes+10))
	LogPayload(logger, "body", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	assert.Equal(t, "{\n  \"gc\": 0.5\n}", entries[0].ContextMap()["json"])
	assert.Equal(t, "ACGT not json", entries[1].ContextMap()["raw"])
	assert.Equal(t, true, entries[2].ContextMap()["truncated"])
	assert.Len(t, entries[2].ContextMap()["raw"], maxPayloadBytes)
}

func TestLogPayloadRedactsSecrets(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	LogPayload(logger, "body", []byte(`{"access_token":"SECRET-ACCESS","refresh_token":"SECRET-REFRESH","user":{"token":"x","name":"ada"},"n":12345678901234567890}`))
	cut := append([]byte(`{"refresh_token":"SECRET-REFRESH","pad":"`), bytes.Repeat([]byte("A"), maxPayloadBytes)...)
	LogPayload(logger, "body", cut)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	body := entries[0].ContextMap()["json"].(string)
	assert.NotContains(t, body, "SECRET")
	assert.NotContains(t, body, `"x"`)
	assert.Contains(t, body, `"name": "ada"`)
	assert.Contains(t, body, "12345678901234567890", "numbers keep their precision")
	assert.Equal(t, redacted, entries[1].ContextMap()["raw"])
}

func TestLogPayloadSkipsAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	LogPayload(zap.New(core), "body", []byte(`{}`))
	assert.Zero(t, logs.Len())
}
