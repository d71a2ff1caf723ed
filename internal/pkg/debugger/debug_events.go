package debugger

import (
	"bytes"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	maxPayloadBytes = 4 << 10
	redacted        = "[REDACTED]"
)

var secretKeys = map[string]struct{}{
	"access_token":  {},
	"refresh_token": {},
	"access":        {},
	"refresh":       {},
	"token":         {},
	"password":      {},
}

// LogPayload logs a backend payload at debug level, pretty-printed when it is
// JSON. Token and password fields are masked. Payloads past 4 KiB are cut.
// Nothing is done unless debug logging is enabled.
func LogPayload(logger *zap.Logger, msg string, payload []byte) {
	if logger == nil || len(payload) == 0 || !logger.Core().Enabled(zapcore.DebugLevel) {
		return
	}

	truncated := len(payload) > maxPayloadBytes
	fields := []zap.Field{zap.Int("bytes", len(payload)), zap.Bool("truncated", truncated)}

	if !truncated {
		if pretty, ok := redactJSON(payload); ok {
			logger.Debug(msg, append(fields, zap.String("json", pretty))...)
			return
		}
	}
	if looksSecret(payload) {
		logger.Debug(msg, append(fields, zap.String("raw", redacted))...)
		return
	}
	if truncated {
		payload = payload[:maxPayloadBytes]
	}
	logger.Debug(msg, append(fields, zap.ByteString("raw", payload))...)
}

func redactJSON(payload []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return "", false
	}

	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(redact(v)); err != nil {
		return "", false
	}
	return strings.TrimSuffix(out.String(), "\n"), true
}

func redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if _, secret := secretKeys[strings.ToLower(k)]; secret {
				t[k] = redacted
				continue
			}
			t[k] = redact(child)
		}
	case []any:
		for i, child := range t {
			t[i] = redact(child)
		}
	}
	return v
}

// looksSecret catches payloads that could not be parsed, such as a cut-off
// token response.
func looksSecret(payload []byte) bool {
	lower := bytes.ToLower(payload)
	return bytes.Contains(lower, []byte(`"access_token"`)) || bytes.Contains(lower, []byte(`"refresh_token"`)) ||
		bytes.Contains(lower, []byte(`"password"`))
}
