package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInitializesOnce(t *testing.T) {
	first := Get()
	second := Get()
	assert.Same(t, first, second)
	assert.NotNil(t, first.ToolRunsTotal)
	assert.NotNil(t, first.BackendRequestDuration)
}

func TestRecordHelpersDoNotPanic(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordToolRun(ctx, "blast", "ok", 0.25)
		RecordCacheLookup(ctx, "results", true)
		RecordAuth(ctx, "signin", "failed")
	})
}
