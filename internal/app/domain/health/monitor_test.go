package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeChecker struct {
	calls atomic.Int32
	err   atomic.Pointer[error]
}

func (f *fakeChecker) Health(ctx context.Context) error {
	f.calls.Add(1)
	if err := f.err.Load(); err != nil {
		return *err
	}
	return ctx.Err()
}

func (f *fakeChecker) fail(err error) { f.err.Store(&err) }

func TestCheckRecordsStatus(t *testing.T) {
	checker := &fakeChecker{}
	m := NewMonitor(checker, "", time.Second, zap.NewNop())
	now := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	assert.False(t, m.Status().Checked)
	assert.False(t, m.Badge().Checked)

	st := m.Check(context.Background())
	assert.True(t, st.Up)
	assert.True(t, st.Checked)
	assert.Equal(t, now, st.LastCheck)
	assert.Empty(t, st.LastError)
	assert.Equal(t, st, m.Status())
	assert.Empty(t, m.Badge().Detail)

	checker.fail(errors.New("connection refused"))
	st = m.Check(context.Background())
	assert.False(t, st.Up)
	assert.Equal(t, "connection refused", st.LastError)

	badge := m.Badge()
	assert.True(t, badge.Checked)
	assert.False(t, badge.Up)
	assert.Equal(t, "last checked 9:30AM", badge.Detail)
}

func TestStartSchedulesProbes(t *testing.T) {
	checker := &fakeChecker{}
	m := NewMonitor(checker, "@every 1s", time.Second, zap.NewNop())
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.Equal(t, int32(1), checker.calls.Load(), "the first check runs immediately")
	assert.True(t, m.Status().Up)
	assert.Eventually(t, func() bool { return checker.calls.Load() >= 2 }, 3*time.Second, 50*time.Millisecond)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	m := NewMonitor(&fakeChecker{}, "every now and then", time.Second, zap.NewNop())
	assert.Error(t, m.Start(context.Background()))
}

func TestStartWithoutSchedule(t *testing.T) {
	checker := &fakeChecker{}
	m := NewMonitor(checker, "", time.Second, zap.NewNop())
	require.NoError(t, m.Start(context.Background()))
	m.Stop()
	assert.Zero(t, checker.calls.Load())
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	checker := &fakeChecker{}
	m := NewMonitor(checker, "", time.Second, zap.NewNop())
	r := gin.New()
	r.GET("/healthz", NewHandler(m).Healthz)

	get := func() map[string]any {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body
	}

	body := get()
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "unknown", body["backend"])
	assert.NotContains(t, body, "checked_at")

	checker.fail(errors.New("down"))
	m.Check(context.Background())
	body = get()
	assert.Equal(t, "ok", body["status"], "liveness does not depend on the backend")
	assert.Equal(t, "down", body["backend"])
	assert.Contains(t, body, "checked_at")
}
