package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Body.String())
}

func TestRedirect(t *testing.T) {
	r := gin.New()
	r.GET("/tools/gc", func(c *gin.Context) { Redirect(c, http.StatusUnauthorized, SignInURL(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tools/gc?x=1", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/signin?next=%2Ftools%2Fgc%3Fx%3D1", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/tools/gc", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Current-URL", "http://localhost:8091/tools/blast")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/auth/signin?next=%2Ftools%2Fblast", w.Header().Get("HX-Redirect"))
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/tools/blast", SafeNext("/tools/blast"))
	assert.Equal(t, "/dashboard", SafeNext(""))
	assert.Equal(t, "/dashboard", SafeNext("https://evil.example"))
	assert.Equal(t, "/dashboard", SafeNext("//evil.example"))
	assert.Equal(t, "/dashboard", SafeNext("/\\evil.example"))
}

func TestSecurityMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(SecurityMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "https://cdn.plot.ly")
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "media-src 'self' data:")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2, 0)
	defer rl.Stop()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("alice")
	assert.True(t, ok)
	ok, _ = rl.Allow("alice")
	assert.True(t, ok)
	ok, wait := rl.Allow("alice")
	assert.False(t, ok)
	assert.InDelta(t, time.Second.Seconds(), wait.Seconds(), 0.01)
	assert.Equal(t, 1, RetryAfterSeconds(wait))

	ok, _ = rl.Allow("bob")
	assert.True(t, ok, "buckets are per user")

	now = now.Add(time.Second)
	ok, _ = rl.Allow("alice")
	assert.True(t, ok, "a token refills after a second")

	now = now.Add(time.Hour)
	rl.evictIdle()
	assert.Zero(t, rl.Len())
}

func TestRateLimiterCleanupStops(t *testing.T) {
	rl := NewRateLimiter(60, 1, 10*time.Millisecond)
	rl.Stop()
	rl.Stop()
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://lab.example.org"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://lab.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://lab.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	open := gin.New()
	open.Use(CORSMiddleware(nil))
	open.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
