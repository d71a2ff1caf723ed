package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/internal/app/domain/auth"
	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/pkg/config"
)

const testSecret = "router-test-secret"

func testConfig(backendURL string) *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: "0", Mode: gin.TestMode, MaxUploadBytes: 1 << 20},
		Backend: config.BackendConfig{BaseURL: backendURL, Timeout: 5 * time.Second},
		JWT:     config.JWTConfig{Secret: testSecret, AccessTokenTTL: 15 * time.Minute, RefreshTokenTTL: time.Hour},
		Cookies: config.CookieConfig{SessionSecret: strings.Repeat("s", 32)},
		Tools: config.ToolsConfig{
			ResultCacheTTL:     time.Minute,
			RateLimitPerMinute: 60,
			RateLimitBurst:     5,
			WorkbenchParallel:  2,
		},
		Observability: config.ObservabilityConfig{ServiceName: "helixdash-test", HealthCheckTimeout: time.Second},
	}
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(backend.Close)

	cfg := testConfig(backend.URL)
	srv, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	router, err := SetupRouter(cfg, srv.Dependencies(), zap.NewNop())
	require.NoError(t, err)
	srv.SetRouter(router)
	return srv, router
}

func session(t *testing.T, req *http.Request, role string) *http.Request {
	t.Helper()
	claims := auth.Claims{UserID: "u1", Email: "u1@example.org", Name: "User One", Role: role}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: tok})
	return req
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv, router := newTestServer(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "unknown", body["backend"])

	srv.monitor.Check(context.Background())
	w = do(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "up", body["backend"])
}

func TestPublicPages(t *testing.T) {
	_, router := newTestServer(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = do(router, httptest.NewRequest(http.MethodGet, "/auth/signin", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="login-form"`)

	w = do(router, session(t, httptest.NewRequest(http.MethodGet, "/auth/signin", nil), models.RoleUser))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestAssets(t *testing.T) {
	_, router := newTestServer(t)

	for _, path := range []string{"/assets/css/app.css", "/assets/js/app.js"} {
		w := do(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotZero(t, w.Body.Len(), path)
		assert.Equal(t, assetsMaxAge, w.Header().Get("Cache-Control"), path)
	}
}

func TestProtectedRoutes(t *testing.T) {
	_, router := newTestServer(t)

	for _, path := range []string{"/dashboard", "/tools", "/tools/blast", "/workbench", "/settings", "/cms"} {
		w := do(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/auth/signin?next="), path)
	}

	for _, path := range []string{"/dashboard", "/tools", "/tools/blast", "/workbench", "/settings"} {
		w := do(router, session(t, httptest.NewRequest(http.MethodGet, path, nil), models.RoleUser))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestCMSRequiresAdmin(t *testing.T) {
	_, router := newTestServer(t)

	w := do(router, session(t, httptest.NewRequest(http.MethodGet, "/cms", nil), models.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, session(t, httptest.NewRequest(http.MethodGet, "/cms", nil), models.RoleAdmin))
	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("#cms-caches").Length())
	assert.Equal(t, 2, doc.Find("tr.cache-row").Length())
}

func TestNotFound(t *testing.T) {
	_, router := newTestServer(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/no/such/page", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, session(t, httptest.NewRequest(http.MethodGet, "/tools/no-such-tool", nil), models.RoleUser))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoggedForm(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newContext := func(contentType, body string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", contentType)
		_ = c.Request.ParseForm()
		return c
	}

	c := newContext("application/x-www-form-urlencoded",
		"email=ada%40example.org&password=hunter2&sequence="+strings.Repeat("A", 100))
	form := loggedForm(c)
	assert.Equal(t, "ada@example.org", form["email"])
	assert.Equal(t, "[REDACTED]", form["password"])
	assert.Equal(t, strings.Repeat("A", maxLoggedValue)+"...", form["sequence"])

	c = newContext("multipart/form-data; boundary=x", "")
	assert.Nil(t, loggedForm(c))
}
