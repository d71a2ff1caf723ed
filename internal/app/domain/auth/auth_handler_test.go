package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/internal/app/domain"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/pkg/backend"
	"github.com/helixlab/helixdash/internal/pkg/config"
)

// fakeBackend is a minimal auth backend.
type fakeBackend struct {
	t        *testing.T
	secret   string
	refresh  atomic.Int32
	logout   atomic.Int32
	rotating bool
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/auth/login":
		if body["password"] != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
			return
		}
		f.writePair(w, "u1", "refresh-1")
	case "/auth/register":
		if body["email"] == "taken@example.org" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"Email already registered"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"u2"}`))
	case "/auth/refresh":
		f.refresh.Add(1)
		if body["refresh_token"] != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.writePair(w, "u1", "")
	case "/auth/logout":
		f.logout.Add(1)
		w.WriteHeader(http.StatusNoContent)
	case "/auth/password/forgot":
		w.WriteHeader(http.StatusNotFound)
	case "/auth/password/reset":
		if body["token"] != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"bad token"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeBackend) writePair(w http.ResponseWriter, id, refresh string) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, userClaims(id, models.RoleUser, time.Now().Add(time.Hour))).
		SignedString([]byte(f.secret))
	require.NoError(f.t, err)
	_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok, "refresh_token": refresh})
}

type harness struct {
	router  *gin.Engine
	backend *fakeBackend
	cookies *CookieStore
	service *AuthServiceImpl
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fb := &fakeBackend{t: t, secret: testSecret}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	jwtCfg := config.JWTConfig{Secret: testSecret, AccessTokenTTL: 15 * time.Minute, RefreshTokenTTL: time.Hour}
	client := backend.New(config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, zap.NewNop())
	svc := NewAuthService(client, jwtCfg, zap.NewNop())
	cookies := NewCookieStore(config.CookieConfig{}, jwtCfg)
	guard := NewGuard(svc, cookies, zap.NewNop())
	h := NewAuthHandlers(domain.NewBaseHandler(zap.NewNop(), nil, nil), svc, cookies, zap.NewNop())

	r := gin.New()
	r.Use(sessions.Sessions("helixdash_session", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.GET("/auth/signin", h.SignInPage)
	r.POST("/auth/signin", h.SignIn)
	r.POST("/auth/signup", h.SignUp)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/reset-password", h.ResetPassword)

	protected := r.Group("/", guard.RequireAuth())
	protected.GET("/dashboard", func(c *gin.Context) {
		c.String(http.StatusOK, "hello "+middleware.GetUserFromContext(c).ID)
	})
	protected.POST("/auth/logout", h.Logout)
	protected.POST("/auth/refresh", h.Refresh)
	protected.GET("/cms", guard.RequireRole(models.RoleAdmin), func(c *gin.Context) { c.String(http.StatusOK, "cms") })

	return &harness{router: r, backend: fb, cookies: cookies, service: svc}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func postForm(path string, values url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func cookieValue(w *httptest.ResponseRecorder, name string) (string, bool) {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func withSession(req *http.Request, access, refresh string, issued time.Time) *http.Request {
	if access != "" {
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: access})
	}
	if refresh != "" {
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: refresh})
	}
	if !issued.IsZero() {
		req.AddCookie(&http.Cookie{Name: TokenTimestampCookie, Value: jsonInt(issued.Unix())})
	}
	return req
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestSignInHandler(t *testing.T) {
	h := newHarness(t)

	t.Run("success sets the session cookies and redirects", func(t *testing.T) {
		w := h.do(postForm("/auth/signin", url.Values{
			"email": {"ada@example.org"}, "password": {"correct-horse"}, "next": {"/tools/blast"},
		}, true))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/tools/blast", w.Header().Get("HX-Redirect"))

		access, ok := cookieValue(w, AccessTokenCookie)
		require.True(t, ok)
		assert.NotEmpty(t, access)
		refresh, _ := cookieValue(w, RefreshTokenCookie)
		assert.Equal(t, "refresh-1", refresh)
		ts, ok := cookieValue(w, TokenTimestampCookie)
		require.True(t, ok)
		assert.NotEmpty(t, ts)

		for _, c := range w.Result().Cookies() {
			if c.Name == AccessTokenCookie {
				assert.True(t, c.HttpOnly)
				assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
			}
		}
	})

	t.Run("unsafe next falls back to the dashboard", func(t *testing.T) {
		w := h.do(postForm("/auth/signin", url.Values{
			"email": {"ada@example.org"}, "password": {"correct-horse"}, "next": {"https://evil.example"},
		}, false))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	})

	t.Run("wrong password renders a banner into the form", func(t *testing.T) {
		w := h.do(postForm("/auth/signin", url.Values{"email": {"ada@example.org"}, "password": {"nope"}}, true))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "#auth-response", w.Header().Get("HX-Retarget"))
		assert.Contains(t, w.Body.String(), "Invalid email or password")
		_, ok := cookieValue(w, AccessTokenCookie)
		assert.False(t, ok)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := h.do(postForm("/auth/signin", url.Values{"email": {"ada@example.org"}}, true))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Email and password are required")
	})

	t.Run("plain form posts get the whole page back", func(t *testing.T) {
		w := h.do(postForm("/auth/signin", url.Values{"email": {"ada@example.org"}, "password": {"nope"}}, false))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "<!DOCTYPE html>")
		assert.Contains(t, w.Body.String(), `id="login-form"`)
	})
}

func TestSignUpHandler(t *testing.T) {
	h := newHarness(t)

	w := h.do(postForm("/auth/signup", url.Values{
		"email": {"new@example.org"}, "password": {"correct-horse"}, "confirm_password": {"correct-horse"},
	}, true))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("HX-Redirect"))
	_, ok := cookieValue(w, AccessTokenCookie)
	assert.True(t, ok, "registration without tokens signs in afterwards")

	w = h.do(postForm("/auth/signup", url.Values{
		"email": {"new@example.org"}, "password": {"correct-horse"}, "confirm_password": {"different"},
	}, true))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords do not match")

	w = h.do(postForm("/auth/signup", url.Values{
		"email": {"not-an-email"}, "password": {"correct-horse"}, "confirm_password": {"correct-horse"},
	}, true))
	assert.Contains(t, w.Body.String(), "Enter a valid email address")

	w = h.do(postForm("/auth/signup", url.Values{
		"email": {"taken@example.org"}, "password": {"correct-horse"}, "confirm_password": {"correct-horse"},
	}, true))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Email already registered")
}

func TestPasswordResetHandlers(t *testing.T) {
	h := newHarness(t)

	w := h.do(postForm("/auth/forgot-password", url.Values{"email": {"ghost@example.org"}}, true))
	assert.Equal(t, http.StatusOK, w.Code, "unknown addresses are not revealed")
	assert.Contains(t, w.Body.String(), "reset link is on its way")

	w = h.do(postForm("/auth/reset-password", url.Values{
		"token": {"bad"}, "password": {"brand-new-pw"}, "confirm_password": {"brand-new-pw"},
	}, true))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or has expired")

	w = h.do(postForm("/auth/reset-password", url.Values{
		"token": {"good"}, "password": {"brand-new-pw"}, "confirm_password": {"brand-new-pw"},
	}, true))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/auth/signin", w.Header().Get("HX-Redirect"))
}

func TestLogoutAndRefresh(t *testing.T) {
	h := newHarness(t)
	tok := signToken(t, userClaims("u1", "", time.Now().Add(time.Hour)), testSecret)

	req := withSession(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil), tok, "refresh-1", time.Now())
	w := h.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"refreshed":true`)

	req = withSession(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), tok, "refresh-1", time.Now())
	req.Header.Set("HX-Request", "true")
	w = h.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/auth/signin", w.Header().Get("HX-Redirect"))
	assert.Equal(t, int32(1), h.backend.logout.Load())
	for _, c := range w.Result().Cookies() {
		if c.Name == AccessTokenCookie || c.Name == RefreshTokenCookie {
			assert.Equal(t, -1, c.MaxAge)
		}
	}
}
