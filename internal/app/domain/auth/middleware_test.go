package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlab/helixdash/internal/app/models"
)

func TestRequireAuth(t *testing.T) {
	h := newHarness(t)

	t.Run("no session redirects to sign-in with next", func(t *testing.T) {
		w := h.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/signin?next=%2Fdashboard", w.Header().Get("Location"))
	})

	t.Run("htmx requests get HX-Redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("HX-Request", "true")
		w := h.do(req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "/auth/signin?next=%2Fdashboard", w.Header().Get("HX-Redirect"))
	})

	t.Run("valid session passes", func(t *testing.T) {
		tok := signToken(t, userClaims("u1", "", time.Now().Add(time.Hour)), testSecret)
		w := h.do(withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), tok, "", time.Time{}))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello u1", w.Body.String())
	})

	t.Run("expired access token is refreshed", func(t *testing.T) {
		before := h.backend.refresh.Load()
		tok := signToken(t, userClaims("u1", "", time.Now().Add(-time.Minute)), testSecret)
		w := h.do(withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), tok, "refresh-1", time.Now().Add(-time.Hour)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, before+1, h.backend.refresh.Load())
		fresh, ok := cookieValue(w, AccessTokenCookie)
		require.True(t, ok)
		assert.NotEqual(t, tok, fresh)
		refresh, _ := cookieValue(w, RefreshTokenCookie)
		assert.Equal(t, "refresh-1", refresh, "non-rotating backend keeps the refresh token")
	})

	t.Run("failed refresh clears the session", func(t *testing.T) {
		tok := signToken(t, userClaims("u1", "", time.Now().Add(-time.Minute)), testSecret)
		w := h.do(withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), tok, "revoked", time.Time{}))
		assert.Equal(t, http.StatusFound, w.Code)
		for _, c := range w.Result().Cookies() {
			if c.Name == AccessTokenCookie {
				assert.Equal(t, -1, c.MaxAge)
			}
		}
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		tok := signToken(t, userClaims("u1", models.RoleAdmin, time.Now().Add(time.Hour)), "forged")
		w := h.do(withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), tok, "", time.Time{}))
		assert.Equal(t, http.StatusFound, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	h := newHarness(t)

	user := signToken(t, userClaims("u1", models.RoleUser, time.Now().Add(time.Hour)), testSecret)
	w := h.do(withSession(httptest.NewRequest(http.MethodGet, "/cms", nil), user, "", time.Time{}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := signToken(t, userClaims("a1", models.RoleAdmin, time.Now().Add(time.Hour)), testSecret)
	w = h.do(withSession(httptest.NewRequest(http.MethodGet, "/cms", nil), admin, "", time.Time{}))
	assert.Equal(t, http.StatusOK, w.Code)
}
