package auth

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helixlab/helixdash/internal/pkg/backend"
	"github.com/helixlab/helixdash/internal/pkg/config"
)

const (
	AccessTokenCookie    = "access_token"
	RefreshTokenCookie   = "refresh_token"
	TokenTimestampCookie = "token_timestamp"
)

// CookieStore reads and writes the session cookies.
type CookieStore struct {
	secure     bool
	domain     string
	refreshTTL time.Duration
}

func NewCookieStore(cookies config.CookieConfig, jwt config.JWTConfig) *CookieStore {
	return &CookieStore{
		secure:     cookies.Secure,
		domain:     cookies.Domain,
		refreshTTL: jwt.RefreshTokenTTL,
	}
}

// ReadSession returns the token pair from the request cookies, or the pair
// written earlier in this request. Missing cookies give empty fields and an
// unparsable timestamp a zero IssuedAt.
func (s *CookieStore) ReadSession(c *gin.Context) backend.TokenPair {
	if v, ok := c.Get(sessionPairKey); ok {
		if pair, ok := v.(backend.TokenPair); ok {
			return pair
		}
	}
	var pair backend.TokenPair
	pair.AccessToken, _ = c.Cookie(AccessTokenCookie)
	pair.RefreshToken, _ = c.Cookie(RefreshTokenCookie)
	if ts, err := c.Cookie(TokenTimestampCookie); err == nil {
		if secs, err := strconv.ParseInt(ts, 10, 64); err == nil && secs > 0 {
			pair.IssuedAt = time.Unix(secs, 0).UTC()
		}
	}
	return pair
}

// WriteSession sets all three cookies. They live as long as the refresh token
// so an expired access token can still be renewed.
func (s *CookieStore) WriteSession(c *gin.Context, pair backend.TokenPair) {
	issued := pair.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	pair.IssuedAt = issued
	c.Set(sessionPairKey, pair)

	maxAge := int(s.refreshTTL.Seconds())
	s.set(c, AccessTokenCookie, pair.AccessToken, maxAge)
	s.set(c, RefreshTokenCookie, pair.RefreshToken, maxAge)
	s.set(c, TokenTimestampCookie, strconv.FormatInt(issued.Unix(), 10), maxAge)
}

func (s *CookieStore) ClearSession(c *gin.Context) {
	c.Set(sessionPairKey, backend.TokenPair{})
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie, TokenTimestampCookie} {
		s.set(c, name, "", -1)
	}
}

func (s *CookieStore) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", s.domain, s.secure, true)
}

// Tokens binds the session to one request. Tokens refreshed by the backend
// client during the request are written back as cookies. The store is safe
// for the concurrent calls of a workbench run.
func (s *CookieStore) Tokens(c *gin.Context) backend.TokenStore {
	return &requestTokens{store: s, c: c, pair: s.ReadSession(c)}
}

type requestTokens struct {
	mu    sync.Mutex
	store *CookieStore
	c     *gin.Context
	pair  backend.TokenPair
}

func (t *requestTokens) Tokens() backend.TokenPair {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pair
}

func (t *requestTokens) SetTokens(pair backend.TokenPair) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pair = pair
	t.store.WriteSession(t.c, pair)
	t.c.Set(sessionRefreshedKey, true)
}

const (
	sessionPairKey      = "session_pair"
	sessionRefreshedKey = "session_refreshed"
)

// Refreshed reports whether the session was renewed while serving c.
func Refreshed(c *gin.Context) bool {
	return c.GetBool(sessionRefreshedKey)
}
