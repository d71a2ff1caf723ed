package auth

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/internal/app/domain"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
)

// Guard enforces the session on protected routes.
type Guard struct {
	service AuthService
	cookies *CookieStore
	logger  *zap.Logger
	// Forbidden renders the page shown by RequireRole.
	Forbidden gin.HandlerFunc
}

func NewGuard(service AuthService, cookies *CookieStore, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		service: service,
		cookies: cookies,
		logger:  logger,
		Forbidden: func(c *gin.Context) {
			c.String(http.StatusForbidden, "Forbidden")
		},
	}
}

// authenticate resolves the session, renewing it through the refresh token
// when the access token is missing or expired.
func (g *Guard) authenticate(c *gin.Context) (*models.User, error) {
	pair := g.cookies.ReadSession(c)
	user, _, err := g.service.CurrentUser(pair)
	if err == nil {
		return user, nil
	}
	if pair.RefreshToken == "" {
		return nil, err
	}

	fresh, rerr := g.service.Refresh(c.Request.Context(), pair.RefreshToken)
	if rerr != nil {
		return nil, rerr
	}
	g.cookies.WriteSession(c, fresh)
	c.Set(sessionRefreshedKey, true)

	user, _, err = g.service.CurrentUser(fresh)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Session renewed", zap.String("userID", user.ID))
	return user, nil
}

// RequireAuth redirects to sign-in unless the request carries a valid session.
func (g *Guard) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := g.authenticate(c)
		if err != nil {
			if errors.Is(err, models.ErrSessionExpired) {
				domain.AddFlash(c, domain.FlashWarning, "Your session has expired. Please sign in again.")
			}
			g.cookies.ClearSession(c)
			middleware.Redirect(c, http.StatusUnauthorized, middleware.SignInURL(c))
			return
		}
		middleware.SetUser(c, user)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid session exists and never blocks.
func (g *Guard) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		pair := g.cookies.ReadSession(c)
		if user, _, err := g.service.CurrentUser(pair); err == nil {
			middleware.SetUser(c, user)
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (g *Guard) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.GetUserFromContext(c)
		if user == nil {
			middleware.Redirect(c, http.StatusUnauthorized, middleware.SignInURL(c))
			return
		}
		if !slices.Contains(roles, user.Role) {
			g.logger.Warn("Role check failed",
				zap.String("userID", user.ID),
				zap.String("role", user.Role),
				zap.Strings("required", roles))
			g.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectIfAuthenticated keeps signed-in users away from the sign-in pages.
func (g *Guard) RedirectIfAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			if _, _, err := g.service.CurrentUser(g.cookies.ReadSession(c)); err == nil {
				c.Redirect(http.StatusFound, "/dashboard")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
