package settings

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/app/lib/features/pages"
	"github.com/helixlab/helixdash/internal/app/domain"
	"github.com/helixlab/helixdash/internal/app/domain/auth"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
)

type SettingsHandlers struct {
	*domain.BaseHandler
	authService auth.AuthService
	cookies     *auth.CookieStore
	backendURL  string
	logger      *zap.Logger
}

func NewSettingsHandlers(base *domain.BaseHandler, authService auth.AuthService, cookies *auth.CookieStore,
	backendURL string, logger *zap.Logger) *SettingsHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandlers{
		BaseHandler: base,
		authService: authService,
		cookies:     cookies,
		backendURL:  backendURL,
		logger:      logger.Named("settings"),
	}
}

// ShowSettingsPage shows who is signed in and when the access token expires.
func (h *SettingsHandlers) ShowSettingsPage(c *gin.Context) {
	h.logger.Info("Settings page accessed", zap.String("user", middleware.GetUserIDFromContext(c)))

	pair := h.cookies.ReadSession(c)
	info := pages.SessionInfo{
		User:       middleware.GetUserFromContext(c),
		IssuedAt:   pair.IssuedAt,
		Refreshing: pair.RefreshToken != "",
		BackendURL: h.backendURL,
	}
	if _, exp, err := h.authService.CurrentUser(pair); err == nil {
		info.ExpiresAt = exp
	}

	h.RenderPage(c, domain.Page{
		Title:       "Settings",
		ActiveNav:   "Settings",
		Breadcrumbs: []models.Breadcrumb{{Label: "Home", URL: "/dashboard"}, {Label: "Settings", URL: "/settings"}},
		Content:     pages.Settings(info),
	})
}
