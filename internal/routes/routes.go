package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/internal/app/domain"
	"github.com/helixlab/helixdash/internal/app/domain/auth"
	"github.com/helixlab/helixdash/internal/app/domain/cms"
	"github.com/helixlab/helixdash/internal/app/domain/health"
	"github.com/helixlab/helixdash/internal/app/domain/home"
	"github.com/helixlab/helixdash/internal/app/domain/settings"
	"github.com/helixlab/helixdash/internal/app/domain/tools"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/pkg/backend"
	"github.com/helixlab/helixdash/internal/pkg/cache"
	"github.com/helixlab/helixdash/internal/pkg/config"
)

// Dependencies are the long-lived services the handlers share. The server
// owns their lifecycle.
type Dependencies struct {
	Config  *config.Config
	Client  *backend.Client
	Catalog *tools.Catalog
	Monitor *health.Monitor
	Caches  *cache.CacheManager
	Limiter *middleware.RateLimiter
}

type AppHandlers struct {
	Base     *domain.BaseHandler
	Guard    *auth.Guard
	Home     *home.HomeHandlers
	Auth     *auth.AuthHandlers
	Tools    *tools.ToolHandlers
	Settings *settings.SettingsHandlers
	CMS      *cms.Handler
	Health   *health.Handler
}

// Setup builds the handlers and registers every route on r.
func Setup(r *gin.Engine, deps Dependencies, log *zap.Logger) *AppHandlers {
	handlers := NewAppHandlers(deps, log)
	setupRouter(r, handlers)
	return handlers
}

func NewAppHandlers(deps Dependencies, log *zap.Logger) *AppHandlers {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Config

	baseHandler := domain.NewBaseHandler(log, deps.Catalog, deps.Monitor)

	cookies := auth.NewCookieStore(cfg.Cookies, cfg.JWT)
	authService := auth.NewAuthService(deps.Client, cfg.JWT, log)
	guard := auth.NewGuard(authService, cookies, log)
	guard.Forbidden = baseHandler.RenderForbidden

	toolService := tools.NewService(deps.Client, cfg.Tools, cfg.Server.MaxUploadBytes, deps.Limiter, deps.Caches, log)

	return &AppHandlers{
		Base:     baseHandler,
		Guard:    guard,
		Home:     home.NewHomeHandlers(baseHandler, deps.Catalog, deps.Monitor, log),
		Auth:     auth.NewAuthHandlers(baseHandler, authService, cookies, log),
		Tools:    tools.NewToolHandlers(baseHandler, deps.Catalog, toolService, cookies, cfg.Server.MaxUploadBytes, log),
		Settings: settings.NewSettingsHandlers(baseHandler, authService, cookies, cfg.Backend.BaseURL, log),
		CMS:      cms.NewHandler(baseHandler, deps.Catalog, deps.Monitor, deps.Caches, cfg.Backend.BaseURL, log),
		Health:   health.NewHandler(deps.Monitor),
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers) {
	r.GET("/healthz", h.Health.Healthz)

	// Public routes
	public := r.Group("/", h.Guard.OptionalAuth())
	{
		public.GET("/", h.Home.ShowLandingPage)
		public.GET("/about", h.Home.ShowAboutPage)
	}

	authGroup := r.Group("/auth", h.Guard.RedirectIfAuthenticated())
	{
		authGroup.GET("/signin", h.Auth.SignInPage)
		authGroup.POST("/signin", h.Auth.SignIn)
		authGroup.GET("/signup", h.Auth.SignUpPage)
		authGroup.POST("/signup", h.Auth.SignUp)
		authGroup.GET("/forgot-password", h.Auth.ForgotPasswordPage)
		authGroup.POST("/forgot-password", h.Auth.ForgotPassword)
		authGroup.GET("/reset-password", h.Auth.ResetPasswordPage)
		authGroup.POST("/reset-password", h.Auth.ResetPassword)
	}

	// Protected routes
	protected := r.Group("/", h.Guard.RequireAuth())
	{
		protected.POST("/auth/logout", h.Auth.Logout)
		protected.POST("/auth/refresh", h.Auth.Refresh)

		protected.GET("/dashboard", h.Home.ShowDashboard)
		protected.GET("/settings", h.Settings.ShowSettingsPage)

		protected.GET("/tools", h.Tools.CatalogPage)
		protected.GET("/tools/:slug", h.Tools.ToolPage)
		protected.POST("/tools/:slug/run", h.Tools.Run)
		protected.GET("/tools/:slug/results/:id", h.Tools.Download)

		protected.GET("/workbench", h.Tools.WorkbenchPage)
		protected.POST("/workbench/run", h.Tools.WorkbenchRun)

		admin := protected.Group("/cms", h.Guard.RequireRole(models.RoleAdmin))
		{
			admin.GET("", h.CMS.Page)
			admin.POST("/cache/clear", h.CMS.ClearCache)
			admin.POST("/health/check", h.CMS.CheckHealth)
		}
	}

	r.NoRoute(h.Base.RenderNotFound)
}
