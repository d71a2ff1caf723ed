package home

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/app/lib/features/pages"
	"github.com/helixlab/helixdash/internal/app/domain"
	"github.com/helixlab/helixdash/internal/app/domain/tools"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
)

type HomeHandlers struct {
	*domain.BaseHandler
	catalog *tools.Catalog
	health  domain.HealthSource
	logger  *zap.Logger
}

func NewHomeHandlers(base *domain.BaseHandler, catalog *tools.Catalog, health domain.HealthSource, logger *zap.Logger) *HomeHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeHandlers{BaseHandler: base, catalog: catalog, health: health, logger: logger.Named("home")}
}

func (h *HomeHandlers) ShowLandingPage(c *gin.Context) {
	signedIn := middleware.GetUserFromContext(c) != nil
	h.RenderPublic(c, http.StatusOK, "HelixDash", pages.Landing(signedIn, h.catalog.Len()))
}

func (h *HomeHandlers) ShowAboutPage(c *gin.Context) {
	h.RenderPublic(c, http.StatusOK, "About HelixDash", pages.About())
}

func (h *HomeHandlers) ShowDashboard(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	h.logger.Debug("Dashboard accessed", zap.String("user", middleware.GetUserIDFromContext(c)))

	cats := h.catalog.ByCategory()
	backend := "unknown"
	if h.health != nil {
		if b := h.health.Badge(); b.Checked {
			backend = "offline"
			if b.Up {
				backend = "online"
			}
		}
	}

	h.RenderPage(c, domain.Page{
		Title:       "Dashboard",
		ActiveNav:   "Dashboard",
		Breadcrumbs: []models.Breadcrumb{{Label: "Home", URL: "/dashboard"}},
		Content: pages.Dashboard(pages.DashboardProps{
			User: user,
			Stats: []pages.Stat{
				{Label: "Tools", Value: fmt.Sprint(h.catalog.Len())},
				{Label: "Categories", Value: fmt.Sprint(len(cats))},
				{Label: "Backend", Value: backend},
			},
			Recent: featured(cats),
		}),
	})
}

// featured picks the first tool of each category.
func featured(cats []tools.Category) []*models.Tool {
	out := make([]*models.Tool, 0, len(cats))
	for _, c := range cats {
		if len(c.Tools) > 0 {
			out = append(out, c.Tools[0])
		}
	}
	return out
}
