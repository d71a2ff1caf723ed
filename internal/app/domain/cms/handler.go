// Package cms serves the admin overview.
package cms

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cmspages "github.com/helixlab/helixdash/app/lib/features/cms"
	"github.com/helixlab/helixdash/internal/app/domain"
	"github.com/helixlab/helixdash/internal/app/domain/health"
	"github.com/helixlab/helixdash/internal/app/domain/tools"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/pkg/cache"
)

type Handler struct {
	*domain.BaseHandler
	catalog    *tools.Catalog
	monitor    *health.Monitor
	caches     *cache.CacheManager
	backendURL string
	logger     *zap.Logger
}

func NewHandler(base *domain.BaseHandler, catalog *tools.Catalog, monitor *health.Monitor,
	caches *cache.CacheManager, backendURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		BaseHandler: base,
		catalog:     catalog,
		monitor:     monitor,
		caches:      caches,
		backendURL:  backendURL,
		logger:      logger.Named("cms"),
	}
}

func (h *Handler) Page(c *gin.Context) {
	h.RenderPage(c, domain.Page{
		Title:       "Administration",
		ActiveNav:   "CMS",
		Breadcrumbs: []models.Breadcrumb{{Label: "Home", URL: "/dashboard"}, {Label: "CMS", URL: "/cms"}},
		Content: cmspages.Page(cmspages.Props{
			Tools:      h.catalog.All(),
			Health:     healthView(h.monitor.Status()),
			Caches:     h.cacheRows(),
			BackendURL: h.backendURL,
		}),
	})
}

func (h *Handler) ClearCache(c *gin.Context) {
	h.caches.ClearAll()
	h.logger.Info("Caches cleared", zap.String("userID", middleware.GetUserIDFromContext(c)))
	h.Render(c, http.StatusOK, cmspages.CachePanel(h.cacheRows(), "Caches cleared"))
}

func (h *Handler) CheckHealth(c *gin.Context) {
	st := h.monitor.Check(c.Request.Context())
	h.logger.Info("Manual health check",
		zap.String("userID", middleware.GetUserIDFromContext(c)),
		zap.Bool("up", st.Up))
	h.Render(c, http.StatusOK, cmspages.HealthPanel(healthView(st), h.backendURL))
}

func (h *Handler) cacheRows() []cmspages.CacheRow {
	all := h.caches.GetAllMetrics()
	rows := make([]cmspages.CacheRow, 0, len(all))
	for _, name := range h.caches.Names() {
		m := all[name]
		rows = append(rows, cmspages.CacheRow{Name: name, Items: m.Items, Hits: m.Hits, Misses: m.Misses, Sets: m.Sets})
	}
	return rows
}

func healthView(st health.Status) cmspages.HealthView {
	return cmspages.HealthView{
		Up:        st.Up,
		Checked:   st.Checked,
		Latency:   st.Latency,
		LastCheck: st.LastCheck,
		LastError: st.LastError,
	}
}
