package domain

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/app/lib/features/layout"
	"github.com/helixlab/helixdash/app/lib/features/pages"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
)

// SidebarSource supplies the workspace sidebar, normally the tool catalog.
type SidebarSource interface {
	Sidebar() []models.SidebarSection
}

// HealthSource supplies the navbar backend indicator.
type HealthSource interface {
	Badge() models.HealthBadge
}

type BaseHandler struct {
	Logger  *zap.Logger
	sidebar SidebarSource
	health  HealthSource
}

func NewBaseHandler(logger *zap.Logger, sidebar SidebarSource, health HealthSource) *BaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseHandler{Logger: logger, sidebar: sidebar, health: health}
}

// Page describes one workspace page.
type Page struct {
	Title       string
	ActiveNav   string
	ActiveItem  string
	Breadcrumbs []models.Breadcrumb
	Content     templ.Component
}

func (h *BaseHandler) newLayoutData(c *gin.Context, p Page) models.LayoutTempl {
	data := models.LayoutTempl{
		Title:       p.Title,
		User:        middleware.GetUserFromContext(c),
		Nav:         models.MainNav,
		ActiveNav:   p.ActiveNav,
		ActiveItem:  p.ActiveItem,
		Breadcrumbs: p.Breadcrumbs,
		Flashes:     Flashes(c),
		Content:     p.Content,
	}
	if h.sidebar != nil {
		data.Sidebar = h.sidebar.Sidebar()
	}
	if h.health != nil {
		data.Health = h.health.Badge()
	}
	return data
}

func (h *BaseHandler) Render(c *gin.Context, status int, component templ.Component) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		h.Logger.Error("Failed to render component",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
}

// RenderPage sends only the content to HTMX requests and the full workspace
// layout otherwise.
func (h *BaseHandler) RenderPage(c *gin.Context, p Page) {
	h.RenderPageStatus(c, http.StatusOK, p)
}

func (h *BaseHandler) RenderPageStatus(c *gin.Context, status int, p Page) {
	if middleware.IsHTMX(c) && c.GetHeader("HX-Boosted") != "true" {
		h.Render(c, status, p.Content)
		return
	}
	h.Render(c, status, layout.LayoutPage(h.newLayoutData(c, p)))
}

// RenderPublic renders pages outside the workspace such as sign-in.
func (h *BaseHandler) RenderPublic(c *gin.Context, status int, title string, content templ.Component) {
	if middleware.IsHTMX(c) && c.GetHeader("HX-Boosted") != "true" {
		h.Render(c, status, content)
		return
	}
	h.Render(c, status, layout.PublicPage(title, middleware.GetUserFromContext(c), Flashes(c), content))
}

// RenderNotFound renders the 404 page, or just its content for HTMX requests.
func (h *BaseHandler) RenderNotFound(c *gin.Context) {
	h.RenderPageStatus(c, http.StatusNotFound, Page{Title: "Not found", Content: pages.NotFound()})
	c.Abort()
}

func (h *BaseHandler) RenderForbidden(c *gin.Context) {
	h.RenderPageStatus(c, http.StatusForbidden, Page{Title: "Access denied", Content: pages.Forbidden()})
	c.Abort()
}

const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashError   = "error"
)

// AddFlash queues a message for the next rendered page. It is a no-op when
// the sessions middleware is not installed.
func AddFlash(c *gin.Context, kind, message string) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return
	}
	s := sessions.Default(c)
	s.AddFlash(kind + "|" + message)
	_ = s.Save()
}

// Flashes pops queued messages.
func Flashes(c *gin.Context) []models.Flash {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	s := sessions.Default(c)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save()

	out := make([]models.Flash, 0, len(raw))
	for _, r := range raw {
		str, ok := r.(string)
		if !ok {
			continue
		}
		kind, msg, found := strings.Cut(str, "|")
		if !found {
			kind, msg = FlashInfo, str
		}
		out = append(out, models.Flash{Kind: kind, Message: msg})
	}
	return out
}
