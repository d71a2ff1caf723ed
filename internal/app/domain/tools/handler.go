package tools

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/app/lib/features/results"
	toolpages "github.com/helixlab/helixdash/app/lib/features/tools"
	"github.com/helixlab/helixdash/internal/app/domain"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/pkg/backend"
)

// TokenSource binds the request's session to the backend client.
type TokenSource interface {
	Tokens(c *gin.Context) backend.TokenStore
}

type ToolHandlers struct {
	*domain.BaseHandler
	catalog  *Catalog
	service  Runner
	tokens   TokenSource
	maxBytes int64
	logger   *zap.Logger
}

func NewToolHandlers(base *domain.BaseHandler, catalog *Catalog, service Runner, tokens TokenSource,
	maxBytes int64, logger *zap.Logger) *ToolHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolHandlers{
		BaseHandler: base,
		catalog:     catalog,
		service:     service,
		tokens:      tokens,
		maxBytes:    maxBytes,
		logger:      logger.Named("tools"),
	}
}

func (h *ToolHandlers) groups() []toolpages.Group {
	cats := h.catalog.ByCategory()
	out := make([]toolpages.Group, len(cats))
	for i, c := range cats {
		out[i] = toolpages.Group{Name: c.Name, Tools: c.Tools}
	}
	return out
}

func (h *ToolHandlers) CatalogPage(c *gin.Context) {
	h.RenderPage(c, domain.Page{
		Title:       "Tools",
		ActiveNav:   "Tools",
		Breadcrumbs: []models.Breadcrumb{{Label: "Home", URL: "/dashboard"}, {Label: "Tools", URL: "/tools"}},
		Content:     toolpages.Catalog(h.groups()),
	})
}

// tool resolves :slug, rendering the not-found page when it is unknown.
func (h *ToolHandlers) tool(c *gin.Context) (*models.Tool, bool) {
	t, err := h.catalog.Get(c.Param("slug"))
	if err != nil {
		h.RenderNotFound(c)
		return nil, false
	}
	return t, true
}

func (h *ToolHandlers) ToolPage(c *gin.Context) {
	t, ok := h.tool(c)
	if !ok {
		return
	}
	h.RenderPage(c, domain.Page{
		Title:      t.Name,
		ActiveNav:  "Tools",
		ActiveItem: t.URL(),
		Breadcrumbs: []models.Breadcrumb{
			{Label: "Home", URL: "/dashboard"},
			{Label: "Tools", URL: "/tools"},
			{Label: t.Category, URL: "/tools"},
			{Label: t.Name, URL: t.URL()},
		},
		Content: toolpages.ToolPage(t, h.maxBytes),
	})
}

// Run validates the form, calls the backend and swaps the rendered result
// into the page. Expired sessions redirect to sign-in.
func (h *ToolHandlers) Run(c *gin.Context) {
	t, ok := h.tool(c)
	if !ok {
		return
	}
	user := middleware.GetUserFromContext(c)

	limit := h.maxBytes
	if t.MaxInputBytes > 0 {
		limit = t.MaxInputBytes
	}
	if limit > 0 {
		// Multipart framing and params come on top of the file itself.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)
	}

	in, err := ParseInput(t, c.Request, h.maxBytes)
	if err != nil {
		h.runError(c, t, err)
		return
	}

	res, err := h.service.Run(c.Request.Context(), user, t, in, h.tokens.Tokens(c))
	if err != nil {
		h.runError(c, t, err)
		return
	}
	h.Render(c, http.StatusOK, results.Result(t, res))
}

func (h *ToolHandlers) runError(c *gin.Context, t *models.Tool, err error) {
	status := domain.ErrorStatus(err)
	if errors.Is(err, models.ErrSessionExpired) {
		domain.AddFlash(c, domain.FlashWarning, "Your session has expired. Please sign in again.")
		middleware.Redirect(c, http.StatusUnauthorized, middleware.SignInURL(c))
		return
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		c.Header("Retry-After", strconv.Itoa(middleware.RetryAfterSeconds(rl.RetryAfter)))
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Tool run failed", zap.String("tool", t.Slug), zap.Error(err))
	}
	msg, desc := domain.UserMessage(err)
	h.Render(c, status, toolpages.RunError(msg, desc))
}

// Download serves the raw backend response of an earlier run.
func (h *ToolHandlers) Download(c *gin.Context) {
	t, ok := h.tool(c)
	if !ok {
		return
	}
	res, err := h.service.Lookup(middleware.GetUserIDFromContext(c), c.Param("id"))
	if err != nil || res.Tool != t.Slug {
		h.RenderNotFound(c)
		return
	}
	contentType := res.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, downloadName(res)))
	c.Data(http.StatusOK, contentType, res.Body)
}

func downloadName(res *models.Result) string {
	ext := ".txt"
	switch ct := res.ContentType; {
	case ct == "":
	case strings.Contains(ct, "json"):
		ext = ".json"
	case strings.Contains(ct, "html"):
		ext = ".html"
	case strings.Contains(ct, "gzip"):
		ext = ".gz"
	case strings.Contains(ct, "zip"):
		ext = ".zip"
	case strings.Contains(ct, "octet-stream"):
		ext = ".bin"
	}
	return path.Base(res.Tool) + "-" + res.ID[:min(8, len(res.ID))] + ext
}

func (h *ToolHandlers) WorkbenchPage(c *gin.Context) {
	h.RenderPage(c, domain.Page{
		Title:       "Workbench",
		ActiveNav:   "Workbench",
		Breadcrumbs: []models.Breadcrumb{{Label: "Home", URL: "/dashboard"}, {Label: "Workbench", URL: "/workbench"}},
		Content:     toolpages.Workbench(h.catalog.Sequential(), MaxWorkbenchTools),
	})
}

// WorkbenchRun fans the sequence out to the selected tools. Invalid input
// fails the whole request; per-tool failures only fail their panel.
func (h *ToolHandlers) WorkbenchRun(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	}
	slugs := c.PostFormArray("tools")
	if len(slugs) == 0 {
		h.Render(c, http.StatusUnprocessableEntity, toolpages.RunError("Select at least one tool", ""))
		return
	}
	if len(slugs) > MaxWorkbenchTools {
		h.Render(c, http.StatusUnprocessableEntity,
			toolpages.RunError("Too many tools selected", fmt.Sprintf("Select at most %d.", MaxWorkbenchTools)))
		return
	}

	selected := make([]*models.Tool, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		t, err := h.catalog.Get(slug)
		if err != nil || seen[slug] {
			continue
		}
		seen[slug] = true
		selected = append(selected, t)
	}
	if len(selected) == 0 {
		h.Render(c, http.StatusUnprocessableEntity, toolpages.RunError("None of the selected tools exist", ""))
		return
	}

	in, err := ParseWorkbench(c.PostForm("sequence"), h.maxBytes)
	if err != nil {
		msg, desc := domain.UserMessage(err)
		h.Render(c, domain.ErrorStatus(err), toolpages.RunError(msg, desc))
		return
	}

	user := middleware.GetUserFromContext(c)
	panels := h.service.RunMany(c.Request.Context(), user, selected, in, h.tokens.Tokens(c))

	views := make([]toolpages.PanelView, len(panels))
	for i, p := range panels {
		views[i] = toolpages.PanelView{Tool: p.Tool, Result: p.Result}
		if p.Err != nil {
			if errors.Is(p.Err, models.ErrSessionExpired) {
				domain.AddFlash(c, domain.FlashWarning, "Your session has expired. Please sign in again.")
				middleware.Redirect(c, http.StatusUnauthorized, middleware.SignInURL(c))
				return
			}
			views[i].Message, views[i].Description = domain.UserMessage(p.Err)
		}
	}
	h.Render(c, http.StatusOK, toolpages.WorkbenchResults(views))
}
