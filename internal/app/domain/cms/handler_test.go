package cms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/internal/app/domain"
	"github.com/helixlab/helixdash/internal/app/domain/health"
	"github.com/helixlab/helixdash/internal/app/domain/tools"
	"github.com/helixlab/helixdash/internal/pkg/cache"
)

type stubChecker struct{ err error }

func (s *stubChecker) Health(context.Context) error { return s.err }

func setup(t *testing.T) (*gin.Engine, *cache.UnifiedCache[string], *stubChecker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := tools.LoadCatalog("")
	require.NoError(t, err)
	checker := &stubChecker{}
	monitor := health.NewMonitor(checker, "", time.Second, zap.NewNop())
	caches := cache.NewCacheManager()
	results := cache.NewUnifiedCache[string](time.Minute, "tool_results", zap.NewNop())
	caches.Register(results)

	base := domain.NewBaseHandler(zap.NewNop(), catalog, monitor)
	h := NewHandler(base, catalog, monitor, caches, "http://backend:8000", zap.NewNop())

	r := gin.New()
	r.GET("/cms", h.Page)
	r.POST("/cms/cache/clear", h.ClearCache)
	r.POST("/cms/health/check", h.CheckHealth)
	return r, results, checker
}

func serve(t *testing.T, r *gin.Engine, method, target string) *goquery.Document {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	return doc
}

func TestPage(t *testing.T) {
	r, results, _ := setup(t)
	results.Set("a", "1")
	results.Get("a")
	results.Get("missing")

	doc := serve(t, r, http.MethodGet, "/cms")
	assert.Equal(t, "unknown", doc.Find("#cms-health").AttrOr("data-state", ""))
	assert.Contains(t, doc.Find("#cms-health").Text(), "http://backend:8000")

	row := doc.Find(`tr.cache-row[data-cache="tool_results"] td`)
	require.Equal(t, 5, row.Length())
	assert.Equal(t, "1", row.Eq(1).Text())
	assert.Equal(t, "50%", row.Eq(4).Text())

	assert.Greater(t, doc.Find("#cms-catalog tbody tr").Length(), 30)
	assert.Equal(t, 1, doc.Find(`#cms-catalog a[href="/tools/blast"]`).Length())
}

func TestClearCache(t *testing.T) {
	r, results, _ := setup(t)
	results.Set("a", "1")

	doc := serve(t, r, http.MethodPost, "/cms/cache/clear")
	assert.Equal(t, 0, results.Size())
	assert.Equal(t, "0", doc.Find(`tr.cache-row[data-cache="tool_results"] td`).Eq(1).Text())
	assert.Contains(t, doc.Find("[data-banner]").Text(), "Caches cleared")
}

func TestCheckHealth(t *testing.T) {
	r, _, checker := setup(t)

	doc := serve(t, r, http.MethodPost, "/cms/health/check")
	assert.Equal(t, "up", doc.Find("#cms-health").AttrOr("data-state", ""))

	checker.err = errors.New("dial tcp: connection refused")
	doc = serve(t, r, http.MethodPost, "/cms/health/check")
	assert.Equal(t, "down", doc.Find("#cms-health").AttrOr("data-state", ""))
	assert.Contains(t, doc.Find("[data-banner]").Text(), "connection refused")
}
