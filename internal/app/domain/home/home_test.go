package home

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/internal/app/domain"
	"github.com/helixlab/helixdash/internal/app/domain/tools"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
)

type badge models.HealthBadge

func (b badge) Badge() models.HealthBadge { return models.HealthBadge(b) }

func get(t *testing.T, health domain.HealthSource, path string, user *models.User) *goquery.Document {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalog, err := tools.LoadCatalog("")
	require.NoError(t, err)
	h := NewHomeHandlers(domain.NewBaseHandler(zap.NewNop(), catalog, health), catalog, health, zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != nil {
			middleware.SetUser(c, user)
		}
	})
	r.GET("/", h.ShowLandingPage)
	r.GET("/about", h.ShowAboutPage)
	r.GET("/dashboard", h.ShowDashboard)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return doc
}

func TestLanding(t *testing.T) {
	doc := get(t, badge{}, "/", nil)
	assert.Equal(t, 1, doc.Find(`.landing a[href="/auth/signin"]`).Length())

	doc = get(t, badge{}, "/", &models.User{ID: "u1"})
	assert.Equal(t, 1, doc.Find(`.landing a[href="/dashboard"]`).Length())
	assert.Equal(t, 0, doc.Find(`.landing a[href="/auth/signin"]`).Length())
}

func TestDashboard(t *testing.T) {
	user := &models.User{ID: "u1", Name: "Rosalind"}

	tests := []struct {
		name    string
		health  badge
		backend string
	}{
		{"unchecked", badge{}, "unknown"},
		{"up", badge{Checked: true, Up: true}, "online"},
		{"down", badge{Checked: true}, "offline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := get(t, tt.health, "/dashboard", user)
			assert.Contains(t, doc.Find(".dashboard h1").Text(), "Rosalind")

			stats := map[string]string{}
			doc.Find(".stat").Each(func(_ int, s *goquery.Selection) {
				stats[s.Find("dt").Text()] = s.Find("dd").Text()
			})
			assert.Equal(t, tt.backend, stats["Backend"])
			assert.NotEqual(t, "0", stats["Tools"])
		})
	}
}

func TestFeatured(t *testing.T) {
	catalog, err := tools.LoadCatalog("")
	require.NoError(t, err)

	cats := catalog.ByCategory()
	got := featured(cats)
	require.Len(t, got, len(cats))
	for i, c := range cats {
		assert.Equal(t, c.Tools[0].Slug, got[i].Slug)
	}
}
