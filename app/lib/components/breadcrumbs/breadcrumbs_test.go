package breadcrumbs

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlab/helixdash/internal/app/models"
)

func TestTitle(t *testing.T) {
	assert.Equal(t, "Multiple Sequence Alignment", Title("multiple-sequence_alignment"))
	assert.Equal(t, "Blast", Title("blast"))
	assert.Equal(t, "", Title(""))
}

func TestFromPath(t *testing.T) {
	got := FromPath("/tools/gc-content/", map[string]string{"gc-content": "GC Content"})
	want := []models.Breadcrumb{
		{Label: "Home", URL: "/dashboard"},
		{Label: "Tools", URL: "/tools"},
		{Label: "GC Content", URL: "/tools/gc-content"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromPath mismatch (-want +got):\n%s", diff)
	}
}

func TestBreadcrumbs(t *testing.T) {
	var sb strings.Builder
	err := Breadcrumbs([]models.Breadcrumb{
		{Label: "Home", URL: "/dashboard"},
		{Label: "Phylogenetics", URL: "/tools?category=phylogenetics"},
		{Label: "Tree <Viewer>", URL: "/tools/tree-viewer"},
	}).Render(context.Background(), &sb)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sb.String()))
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Find("nav ol li a").Length())
	current := doc.Find("[aria-current=page]")
	assert.Equal(t, "Tree <Viewer>", current.Text())
	href, _ := doc.Find("a").Eq(1).Attr("href")
	assert.Equal(t, "/tools?category=phylogenetics", href)
}

func TestBreadcrumbsEmpty(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Breadcrumbs(nil).Render(context.Background(), &sb))
	assert.Empty(t, sb.String())
}
