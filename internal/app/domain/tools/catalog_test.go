package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlab/helixdash/internal/app/models"
)

func TestEmbeddedCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, c.Len(), 35)

	blast, err := c.Get("blast")
	require.NoError(t, err)
	assert.Equal(t, "POST", blast.Method, "method defaults to POST")
	assert.Equal(t, "/tools/blast", blast.URL())

	_, err = c.Get("nope")
	assert.ErrorIs(t, err, models.ErrNotFound)

	groups := c.ByCategory()
	require.NotEmpty(t, groups)
	assert.Equal(t, "Search & Alignment", groups[0].Name, "categories keep first-appearance order")
	total := 0
	for _, g := range groups {
		total += len(g.Tools)
		for _, tool := range g.Tools {
			assert.Equal(t, g.Name, tool.Category)
		}
	}
	assert.Equal(t, c.Len(), total)

	sidebar := c.Sidebar()
	require.Len(t, sidebar, len(groups))
	assert.Equal(t, "/tools/blast", sidebar[0].Items[0].URL)

	for _, tool := range c.Sequential() {
		assert.True(t, tool.AcceptsSequence())
		assert.NotEqual(t, models.InputPair, tool.Input)
		assert.False(t, tool.FreeText())
		assert.False(t, tool.NeedsInput(), tool.Slug)
	}

	motif, err := c.Get("motif-finder")
	require.NoError(t, err)
	assert.True(t, motif.NeedsInput())
	assert.NotContains(t, c.Sequential(), motif, "required params without a default keep a tool out of the workbench")
}

func TestEveryRenderKindIsUsed(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)

	seen := map[models.RenderKind]bool{}
	for _, tool := range c.All() {
		seen[tool.Render] = true
	}
	for _, kind := range []models.RenderKind{
		models.RenderJSON, models.RenderTable, models.RenderText, models.RenderHTML, models.RenderTree,
		models.RenderPie, models.RenderMelody, models.RenderStructure, models.RenderPlot, models.RenderDownload,
	} {
		assert.True(t, seen[kind], "no tool renders %s", kind)
	}
}

func TestParseCatalogRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", `tools: []`},
		{"bad slug", `
tools:
  - {slug: "Not A Slug", name: X, category: C, endpoint: /x, input: sequence, render: json}`},
		{"unknown render", `
tools:
  - {slug: x, name: X, category: C, endpoint: /x, input: sequence, render: hologram}`},
		{"relative endpoint", `
tools:
  - {slug: x, name: X, category: C, endpoint: x, input: sequence, render: json}`},
		{"duplicate slug", `
tools:
  - {slug: x, name: X, category: C, endpoint: /x, input: sequence, render: json}
  - {slug: x, name: Y, category: C, endpoint: /y, input: sequence, render: json}`},
		{"select without options", `
tools:
  - slug: x
    name: X
    category: C
    endpoint: /x
    input: sequence
    render: json
    params:
      - {name: mode, label: Mode, kind: select}`},
		{"select default not an option", `
tools:
  - slug: x
    name: X
    category: C
    endpoint: /x
    input: sequence
    render: json
    params:
      - {name: mode, label: Mode, kind: select, options: [a, b], default: c}`},
		{"get with file input", `
tools:
  - {slug: x, name: X, category: C, endpoint: /x, method: GET, input: file, render: json}`},
		{"not yaml", `tools: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - {slug: one, name: One, category: B, endpoint: /one, input: sequence, render: text}
  - {slug: two, name: Two, category: A, endpoint: /two, input: file, render: download}
  - {slug: three, name: Three, category: B, endpoint: /three, input: pair, render: text}
`), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	var got [][]string
	for _, g := range c.ByCategory() {
		names := []string{g.Name}
		for _, tool := range g.Tools {
			names = append(names, tool.Slug)
		}
		got = append(got, names)
	}
	want := [][]string{{"B", "one", "three"}, {"A", "two"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ByCategory mismatch (-want +got):\n%s", diff)
	}

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
