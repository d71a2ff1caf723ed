package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"

	"github.com/helixlab/helixdash/internal/app/models"
)

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("failed to read rendered HTML: %v", err)
	}
	return doc
}

func TestToolPage(t *testing.T) {
	t.Run("sequence tools post url-encoded forms", func(t *testing.T) {
		tool := &models.Tool{
			Slug: "orf", Name: "ORF finder", Input: models.InputSequence,
			Params: []models.Param{
				{Name: "min_length", Label: "Minimum length", Kind: models.ParamNumber, Default: "75"},
				{Name: "table", Label: "Codon table", Kind: models.ParamSelect, Options: []string{"1", "11"}, Default: "11"},
			},
		}
		doc := render(t, ToolPage(tool, 8<<20))

		form := doc.Find("form#tool-form")
		if got := form.AttrOr("hx-post", ""); got != "/tools/orf/run" {
			t.Errorf(`expected hx-post "/tools/orf/run", got %q`, got)
		}
		if got := form.AttrOr("hx-target", ""); got != ResultTarget {
			t.Errorf("expected hx-target %q, got %q", ResultTarget, got)
		}
		if _, ok := form.Attr("hx-encoding"); ok {
			t.Error("sequence-only forms should not be multipart")
		}
		if form.Find("textarea[name='sequence']").Length() != 1 {
			t.Error("expected a sequence textarea")
		}
		if form.Find("input[type='file']").Length() != 0 {
			t.Error("did not expect a file input")
		}
		if got := form.Find("input[name='min_length']").AttrOr("type", ""); got != "number" {
			t.Errorf("expected a number input, got %q", got)
		}
		if got := form.Find("select[name='table'] option[selected]").Text(); got != "11" {
			t.Errorf("expected option 11 to be selected, got %q", got)
		}
		if doc.Find("#tool-result").Length() != 1 {
			t.Error("expected the result container")
		}
		if !strings.Contains(doc.Text(), "Up to 8 MiB.") {
			t.Error("expected the size limit to be shown")
		}
	})

	t.Run("file tools use multipart", func(t *testing.T) {
		tool := &models.Tool{Slug: "vc", Name: "Variant calling", Input: models.InputFile, Accept: ".bam,.sam"}
		doc := render(t, ToolPage(tool, 0))

		form := doc.Find("form#tool-form")
		if got := form.AttrOr("hx-encoding", ""); got != "multipart/form-data" {
			t.Errorf("expected multipart encoding, got %q", got)
		}
		file := form.Find("input[type='file'][name='file']")
		if got := file.AttrOr("accept", ""); got != ".bam,.sam" {
			t.Errorf("expected accept .bam,.sam, got %q", got)
		}
		if form.Find("textarea").Length() != 0 {
			t.Error("file-only tools have no textarea")
		}
	})
}

func TestCatalog(t *testing.T) {
	doc := render(t, Catalog([]Group{
		{Name: "Alignment", Tools: []*models.Tool{{Slug: "blast", Name: "BLAST"}, {Slug: "msa", Name: "MSA"}}},
		{Name: "Structure", Tools: []*models.Tool{{Slug: "fold", Name: "Fold"}}},
	}))

	if got := doc.Find(".catalog-group").Length(); got != 2 {
		t.Fatalf("expected 2 groups, got %d", got)
	}
	card := doc.Find("li.tool-card[data-slug='msa'] a")
	if got := card.AttrOr("href", ""); got != "/tools/msa" {
		t.Errorf(`expected link "/tools/msa", got %q`, got)
	}
}

func TestWorkbenchResults(t *testing.T) {
	gc := &models.Tool{Slug: "gc", Name: "GC content", Render: models.RenderJSON}
	pi := &models.Tool{Slug: "pi", Name: "Isoelectric point"}
	doc := render(t, WorkbenchResults([]PanelView{
		{Tool: gc, Result: &models.Result{ID: "a", Tool: "gc", Body: []byte(`{"gc":50}`)}},
		{Tool: pi, Message: "Please check your input", Description: "looks like dna"},
	}))

	if doc.Find("article#result-a").Length() != 1 {
		t.Error("expected the successful panel to render the result")
	}
	failed := doc.Find("article.result-failed[data-slug='pi']")
	if failed.Length() != 1 {
		t.Fatal("expected the failed panel")
	}
	if got := failed.Find("[data-banner='error']").Text(); !strings.Contains(got, "looks like dna") {
		t.Errorf("expected the error description in the panel, got %q", got)
	}
}

func TestRunError(t *testing.T) {
	doc := render(t, RunError("Too many runs", "Please wait"))
	if doc.Find("#tool-error[data-banner='error']").Length() != 1 {
		t.Error("expected an error banner with id tool-error")
	}
}
