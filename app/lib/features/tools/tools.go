// Package tools holds the catalog, tool form and workbench pages.
package tools

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/helixlab/helixdash/app/lib/components/banner"
	"github.com/helixlab/helixdash/app/lib/components/button"
	"github.com/helixlab/helixdash/app/lib/components/form"
	"github.com/helixlab/helixdash/app/lib/features/results"
	"github.com/helixlab/helixdash/app/lib/utils"
	"github.com/helixlab/helixdash/internal/app/models"
)

const (
	ResultTarget    = "#tool-result"
	WorkbenchTarget = "#workbench-results"
)

// Group is one catalog category.
type Group struct {
	Name  string
	Tools []*models.Tool
}

func Catalog(groups []Group) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<section class="catalog space-y-8"><h1 class="text-2xl font-semibold">Tools</h1>`)
		for _, g := range groups {
			w.Raw(`<div class="catalog-group"><h2 class="mb-3 text-lg font-medium">`)
			w.Text(g.Name)
			w.Raw(`</h2><ul class="grid gap-3 sm:grid-cols-2 lg:grid-cols-3">`)
			for _, t := range g.Tools {
				card(w, t)
			}
			w.Raw("</ul></div>")
		}
		w.Raw("</section>")
	})
}

func card(w *utils.Writer, t *models.Tool) {
	w.Raw(`<li class="tool-card rounded-lg border bg-white p-4 hover:border-emerald-400"`)
	w.Attr("data-slug", t.Slug)
	w.Raw("><a")
	w.Attr("href", t.URL())
	w.Raw(` class="block"><h3 class="font-medium">`)
	w.Text(t.Name)
	w.Raw(`</h3><p class="mt-1 text-sm text-slate-500">`)
	w.Text(t.Description)
	w.Raw("</p></a></li>")
}

// ToolPage is the form for one tool with an empty result area. maxBytes is
// the upload limit shown next to the inputs.
func ToolPage(t *models.Tool, maxBytes int64) templ.Component {
	if t.MaxInputBytes > 0 {
		maxBytes = t.MaxInputBytes
	}
	action := t.URL() + "/run"
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<section class="tool-page space-y-6"`)
		w.Attr("data-slug", t.Slug)
		w.Raw(`><header><h1 class="text-2xl font-semibold">`)
		w.Text(t.Name)
		w.Raw(`</h1><p class="mt-1 text-slate-500">`)
		w.Text(t.Description)
		w.Raw("</p></header>")

		w.Raw("<form")
		w.Attr("id", "tool-form")
		w.Attr("method", "post")
		w.Attr("action", action)
		w.Attr("hx-post", action)
		w.Attr("hx-target", ResultTarget)
		w.Attr("hx-swap", "innerHTML")
		w.Attr("hx-indicator", "#tool-spinner")
		w.Attr("hx-disabled-elt", "find button[type='submit']")
		if t.AcceptsFile() {
			w.Attr("enctype", "multipart/form-data")
			w.Attr("hx-encoding", "multipart/form-data")
		}
		w.Raw(` class="space-y-4 rounded-lg border bg-white p-4">`)

		if t.AcceptsSequence() {
			rows := 10
			if t.FreeText() {
				rows = 2
			}
			w.Render(form.Textarea(form.TextareaProps{
				Name:        "sequence",
				Label:       sequenceLabel(t),
				Placeholder: placeholder(t),
				Rows:        rows,
				Help:        limitHelp(maxBytes, t.Input == models.InputSequenceOrFile),
				Required:    t.Input != models.InputSequenceOrFile,
			}))
		}
		if t.AcceptsFile() {
			w.Render(form.Input(form.InputProps{
				Name:       "file",
				Type:       "file",
				Label:      "Upload a file",
				Help:       limitHelp(maxBytes, false),
				Required:   t.Input == models.InputFile,
				Attributes: templ.Attributes{"accept": t.Accept},
			}))
		}
		for _, p := range t.Params {
			w.Render(param(p))
		}

		w.Raw(`<div class="flex items-center gap-3">`)
		w.Render(button.Button(button.Props{Type: button.TypeSubmit, Label: "Run " + t.Name}))
		w.Raw(`<span id="tool-spinner" class="htmx-indicator text-sm text-slate-500">Running…</span></div></form>`)
		w.Raw(`<div id="tool-result" aria-live="polite"></div></section>`)
	})
}

func sequenceLabel(t *models.Tool) string {
	switch {
	case t.FreeText():
		return "Input"
	case t.Input == models.InputPair:
		return "Two sequences (FASTA)"
	}
	return "Sequence (FASTA or plain)"
}

func placeholder(t *models.Tool) string {
	switch {
	case t.FreeText():
		return ""
	case t.Input == models.InputPair:
		return ">seq1\nACGT...\n>seq2\nACGA..."
	case t.Alphabet == "protein":
		return ">protein\nMKTAYIAKQR..."
	}
	return ">example\nATGGCGTACGTTAGC..."
}

func limitHelp(maxBytes int64, either bool) string {
	s := ""
	if either {
		s = "Paste a sequence or upload a file. "
	}
	if maxBytes > 0 {
		s += fmt.Sprintf("Up to %d MiB.", max(maxBytes>>20, 1))
	}
	return s
}

func param(p models.Param) templ.Component {
	if p.Kind == models.ParamSelect {
		return form.Select(form.SelectProps{
			Name:     p.Name,
			Label:    p.Label,
			Options:  p.Options,
			Selected: p.Default,
			Help:     p.Help,
			Required: p.Required,
		})
	}
	props := form.InputProps{
		Name:     p.Name,
		Label:    p.Label,
		Value:    p.Default,
		Help:     p.Help,
		Required: p.Required,
	}
	if p.Kind == models.ParamNumber {
		props.Type = "number"
		props.Attributes = templ.Attributes{"step": "any"}
	}
	return form.Input(props)
}

// RunError is swapped into the result area when a run fails.
func RunError(message, description string) templ.Component {
	return banner.Banner(banner.BannerProps{
		ID:          "tool-error",
		Type:        banner.BannerError,
		Message:     message,
		Description: description,
		Dismissable: true,
	})
}

// Workbench sends one sequence to several tools at once.
func Workbench(available []*models.Tool, maxTools int) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<section class="workbench space-y-6"><header><h1 class="text-2xl font-semibold">Workbench</h1>`)
		w.Rawf(`<p class="mt-1 text-slate-500">Run one sequence through up to %d tools side by side.</p></header>`, maxTools)
		w.Raw(`<form id="workbench-form" method="post" action="/workbench/run" hx-post="/workbench/run" hx-target="#workbench-results" hx-swap="innerHTML" hx-indicator="#workbench-spinner" class="space-y-4 rounded-lg border bg-white p-4">`)
		w.Render(form.Textarea(form.TextareaProps{Name: "sequence", Label: "Sequence (FASTA or plain)", Required: true, Rows: 8}))
		w.Raw(`<fieldset><legend class="text-sm font-medium text-slate-700">Tools</legend><div class="mt-2 grid gap-2 sm:grid-cols-2 lg:grid-cols-3">`)
		for _, t := range available {
			w.Raw(`<label class="flex items-center gap-2 text-sm"><input type="checkbox" name="tools"`)
			w.Attr("value", t.Slug)
			w.Raw(">")
			w.Text(t.Name)
			w.Raw("</label>")
		}
		w.Raw(`</div></fieldset><div class="flex items-center gap-3">`)
		w.Render(button.Button(button.Props{Type: button.TypeSubmit, Label: "Run selected tools"}))
		w.Raw(`<span id="workbench-spinner" class="htmx-indicator text-sm text-slate-500">Running…</span></div></form>`)
		w.Raw(`<div id="workbench-results" class="grid gap-4 lg:grid-cols-2" aria-live="polite"></div></section>`)
	})
}

// PanelView is one workbench outcome ready for display.
type PanelView struct {
	Tool        *models.Tool
	Result      *models.Result
	Message     string
	Description string
}

func WorkbenchResults(panels []PanelView) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		for i, p := range panels {
			if p.Result != nil {
				w.Render(results.Result(p.Tool, p.Result))
				continue
			}
			w.Raw(`<article class="result result-failed rounded-lg border bg-white p-4"`)
			w.Attr("data-slug", p.Tool.Slug)
			w.Raw(`><h2 class="text-lg font-semibold">`)
			w.Text(p.Tool.Name)
			w.Raw("</h2>")
			w.Render(banner.Banner(banner.BannerProps{
				ID:          "panel-error-" + strconv.Itoa(i),
				Type:        banner.BannerError,
				Message:     p.Message,
				Description: p.Description,
				Class:       "mt-3",
			}))
			w.Raw("</article>")
		}
	})
}
