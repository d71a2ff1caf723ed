// Package cms holds the admin overview page.
package cms

import (
	"fmt"
	"time"

	"github.com/a-h/templ"

	"github.com/helixlab/helixdash/app/lib/components/banner"
	"github.com/helixlab/helixdash/app/lib/components/button"
	"github.com/helixlab/helixdash/app/lib/utils"
	"github.com/helixlab/helixdash/internal/app/models"
)

type HealthView struct {
	Up        bool
	Checked   bool
	Latency   time.Duration
	LastCheck time.Time
	LastError string
}

type CacheRow struct {
	Name   string
	Items  int
	Hits   int64
	Misses int64
	Sets   int64
}

// HitRate is the share of lookups answered from the cache, in percent.
func (r CacheRow) HitRate() string {
	total := r.Hits + r.Misses
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", float64(r.Hits)*100/float64(total))
}

type Props struct {
	Tools      []*models.Tool
	Health     HealthView
	Caches     []CacheRow
	BackendURL string
}

func Page(p Props) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<section class="cms space-y-8"><h1 class="text-2xl font-semibold">Administration</h1>`)
		w.Raw(`<div class="grid gap-6 lg:grid-cols-2">`)
		w.Render(HealthPanel(p.Health, p.BackendURL))
		w.Render(CachePanel(p.Caches, ""))
		w.Raw("</div>")
		w.Render(catalogTable(p.Tools))
		w.Raw("</section>")
	})
}

// HealthPanel is swapped in place after a manual check.
func HealthPanel(h HealthView, backendURL string) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		state := "unknown"
		if h.Checked {
			state = "down"
			if h.Up {
				state = "up"
			}
		}
		w.Raw(`<div id="cms-health" class="rounded-lg border bg-white p-4"`)
		w.Attr("data-state", state)
		w.Raw(`><h2 class="mb-3 text-lg font-medium">Backend</h2><dl class="grid grid-cols-[max-content_1fr] gap-x-4 gap-y-1 text-sm">`)
		kv(w, "URL", backendURL)
		kv(w, "Status", state)
		if h.Checked {
			kv(w, "Latency", h.Latency.Round(time.Millisecond).String())
			kv(w, "Last check", h.LastCheck.Local().Format("2006-01-02 15:04:05"))
		}
		w.Raw("</dl>")
		if h.LastError != "" {
			w.Render(banner.Banner(banner.BannerProps{Type: banner.BannerError, Message: "Last error", Description: h.LastError, Class: "mt-3"}))
		}
		w.Raw(`<div class="mt-4">`)
		w.Render(button.Button(button.Props{
			Label:   "Check now",
			Variant: button.VariantOutline,
			Size:    button.SizeSm,
			Attributes: templ.Attributes{
				"hx-post":   "/cms/health/check",
				"hx-target": "#cms-health",
				"hx-swap":   "outerHTML",
			},
		}))
		w.Raw("</div></div>")
	})
}

// CachePanel lists cache statistics. notice is shown above the table when set.
func CachePanel(rows []CacheRow, notice string) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<div id="cms-caches" class="rounded-lg border bg-white p-4"><h2 class="mb-3 text-lg font-medium">Caches</h2>`)
		if notice != "" {
			w.Render(banner.Banner(banner.BannerProps{Type: banner.BannerSuccess, Message: notice, AutoDismiss: 4, Class: "mb-3"}))
		}
		w.Raw(`<table class="w-full text-left text-sm"><thead><tr><th>Cache</th><th>Items</th><th>Hits</th><th>Misses</th><th>Hit rate</th></tr></thead><tbody>`)
		for _, r := range rows {
			w.Raw(`<tr class="cache-row"`)
			w.Attr("data-cache", r.Name)
			w.Raw("><td>")
			w.Text(r.Name)
			w.Rawf("</td><td>%d</td><td>%d</td><td>%d</td><td>", r.Items, r.Hits, r.Misses)
			w.Text(r.HitRate())
			w.Raw("</td></tr>")
		}
		w.Raw(`</tbody></table><div class="mt-4">`)
		w.Render(button.Button(button.Props{
			Label:   "Clear caches",
			Variant: button.VariantDestructive,
			Size:    button.SizeSm,
			Attributes: templ.Attributes{
				"hx-post":    "/cms/cache/clear",
				"hx-target":  "#cms-caches",
				"hx-swap":    "outerHTML",
				"hx-confirm": "Clear all cached results?",
			},
		}))
		w.Raw("</div></div>")
	})
}

func catalogTable(tools []*models.Tool) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Rawf(`<div class="rounded-lg border bg-white p-4"><h2 class="mb-3 text-lg font-medium">Catalog (%d tools)</h2>`, len(tools))
		w.Raw(`<div class="overflow-x-auto"><table id="cms-catalog" class="min-w-full text-left text-sm"><thead><tr><th>Slug</th><th>Name</th><th>Category</th><th>Method</th><th>Endpoint</th><th>Input</th><th>Render</th><th>Cached</th></tr></thead><tbody>`)
		for _, t := range tools {
			w.Raw("<tr><td>")
			w.Raw("<a class=\"underline\"")
			w.Attr("href", t.URL())
			w.Raw(">")
			w.Text(t.Slug)
			w.Raw("</a></td>")
			for _, v := range []string{t.Name, t.Category, t.Method, t.Endpoint, string(t.Input), string(t.Render)} {
				w.Raw("<td>")
				w.Text(v)
				w.Raw("</td>")
			}
			w.Raw("<td>")
			if t.Cacheable {
				w.Raw("yes")
			}
			w.Raw("</td></tr>")
		}
		w.Raw("</tbody></table></div></div>")
	})
}

func kv(w *utils.Writer, k, v string) {
	w.Raw(`<dt class="font-medium text-slate-600">`)
	w.Text(k)
	w.Raw("</dt><dd>")
	w.Text(v)
	w.Raw("</dd>")
}
