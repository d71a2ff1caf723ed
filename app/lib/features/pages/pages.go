// Package pages holds the landing, dashboard, settings and error pages.
package pages

import (
	"fmt"
	"time"

	"github.com/a-h/templ"

	"github.com/helixlab/helixdash/app/lib/components/button"
	"github.com/helixlab/helixdash/app/lib/utils"
	"github.com/helixlab/helixdash/internal/app/models"
)

func Landing(signedIn bool, toolCount int) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<section class="landing space-y-6 py-10 text-center"><h1 class="text-4xl font-bold">Sequence analysis in the browser</h1>`)
		w.Rawf(`<p class="text-lg text-slate-600">Paste a FASTA sequence or upload a file and run it through %d analysis tools, from BLAST searches to phylogenetic trees.</p>`, toolCount)
		w.Raw(`<div class="flex justify-center gap-3">`)
		if signedIn {
			w.Render(button.Button(button.Props{Href: "/dashboard", Label: "Open the dashboard"}))
		} else {
			w.Render(button.Button(button.Props{Href: "/auth/signup", Label: "Create an account"}))
			w.Render(button.Button(button.Props{Href: "/auth/signin", Label: "Sign in", Variant: button.VariantOutline}))
		}
		w.Raw("</div></section>")
	})
}

func About() templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<section class="about prose max-w-none"><h1>About HelixDash</h1>`)
		w.Raw(`<p>HelixDash is a workspace for running bioinformatics tools. The analyses themselves run on a separate backend service; this application collects your input, checks that it is well-formed and presents the results as tables, charts, trees, 3D structures and audio.</p>`)
		w.Raw(`<p>Inputs are accepted as FASTA text or as file uploads. Results are kept for a limited time and can be downloaded in the backend's original format.</p></section>`)
	})
}

// Stat is one dashboard tile.
type Stat struct {
	Label string
	Value string
}

// DashboardProps feeds the dashboard. Recent lists tools in catalog order.
type DashboardProps struct {
	User   *models.User
	Stats  []Stat
	Recent []*models.Tool
}

func Dashboard(p DashboardProps) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<section class="dashboard space-y-6"><h1 class="text-2xl font-semibold">Welcome`)
		if name := p.User.DisplayName(); name != "" {
			w.Raw(", ")
			w.Text(name)
		}
		w.Raw(`</h1><dl class="grid gap-4 sm:grid-cols-3">`)
		for _, s := range p.Stats {
			w.Raw(`<div class="stat rounded-lg border bg-white p-4"><dt class="text-sm text-slate-500">`)
			w.Text(s.Label)
			w.Raw(`</dt><dd class="mt-1 text-2xl font-semibold">`)
			w.Text(s.Value)
			w.Raw("</dd></div>")
		}
		w.Raw(`</dl><div><h2 class="mb-3 text-lg font-medium">Start with</h2><ul class="grid gap-3 sm:grid-cols-2 lg:grid-cols-3">`)
		for _, t := range p.Recent {
			w.Raw(`<li class="rounded-lg border bg-white p-4"><a class="font-medium underline"`)
			w.Attr("href", t.URL())
			w.Raw(">")
			w.Text(t.Name)
			w.Raw(`</a><p class="mt-1 text-sm text-slate-500">`)
			w.Text(t.Description)
			w.Raw("</p></li>")
		}
		w.Raw(`</ul></div><div class="flex gap-3">`)
		w.Render(button.Button(button.Props{Href: "/tools", Label: "Browse all tools"}))
		w.Render(button.Button(button.Props{Href: "/workbench", Label: "Open the workbench", Variant: button.VariantOutline}))
		w.Raw("</div></section>")
	})
}

// SessionInfo is what the settings page shows about the current session.
type SessionInfo struct {
	User       *models.User
	ExpiresAt  time.Time
	IssuedAt   time.Time
	Refreshing bool
	BackendURL string
}

func Settings(s SessionInfo) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<section class="settings space-y-6"><h1 class="text-2xl font-semibold">Settings</h1>`)
		w.Raw(`<dl class="grid grid-cols-[max-content_1fr] gap-x-6 gap-y-2 rounded-lg border bg-white p-4 text-sm">`)
		row := func(label, value string) {
			w.Raw(`<dt class="font-medium text-slate-600">`)
			w.Text(label)
			w.Raw("</dt><dd>")
			w.Text(value)
			w.Raw("</dd>")
		}
		if s.User != nil {
			row("Name", s.User.DisplayName())
			row("Email", s.User.Email)
			row("Role", s.User.Role)
		}
		row("Signed in", formatTime(s.IssuedAt))
		row("Access token expires", formatTime(s.ExpiresAt))
		renewal := "not available"
		if s.Refreshing {
			renewal = "enabled"
		}
		row("Automatic renewal", renewal)
		row("Analysis backend", s.BackendURL)
		w.Raw(`</dl><div id="session-refresh" class="text-sm"></div><div class="flex gap-3">`)
		w.Render(button.Button(button.Props{
			Label:      "Renew session now",
			Variant:    button.VariantOutline,
			Attributes: templ.Attributes{"hx-post": "/auth/refresh", "hx-target": "#session-refresh", "hx-swap": "innerHTML"},
		}))
		w.Render(button.Button(button.Props{
			Label:      "Sign out",
			Variant:    button.VariantDestructive,
			Attributes: templ.Attributes{"hx-post": "/auth/logout"},
		}))
		w.Raw("</div></section>")
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("2006-01-02 15:04:05 MST")
}

// Status renders the 403, 404 and 500 pages.
func Status(code int, title, message string) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<section class="status-page py-16 text-center"`)
		w.Attr("data-status", fmt.Sprint(code))
		w.Rawf(`><p class="text-6xl font-bold text-slate-300">%d</p><h1 class="mt-4 text-2xl font-semibold">`, code)
		w.Text(title)
		w.Raw(`</h1><p class="mt-2 text-slate-600">`)
		w.Text(message)
		w.Raw(`</p><div class="mt-6">`)
		w.Render(button.Button(button.Props{Href: "/dashboard", Label: "Back to the dashboard"}))
		w.Raw("</div></section>")
	})
}

func NotFound() templ.Component {
	return Status(404, "Page not found", "The page or result you are looking for does not exist or has expired.")
}

func Forbidden() templ.Component {
	return Status(403, "Access denied", "Your account does not have permission to view this page.")
}
