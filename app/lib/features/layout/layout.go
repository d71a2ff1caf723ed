package layout

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/helixlab/helixdash/app/lib/components/banner"
	"github.com/helixlab/helixdash/app/lib/components/breadcrumbs"
	"github.com/helixlab/helixdash/app/lib/components/button"
	"github.com/helixlab/helixdash/app/lib/utils"
	"github.com/helixlab/helixdash/internal/app/models"
)

const (
	htmxSrc   = "https://unpkg.com/htmx.org@2.0.4"
	plotlySrc = "https://cdn.plot.ly/plotly-2.35.2.min.js"
	molSrc    = "https://3Dmol.org/build/3Dmol-min.js"
)

// Document is the HTML skeleton shared by every full page.
func Document(title string, body templ.Component) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.Raw("<title>")
		if title != "" {
			w.Text(title + " · ")
		}
		w.Raw("HelixDash</title>")
		w.Raw(`<link rel="stylesheet" href="/assets/css/app.css">`)
		w.Rawf(`<script src="%s" defer></script>`, htmxSrc)
		w.Rawf(`<script src="%s" defer></script>`, plotlySrc)
		w.Rawf(`<script src="%s" defer></script>`, molSrc)
		w.Raw(`<script src="/assets/js/app.js" defer></script>`)
		w.Raw(`</head><body class="min-h-screen bg-slate-50 text-slate-900">`)
		w.Render(body)
		w.Raw("</body></html>")
	})
}

// LayoutPage is the authenticated workspace: navbar, sidebar and content.
func LayoutPage(data models.LayoutTempl) templ.Component {
	return Document(data.Title, utils.Component(func(w *utils.Writer) {
		w.Render(Navbar(data))
		w.Raw(`<div class="flex">`)
		w.Render(Sidebar(data.Sidebar, data.ActiveItem))
		w.Raw(`<main class="flex-1 p-6 space-y-4">`)
		w.Render(breadcrumbs.Breadcrumbs(data.Breadcrumbs))
		w.Render(Flashes(data.Flashes))
		w.Raw(`<div id="content">`)
		w.Render(data.Content)
		w.Raw("</div></main></div>")
	}))
}

// PublicPage wraps the landing and sign-in pages.
func PublicPage(title string, user *models.User, flashes []models.Flash, content templ.Component) templ.Component {
	return Document(title, utils.Component(func(w *utils.Writer) {
		w.Raw(`<header class="flex items-center justify-between border-b bg-white px-6 py-3">`)
		w.Raw(`<a href="/" class="text-lg font-semibold text-emerald-700">HelixDash</a><nav class="flex gap-4 text-sm">`)
		if user != nil {
			navLink(w, models.NavItem{Name: "Dashboard", URL: "/dashboard"}, false)
		} else {
			for _, item := range models.OfflineNav.Items {
				navLink(w, item, false)
			}
		}
		w.Raw(`</nav></header><main class="mx-auto max-w-3xl p-6 space-y-4">`)
		w.Render(Flashes(flashes))
		w.Raw(`<div id="content">`)
		w.Render(content)
		w.Raw("</div></main>")
	}))
}

func Navbar(data models.LayoutTempl) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<header class="navbar flex items-center justify-between border-b bg-white px-6 py-3">`)
		w.Raw(`<div class="flex items-center gap-6"><a href="/dashboard" class="text-lg font-semibold text-emerald-700">HelixDash</a><nav class="flex gap-4 text-sm">`)
		items := data.Nav.Items
		if data.User.IsAdmin() {
			items = append(items[:len(items):len(items)], models.AdminNavItem)
		}
		for _, item := range items {
			navLink(w, item, item.Name == data.ActiveNav)
		}
		w.Raw(`</nav></div><div class="flex items-center gap-4 text-sm">`)
		w.Render(HealthIndicator(data.Health))
		if data.User != nil {
			w.Raw(`<span class="user-name font-medium">`)
			w.Text(data.User.DisplayName())
			w.Raw(`</span><span class="user-role rounded bg-slate-100 px-2 py-0.5 text-xs">`)
			w.Text(data.User.Role)
			w.Raw("</span>")
			w.Render(button.Button(button.Props{
				ID:      "signout",
				Variant: button.VariantOutline,
				Size:    button.SizeSm,
				Label:   "Sign out",
				Attributes: templ.Attributes{
					"hx-post": "/auth/logout",
				},
			}))
		}
		w.Raw("</div></header>")
	})
}

func navLink(w *utils.Writer, item models.NavItem, active bool) {
	class := utils.TwMerge("text-slate-600 hover:text-slate-900", utils.If(active, "font-semibold text-slate-900"))
	w.Raw("<a")
	w.Attr("href", item.URL)
	w.Attr("class", class)
	if active {
		w.Raw(` aria-current="page"`)
	}
	w.Raw(">")
	w.Text(item.Name)
	w.Raw("</a>")
}

// Sidebar lists tools by category. active is the URL of the current page.
func Sidebar(sections []models.SidebarSection, active string) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		if len(sections) == 0 {
			return
		}
		w.Raw(`<aside class="sidebar w-64 shrink-0 border-r bg-white p-4 text-sm"><nav>`)
		for _, sec := range sections {
			w.Raw(`<div class="mb-4"><h3 class="mb-1 text-xs font-semibold uppercase tracking-wide text-slate-500">`)
			w.Text(sec.Title)
			w.Raw(`</h3><ul class="space-y-0.5">`)
			for _, item := range sec.Items {
				isActive := item.URL == active
				w.Raw("<li><a")
				w.Attr("href", item.URL)
				w.Attr("class", utils.TwMerge("block rounded px-2 py-1 hover:bg-slate-100", utils.If(isActive, "active bg-emerald-50 text-emerald-800")))
				if isActive {
					w.Raw(` aria-current="page"`)
				}
				w.Raw(">")
				w.Text(item.Name)
				w.Raw("</a></li>")
			}
			w.Raw("</ul></div>")
		}
		w.Raw("</nav></aside>")
	})
}

// HealthIndicator is the backend status dot in the navbar.
func HealthIndicator(h models.HealthBadge) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		state, color, label := "unknown", "bg-slate-300", "Backend status unknown"
		if h.Checked {
			if h.Up {
				state, color, label = "up", "bg-emerald-500", "Backend online"
			} else {
				state, color, label = "down", "bg-red-500", "Backend offline"
			}
		}
		if h.Detail != "" {
			label += ": " + h.Detail
		}
		w.Raw(`<span id="backend-health" class="flex items-center gap-1 text-xs text-slate-500"`)
		w.Attr("data-state", state)
		w.Attr("title", label)
		w.Raw("><span")
		w.Attr("class", utils.TwMerge("inline-block h-2 w-2 rounded-full", color))
		w.Raw("></span>backend</span>")
	})
}

// Flashes renders one banner per flash message.
func Flashes(flashes []models.Flash) templ.Component {
	return utils.Component(func(w *utils.Writer) {
		if len(flashes) == 0 {
			return
		}
		w.Raw(`<div id="flashes" class="space-y-2">`)
		for i, f := range flashes {
			w.Render(banner.Banner(banner.BannerProps{
				ID:          "flash-" + strings.ToLower(f.Kind) + "-" + strconv.Itoa(i),
				Type:        banner.BannerType(f.Kind),
				Message:     f.Message,
				Dismissable: true,
			}))
		}
		w.Raw("</div>")
	})
}
