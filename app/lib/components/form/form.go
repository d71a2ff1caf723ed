// Package form renders labelled inputs in the workspace style.
package form

import (
	"github.com/a-h/templ"

	"github.com/helixlab/helixdash/app/lib/utils"
)

const (
	labelClass = "block text-sm font-medium text-slate-700"
	inputClass = "mt-1 block w-full rounded-md border border-slate-300 px-3 py-2 text-sm shadow-sm focus:border-emerald-500 focus:outline-none"
	helpClass  = "mt-1 text-xs text-slate-500"
)

type InputProps struct {
	ID           string
	Name         string
	Type         string
	Label        string
	Value        string
	Placeholder  string
	Help         string
	Required     bool
	Autocomplete string
	Class        string
	Attributes   templ.Attributes
}

func (p InputProps) id() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Name
}

func Input(p InputProps) templ.Component {
	if p.Type == "" {
		p.Type = "text"
	}
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<div class="field">`)
		label(w, p.id(), p.Label, p.Required)
		w.Raw("<input")
		w.Attr("id", p.id())
		w.Attr("name", p.Name)
		w.Attr("type", p.Type)
		w.Attr("value", p.Value)
		w.Attr("placeholder", p.Placeholder)
		w.Attr("autocomplete", p.Autocomplete)
		w.Attr("class", utils.TwMerge(inputClass, p.Class))
		if p.Required {
			w.Raw(" required")
		}
		w.Attrs(p.Attributes)
		w.Raw(">")
		help(w, p.Help)
		w.Raw("</div>")
	})
}

type TextareaProps struct {
	ID          string
	Name        string
	Label       string
	Value       string
	Placeholder string
	Help        string
	Rows        int
	Required    bool
	Class       string
}

func Textarea(p TextareaProps) templ.Component {
	if p.Rows == 0 {
		p.Rows = 8
	}
	id := p.ID
	if id == "" {
		id = p.Name
	}
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<div class="field">`)
		label(w, id, p.Label, p.Required)
		w.Raw("<textarea")
		w.Attr("id", id)
		w.Attr("name", p.Name)
		w.Rawf(` rows="%d"`, p.Rows)
		w.Attr("placeholder", p.Placeholder)
		w.Attr("class", utils.TwMerge(inputClass, "font-mono", p.Class))
		w.Raw(` spellcheck="false"`)
		if p.Required {
			w.Raw(" required")
		}
		w.Raw(">")
		w.Text(p.Value)
		w.Raw("</textarea>")
		help(w, p.Help)
		w.Raw("</div>")
	})
}

type SelectProps struct {
	ID       string
	Name     string
	Label    string
	Options  []string
	Selected string
	Help     string
	Required bool
	Multiple bool
}

func Select(p SelectProps) templ.Component {
	id := p.ID
	if id == "" {
		id = p.Name
	}
	return utils.Component(func(w *utils.Writer) {
		w.Raw(`<div class="field">`)
		label(w, id, p.Label, p.Required)
		w.Raw("<select")
		w.Attr("id", id)
		w.Attr("name", p.Name)
		w.Attr("class", inputClass)
		if p.Required {
			w.Raw(" required")
		}
		if p.Multiple {
			w.Raw(" multiple")
		}
		w.Raw(">")
		for _, opt := range p.Options {
			w.Raw("<option")
			w.Attr("value", opt)
			if opt == p.Selected {
				w.Raw(" selected")
			}
			w.Raw(">")
			w.Text(opt)
			w.Raw("</option>")
		}
		w.Raw("</select>")
		help(w, p.Help)
		w.Raw("</div>")
	})
}

func label(w *utils.Writer, id, text string, required bool) {
	if text == "" {
		return
	}
	w.Raw("<label")
	w.Attr("for", id)
	w.Attr("class", labelClass)
	w.Raw(">")
	w.Text(text)
	if required {
		w.Raw(` <span class="text-red-600" aria-hidden="true">*</span>`)
	}
	w.Raw("</label>")
}

func help(w *utils.Writer, text string) {
	if text == "" {
		return
	}
	w.Raw("<p")
	w.Attr("class", helpClass)
	w.Raw(">")
	w.Text(text)
	w.Raw("</p>")
}
