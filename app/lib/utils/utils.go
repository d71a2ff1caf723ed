// Package utils holds the helpers shared by the UI components: class merging
// and an escaping HTML writer used by the hand-written templ components.
package utils

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Oudwins/tailwind-merge-go/pkg/twmerge"
	"github.com/a-h/templ"
)

// TwMerge joins class lists, letting later Tailwind utilities win over
// conflicting earlier ones.
func TwMerge(classes ...string) string {
	return twmerge.Merge(classes...)
}

// If returns value when condition holds, otherwise the empty string.
func If[T comparable](condition bool, value T) T {
	var empty T
	if condition {
		return value
	}
	return empty
}

// Writer writes HTML, remembering the first error so components can write
// straight through and check once at the end.
type Writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (w *Writer) Raw(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

// Rawf formats into the output. Arguments are not escaped.
func (w *Writer) Rawf(format string, args ...any) {
	w.Raw(fmt.Sprintf(format, args...))
}

// Text writes s HTML-escaped.
func (w *Writer) Text(s string) {
	w.Raw(templ.EscapeString(s))
}

// Attr writes ` name="value"` with the value escaped. Empty values are skipped.
func (w *Writer) Attr(name, value string) {
	if value == "" {
		return
	}
	w.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// Attrs writes extra attributes the way templ spreads them: sorted, with true
// booleans bare and false ones omitted.
func (w *Writer) Attrs(attrs templ.Attributes) {
	if w.err != nil || len(attrs) == 0 {
		return
	}
	w.err = templ.RenderAttributes(w.ctx, w.w, attrs)
}

// Render writes a child component.
func (w *Writer) Render(c templ.Component) {
	if w.err != nil || c == nil {
		return
	}
	w.err = c.Render(w.ctx, w.w)
}

// Component adapts a writer callback to templ.Component.
func Component(fn func(w *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &Writer{ctx: ctx, w: out}
		fn(w)
		return w.err
	})
}

// Fragment renders components one after another.
func Fragment(children ...templ.Component) templ.Component {
	return Component(func(w *Writer) {
		for _, c := range children {
			w.Render(c)
		}
	})
}

// Text returns a component that writes escaped text.
func Text(s string) templ.Component {
	return Component(func(w *Writer) { w.Text(s) })
}

// RenderString renders c to a string. Tests and fragment handlers use it.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
