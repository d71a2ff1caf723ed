// Package chart renders the small SVG charts used by classifier results.
package chart

import (
	"errors"
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
)

var (
	ErrNoData        = errors.New("chart has no positive values")
	ErrNegativeValue = errors.New("chart values must not be negative")
)

type Slice struct {
	Label string
	Value float64
}

type PieOptions struct {
	Size      int
	MaxSlices int
	OtherName string
}

var palette = []string{
	"#2563eb", "#16a34a", "#f59e0b", "#dc2626", "#7c3aed",
	"#0891b2", "#db2777", "#65a30d", "#ea580c", "#475569",
}

// SlicesFromMap orders map entries by descending value, then label.
func SlicesFromMap(m map[string]float64) []Slice {
	out := make([]Slice, 0, len(m))
	for k, v := range m {
		out = append(out, Slice{Label: k, Value: v})
	}
	sortSlices(out)
	return out
}

func sortSlices(s []Slice) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Value != s[j].Value {
			return s[i].Value > s[j].Value
		}
		return s[i].Label < s[j].Label
	})
}

// PieSVG draws a pie with a legend. Zero values are dropped and anything past
// MaxSlices is folded into a single "Other" slice.
func PieSVG(slices []Slice, opts PieOptions) (string, error) {
	if opts.Size <= 0 {
		opts.Size = 240
	}
	if opts.MaxSlices <= 0 {
		opts.MaxSlices = 8
	}
	if opts.OtherName == "" {
		opts.OtherName = "Other"
	}

	var kept []Slice
	var total float64
	for _, s := range slices {
		if s.Value < 0 || math.IsNaN(s.Value) {
			return "", fmt.Errorf("%w: %q", ErrNegativeValue, s.Label)
		}
		if s.Value == 0 {
			continue
		}
		kept = append(kept, s)
		total += s.Value
	}
	if total == 0 {
		return "", ErrNoData
	}
	sortSlices(kept)
	if len(kept) > opts.MaxSlices {
		other := Slice{Label: opts.OtherName}
		for _, s := range kept[opts.MaxSlices-1:] {
			other.Value += s.Value
		}
		kept = append(kept[:opts.MaxSlices-1:opts.MaxSlices-1], other)
	}

	r := float64(opts.Size) / 2
	legendX := opts.Size + 16
	rowH := 20
	height := max(opts.Size, len(kept)*rowH+8)
	width := legendX + 220

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="pie-chart" width="%d" height="%d" viewBox="0 0 %d %d">`,
		width, height, width, height)

	if len(kept) == 1 {
		fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"><title>%s</title></circle>`,
			r, r, r, palette[0], html.EscapeString(kept[0].Label))
	} else {
		angle := -math.Pi / 2
		for i, s := range kept {
			sweep := s.Value / total * 2 * math.Pi
			x1, y1 := r+r*math.Cos(angle), r+r*math.Sin(angle)
			x2, y2 := r+r*math.Cos(angle+sweep), r+r*math.Sin(angle+sweep)
			large := 0
			if sweep > math.Pi {
				large = 1
			}
			fmt.Fprintf(&b, `<path d="M%.2f,%.2f L%.2f,%.2f A%.2f,%.2f 0 %d 1 %.2f,%.2f Z" fill="%s"><title>%s</title></path>`,
				r, r, x1, y1, r, r, large, x2, y2, palette[i%len(palette)], html.EscapeString(s.Label))
			angle += sweep
		}
	}

	b.WriteString(`<g font-family="sans-serif" font-size="12" fill="#0f172a">`)
	for i, s := range kept {
		y := 8 + i*rowH
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="12" height="12" fill="%s"/>`, legendX, y, palette[i%len(palette)])
		fmt.Fprintf(&b, `<text x="%d" y="%d" class="legend">%s (%.1f%%)</text>`,
			legendX+18, y+10, html.EscapeString(s.Label), s.Value/total*100)
	}
	b.WriteString(`</g></svg>`)
	return b.String(), nil
}
