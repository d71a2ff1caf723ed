package newick

import (
	"fmt"
	"html"
	"strings"
)

type SVGOptions struct {
	Width      int
	RowHeight  int
	Margin     int
	LabelSpace int
	FontSize   int
	Stroke     string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:      720,
		RowHeight:  22,
		Margin:     16,
		LabelSpace: 160,
		FontSize:   12,
		Stroke:     "#334155",
	}
}

type point struct{ x, y float64 }

// RenderSVG draws a rectangular tree. Branch lengths are used for the x axis
// when every non-root node has one; otherwise nodes are placed by depth.
func RenderSVG(root *Node, opts SVGOptions) string {
	def := DefaultSVGOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.RowHeight <= 0 {
		opts.RowHeight = def.RowHeight
	}
	if opts.Margin < 0 {
		opts.Margin = def.Margin
	}
	if opts.LabelSpace <= 0 {
		opts.LabelSpace = def.LabelSpace
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.Stroke == "" {
		opts.Stroke = def.Stroke
	}

	useLengths := true
	root.Walk(func(n *Node, depth int) {
		if depth > 0 && !n.HasLength {
			useLengths = false
		}
	})

	raw := make(map[*Node]float64)
	var maxX float64
	var place func(n *Node, x float64)
	place = func(n *Node, x float64) {
		raw[n] = x
		maxX = max(maxX, x)
		for _, c := range n.Children {
			step := 1.0
			if useLengths {
				step = c.Length
			}
			place(c, x+step)
		}
	}
	place(root, 0)
	if maxX == 0 {
		maxX = 1
	}

	leaves := root.Leaves()
	height := len(leaves)*opts.RowHeight + 2*opts.Margin
	plotWidth := float64(opts.Width - 2*opts.Margin - opts.LabelSpace)
	if plotWidth < 1 {
		plotWidth = 1
	}

	pos := make(map[*Node]point, len(raw))
	for i, leaf := range leaves {
		pos[leaf] = point{y: float64(opts.Margin + i*opts.RowHeight + opts.RowHeight/2)}
	}
	var layout func(n *Node) float64
	layout = func(n *Node) float64 {
		p := pos[n]
		if !n.IsLeaf() {
			first := layout(n.Children[0])
			last := first
			for _, c := range n.Children[1:] {
				last = layout(c)
			}
			p.y = (first + last) / 2
		}
		p.x = float64(opts.Margin) + raw[n]/maxX*plotWidth
		pos[n] = p
		return p.y
	}
	layout(root)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="phylo-tree" width="%d" height="%d" viewBox="0 0 %d %d">`,
		opts.Width, height, opts.Width, height)
	fmt.Fprintf(&b, `<g stroke="%s" stroke-width="1.5" fill="none">`, html.EscapeString(opts.Stroke))
	root.Walk(func(n *Node, _ int) {
		if n.IsLeaf() {
			return
		}
		p := pos[n]
		top, bottom := pos[n.Children[0]].y, pos[n.Children[len(n.Children)-1]].y
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`, p.x, top, p.x, bottom)
		for _, c := range n.Children {
			cp := pos[c]
			fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`, p.x, cp.y, cp.x, cp.y)
		}
	})
	b.WriteString(`</g>`)

	fmt.Fprintf(&b, `<g font-family="sans-serif" font-size="%d" fill="#0f172a">`, opts.FontSize)
	for _, leaf := range leaves {
		p := pos[leaf]
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" dominant-baseline="middle">%s</text>`,
			p.x+4, p.y, html.EscapeString(leaf.Name))
	}
	b.WriteString(`</g></svg>`)
	return b.String()
}
