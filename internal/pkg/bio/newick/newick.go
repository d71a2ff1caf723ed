// Package newick parses Newick tree strings returned by the phylogeny tools.
package newick

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrSyntax = errors.New("newick syntax error")

type Node struct {
	Name      string
	Length    float64
	HasLength bool
	Children  []*Node
}

func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Leaves returns the leaf nodes in left-to-right order.
func (n *Node) Leaves() []*Node {
	if n.IsLeaf() {
		return []*Node{n}
	}
	var out []*Node
	for _, c := range n.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	var walk func(*Node, int)
	walk = func(node *Node, depth int) {
		fn(node, depth)
		for _, c := range node.Children {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
}

// String serializes the tree back to Newick, terminated with ';'.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	b.WriteByte(';')
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if !n.IsLeaf() {
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			c.write(b)
		}
		b.WriteByte(')')
	}
	b.WriteString(quoteName(n.Name))
	if n.HasLength {
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(n.Length, 'g', -1, 64))
	}
}

func quoteName(name string) string {
	if name == "" || !strings.ContainsAny(name, "()[]':;, \t") {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// Parse reads a single tree. Bracketed comments are ignored; unquoted
// underscores are kept as written.
func Parse(s string) (*Node, error) {
	p := &parser{src: s}
	p.skip()
	if p.eof() {
		return nil, fmt.Errorf("%w: empty tree", ErrSyntax)
	}

	root, err := p.subtree()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.eof() {
		return nil, fmt.Errorf("%w: missing terminating ';'", ErrSyntax)
	}
	if p.peek() != ';' {
		return nil, p.errorf("unexpected %q", p.peek())
	}
	p.pos++
	p.skip()
	if !p.eof() {
		return nil, p.errorf("trailing data after ';'")
	}
	return root, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

// skip consumes whitespace and [comments].
func (p *parser) skip() {
	for !p.eof() {
		switch ch := p.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			p.pos++
		case ch == '[':
			end := strings.IndexByte(p.src[p.pos:], ']')
			if end < 0 {
				p.pos = len(p.src)
				return
			}
			p.pos += end + 1
		default:
			return
		}
	}
}

func (p *parser) subtree() (*Node, error) {
	node := &Node{}
	p.skip()
	if !p.eof() && p.peek() == '(' {
		p.pos++
		for {
			child, err := p.subtree()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)

			p.skip()
			if p.eof() {
				return nil, fmt.Errorf("%w: unbalanced parentheses", ErrSyntax)
			}
			ch := p.peek()
			p.pos++
			if ch == ')' {
				break
			}
			if ch != ',' {
				return nil, p.errorf("expected ',' or ')', got %q", ch)
			}
		}
	}

	name, err := p.label()
	if err != nil {
		return nil, err
	}
	node.Name = name

	p.skip()
	if !p.eof() && p.peek() == ':' {
		p.pos++
		p.skip()
		start := p.pos
		for !p.eof() && strings.IndexByte("0123456789+-.eE", p.peek()) >= 0 {
			p.pos++
		}
		length, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			return nil, p.errorf("invalid branch length %q", p.src[start:p.pos])
		}
		node.Length = length
		node.HasLength = true
	}
	return node, nil
}

func (p *parser) label() (string, error) {
	p.skip()
	if p.eof() {
		return "", nil
	}
	if p.peek() == '\'' {
		p.pos++
		var b strings.Builder
		for {
			if p.eof() {
				return "", fmt.Errorf("%w: unterminated quoted label", ErrSyntax)
			}
			ch := p.peek()
			p.pos++
			if ch == '\'' {
				if !p.eof() && p.peek() == '\'' {
					b.WriteByte('\'')
					p.pos++
					continue
				}
				return b.String(), nil
			}
			b.WriteByte(ch)
		}
	}

	start := p.pos
	for !p.eof() && strings.IndexByte("()[]':;,", p.peek()) < 0 {
		p.pos++
	}
	return strings.TrimSpace(p.src[start:p.pos]), nil
}
