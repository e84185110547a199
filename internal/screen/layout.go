// Package screen lays a DOM tree out as terminal lines. Layout is a single
// top-down pass: blocks stack vertically, inline runs wrap to the available
// width, and every node gets its line box recorded for the viewport tracker.
package screen

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/idursun/threadview/internal/dom"
)

// Attributes understood by the layout.
const (
	AttrStyle        = "style"
	AttrHeight       = "height"
	AttrIndent       = "indent"
	AttrGutter       = "gutter"
	AttrMarginBottom = "margin-bottom"
)

// Styler resolves a style attribute to a lipgloss style.
type Styler interface {
	Get(selector string) lipgloss.Style
}

// Page is a laid out tree.
type Page struct {
	Width int
	Lines []string
}

func (p *Page) Height() int {
	if p == nil {
		return 0
	}
	return len(p.Lines)
}

// Window returns the lines [top, top+height), padded with empty lines past
// the end of the page.
func (p *Page) Window(top, height int) []string {
	out := make([]string, height)
	if p == nil {
		return out
	}
	for i := range out {
		if j := top + i; j >= 0 && j < len(p.Lines) {
			out[i] = p.Lines[j]
		}
	}
	return out
}

type layouter struct {
	styles Styler
	lines  []string
}

// Layout lays root out at width and records the box of every node.
func Layout(root *dom.Node, width int, styles Styler) *Page {
	l := &layouter{styles: styles}
	if root != nil {
		l.block(root, width, "", lipgloss.NewStyle())
	}
	return &Page{Width: width, Lines: l.lines}
}

func (l *layouter) emit(gutter string, line string) {
	l.lines = append(l.lines, gutter+line)
}

func (l *layouter) block(n *dom.Node, width int, gutter string, inherited lipgloss.Style) {
	top := len(l.lines)
	style := inherited
	if sel := n.Attr(AttrStyle); sel != "" && l.styles != nil {
		style = l.styles.Get(sel).Inherit(inherited)
	}
	if indent := atoi(n.Attr(AttrIndent)); indent > 0 {
		gutter += strings.Repeat(" ", indent)
	}
	if g := n.Attr(AttrGutter); g != "" {
		gutter += style.Render(g)
	}
	avail := width - ansi.StringWidth(gutter)
	if avail < 1 {
		avail = 1
	}

	switch {
	case n.IsText():
		l.paragraph([]*dom.Node{n}, avail, gutter, style)
	case n.Tag() == "hr":
		l.emit(gutter, style.Render(strings.Repeat("─", avail)))
	case n.Tag() == "pre":
		for _, line := range strings.Split(strings.TrimRight(dom.TextContent(n), "\n"), "\n") {
			l.emit(gutter, style.Render(ansi.Truncate(line, avail, "…")))
		}
	default:
		var run []*dom.Node
		for _, c := range n.Children() {
			if isInline(c) {
				run = append(run, c)
				continue
			}
			l.paragraph(run, avail, gutter, style)
			run = nil
			l.block(c, width, gutter, style)
		}
		l.paragraph(run, avail, gutter, style)
	}

	if h, ok := fixedHeight(n); ok {
		switch {
		case len(l.lines)-top > h:
			l.lines = l.lines[:top+h]
		default:
			for len(l.lines)-top < h {
				l.emit(gutter, "")
			}
		}
	}
	for i := atoi(n.Attr(AttrMarginBottom)); i > 0; i-- {
		l.emit("", "")
	}
	n.SetBox(top, len(l.lines)-top)
}

// paragraph wraps a run of inline nodes.
func (l *layouter) paragraph(run []*dom.Node, width int, gutter string, style lipgloss.Style) {
	if len(run) == 0 {
		return
	}
	top := len(l.lines)
	var segments []Segment
	for _, n := range run {
		segments = append(segments, l.inline(n, style)...)
	}
	for _, line := range BreakNewLines(segments) {
		for _, wrapped := range Wrap(line, width) {
			l.emit(gutter, Render(wrapped))
		}
	}
	for _, n := range run {
		setInlineBox(n, top, len(l.lines)-top)
	}
}

func (l *layouter) inline(n *dom.Node, inherited lipgloss.Style) []Segment {
	if n.IsText() {
		if n.Text() == "" {
			return nil
		}
		return []Segment{{Text: n.Text(), Style: inherited}}
	}
	style := inherited
	if sel := n.Attr(AttrStyle); sel != "" && l.styles != nil {
		style = l.styles.Get(sel).Inherit(inherited)
	}
	var out []Segment
	for _, c := range n.Children() {
		out = append(out, l.inline(c, style)...)
	}
	return out
}

func setInlineBox(n *dom.Node, top, height int) {
	n.SetBox(top, height)
	for _, c := range n.Children() {
		setInlineBox(c, top, height)
	}
}

func isInline(n *dom.Node) bool {
	return n.IsText() || n.Tag() == "span"
}

func fixedHeight(n *dom.Node) (int, bool) {
	if !n.HasAttr(AttrHeight) {
		return 0, false
	}
	h := atoi(n.Attr(AttrHeight))
	return h, h >= 0
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// NodeAt returns the deepest laid out node whose box contains line.
func NodeAt(root *dom.Node, line int) *dom.Node {
	var found *dom.Node
	var visit func(n *dom.Node)
	visit = func(n *dom.Node) {
		top, height, ok := n.Box()
		if !ok || line < top || line >= top+height {
			return
		}
		found = n
		for _, c := range n.Children() {
			visit(c)
		}
	}
	if root != nil {
		visit(root)
	}
	return found
}
