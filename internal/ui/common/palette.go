package common

import (
	"image/color"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/idursun/threadview/internal/config"
)

var DefaultPalette = NewPalette()

type node struct {
	style    lipgloss.Style
	children map[string]*node
}

// Palette resolves dotted style selectors ("post.author") to lipgloss
// styles. A selector inherits from its prefixes, so "post.current" picks up
// whatever "post" sets and it does not override.
type Palette struct {
	root  *node
	cache map[string]lipgloss.Style
}

func NewPalette() *Palette {
	return &Palette{
		cache: make(map[string]lipgloss.Style),
	}
}

func (p *Palette) add(key string, style lipgloss.Style) {
	if p.root == nil {
		p.root = &node{children: make(map[string]*node)}
	}
	current := p.root
	for _, field := range fields(key) {
		child, ok := current.children[field]
		if !ok {
			child = &node{children: make(map[string]*node)}
			current.children[field] = child
		}
		current = child
	}
	current.style = style
}

func (p *Palette) get(fields ...string) lipgloss.Style {
	if p.root == nil {
		return lipgloss.NewStyle()
	}
	current := p.root
	for _, field := range fields {
		child, ok := current.children[field]
		if !ok {
			return lipgloss.NewStyle()
		}
		current = child
	}
	return current.style
}

// Update adds the styles of a resolved theme.
func (p *Palette) Update(styleMap map[string]config.Color) {
	for key, color := range styleMap {
		p.add(key, createStyleFrom(color))
	}
	clear(p.cache)
}

// Get returns the style for selector, most specific prefix first.
func (p *Palette) Get(selector string) lipgloss.Style {
	if style, ok := p.cache[selector]; ok {
		return style
	}
	fs := fields(selector)
	finalStyle := lipgloss.NewStyle()
	for end := len(fs); end > 0; end-- {
		finalStyle = finalStyle.Inherit(p.get(fs[:end]...))
	}
	p.cache[selector] = finalStyle
	return finalStyle
}

func fields(selector string) []string {
	return strings.FieldsFunc(selector, func(r rune) bool {
		return r == '.' || r == ' '
	})
}

func createStyleFrom(color config.Color) lipgloss.Style {
	style := lipgloss.NewStyle()
	if color.Fg != "" {
		style = style.Foreground(parseColor(color.Fg))
	}
	if color.Bg != "" {
		style = style.Background(parseColor(color.Bg))
	}
	if color.Bold != nil {
		style = style.Bold(*color.Bold)
	}
	if color.Italic != nil {
		style = style.Italic(*color.Italic)
	}
	if color.Underline != nil {
		style = style.Underline(*color.Underline)
	}
	if color.Faint != nil {
		style = style.Faint(*color.Faint)
	}
	return style
}

var namedColors = map[string]string{
	"black":          "0",
	"red":            "1",
	"green":          "2",
	"yellow":         "3",
	"blue":           "4",
	"magenta":        "5",
	"cyan":           "6",
	"white":          "7",
	"bright black":   "8",
	"bright red":     "9",
	"bright green":   "10",
	"bright yellow":  "11",
	"bright blue":    "12",
	"bright magenta": "13",
	"bright cyan":    "14",
	"bright white":   "15",
}

func parseColor(c string) color.Color {
	if len(c) == 7 && c[0] == '#' {
		return lipgloss.Color(c)
	}
	if v, err := strconv.Atoi(c); err == nil {
		if v >= 0 && v <= 255 {
			return lipgloss.Color(c)
		}
	}
	if code, ok := namedColors[c]; ok {
		return lipgloss.Color(code)
	}
	if strings.HasPrefix(c, "ansi-color-") {
		code := strings.TrimPrefix(c, "ansi-color-")
		if v, err := strconv.Atoi(code); err == nil && v >= 0 && v <= 255 {
			return lipgloss.Color(code)
		}
	}
	return lipgloss.NoColor{}
}
