package render

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/rivo/uniseg"
)

// TextBuilder lays out styled segments on one row, left to right.
type TextBuilder struct {
	dc       *DisplayContext
	segments []textSegment
	x        int
	y        int
	z        int
	maxX     int
}

type textSegment struct {
	text    string
	style   lipgloss.Style
	onClick tea.Msg
}

// Text starts a row at (x, y).
func (dc *DisplayContext) Text(x, y, z int) *TextBuilder {
	return &TextBuilder{dc: dc, x: x, y: y, z: z, maxX: -1}
}

// Clip stops drawing at column maxX.
func (tb *TextBuilder) Clip(maxX int) *TextBuilder {
	tb.maxX = maxX
	return tb
}

func (tb *TextBuilder) Write(text string) *TextBuilder {
	tb.segments = append(tb.segments, textSegment{text: text})
	return tb
}

func (tb *TextBuilder) Styled(text string, style lipgloss.Style) *TextBuilder {
	tb.segments = append(tb.segments, textSegment{text: text, style: style})
	return tb
}

func (tb *TextBuilder) Clickable(text string, style lipgloss.Style, onClick tea.Msg) *TextBuilder {
	tb.segments = append(tb.segments, textSegment{text: text, style: style, onClick: onClick})
	return tb
}

// Done emits the draws and returns the column after the last segment.
func (tb *TextBuilder) Done() int {
	x := tb.x
	for _, seg := range tb.segments {
		width := uniseg.StringWidth(seg.text)
		if width == 0 {
			continue
		}
		if tb.maxX >= 0 && x+width > tb.maxX {
			width = tb.maxX - x
			if width <= 0 {
				break
			}
		}

		rect := uv.Rect(x, tb.y, width, 1)
		tb.dc.AddDraw(rect, seg.style.Render(seg.text), tb.z)
		if seg.onClick != nil {
			tb.dc.AddInteraction(rect, seg.onClick, InteractionClick, tb.z)
		}
		x += width
	}
	return x
}
