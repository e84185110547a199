package render

import (
	"image/color"

	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
)

// Effect rewrites cells that were already drawn: the current post marker,
// the search match and the cloaked placeholders use them.
type Effect interface {
	Apply(buf uv.Screen)
	GetZ() int
	GetRect() uv.Rectangle
}

// ReverseEffect reverses foreground and background colors.
type ReverseEffect struct {
	Rect uv.Rectangle
	Z    int
}

func (e ReverseEffect) Apply(buf uv.Screen) {
	iterateCells(buf, e.Rect, func(cell *uv.Cell) *uv.Cell {
		if cell == nil {
			return nil
		}
		newCell := cell.Clone()
		newCell.Style.Attrs |= uv.AttrReverse
		return newCell
	})
}

func (e ReverseEffect) GetZ() int                 { return e.Z }
func (e ReverseEffect) GetRect() uv.Rectangle { return e.Rect }

// DimEffect dims the content by setting the Faint attribute.
type DimEffect struct {
	Rect uv.Rectangle
	Z    int
}

func (e DimEffect) Apply(buf uv.Screen) {
	iterateCells(buf, e.Rect, func(cell *uv.Cell) *uv.Cell {
		if cell == nil {
			return nil
		}
		newCell := cell.Clone()
		newCell.Style.Attrs |= uv.AttrFaint
		return newCell
	})
}

func (e DimEffect) GetZ() int                 { return e.Z }
func (e DimEffect) GetRect() uv.Rectangle { return e.Rect }

// BoldEffect makes content bold.
type BoldEffect struct {
	Rect uv.Rectangle
	Z    int
}

func (e BoldEffect) Apply(buf uv.Screen) {
	iterateCells(buf, e.Rect, func(cell *uv.Cell) *uv.Cell {
		if cell == nil {
			return nil
		}
		newCell := cell.Clone()
		newCell.Style.Attrs |= uv.AttrBold
		return newCell
	})
}

func (e BoldEffect) GetZ() int                 { return e.Z }
func (e BoldEffect) GetRect() uv.Rectangle { return e.Rect }

// HighlightEffect sets the background of cells to the background of Style.
// Cells that already have one are left alone unless Force is set.
type HighlightEffect struct {
	Rect  uv.Rectangle
	Style lipgloss.Style
	Z     int
	Force bool
}

func (e HighlightEffect) Apply(buf uv.Screen) {
	bgColor := toAnsiColor(e.Style.GetBackground())

	iterateCells(buf, e.Rect, func(cell *uv.Cell) *uv.Cell {
		if cell == nil {
			return nil
		}
		if e.Force || cell.Style.Bg == nil {
			newCell := cell.Clone()
			newCell.Style.Bg = bgColor
			return newCell
		}
		return cell
	})
}

func (e HighlightEffect) GetZ() int                 { return e.Z }
func (e HighlightEffect) GetRect() uv.Rectangle { return e.Rect }

type FillEffect struct {
	Rect  uv.Rectangle
	Char  rune
	Style uv.Style
	Z     int
}

func (e FillEffect) Apply(buf uv.Screen) {
	cell := &uv.Cell{
		Content: string(e.Char),
		Width:   1,
		Style:   e.Style,
	}
	bounds := buf.Bounds().Intersect(e.Rect)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			buf.SetCell(x, y, cell)
		}
	}
}

func (e FillEffect) GetZ() int                 { return e.Z }
func (e FillEffect) GetRect() uv.Rectangle { return e.Rect }

// toAnsiColor keeps palette colours as palette colours instead of letting
// them degrade to 24-bit RGB.
func toAnsiColor(c color.Color) ansi.Color {
	switch c := c.(type) {
	case ansi.BasicColor:
		return c
	case ansi.IndexedColor: // = lipgloss.ANSIColor
		return c
	default:
		if ac, ok := c.(ansi.Color); ok {
			return ac
		}
		return nil
	}
}

func lipglossToStyle(ls lipgloss.Style) uv.Style {
	var cs uv.Style
	if _, isNoColor := ls.GetForeground().(lipgloss.NoColor); !isNoColor {
		cs.Fg = toAnsiColor(ls.GetForeground())
	}
	if _, isNoColor := ls.GetBackground().(lipgloss.NoColor); !isNoColor {
		cs.Bg = toAnsiColor(ls.GetBackground())
	}
	if ls.GetBold() {
		cs.Attrs |= uv.AttrBold
	}
	if ls.GetFaint() {
		cs.Attrs |= uv.AttrFaint
	}
	if ls.GetItalic() {
		cs.Attrs |= uv.AttrItalic
	}
	if ls.GetUnderline() {
		cs.Underline = uv.UnderlineSingle
	}
	if ls.GetReverse() {
		cs.Attrs |= uv.AttrReverse
	}
	return cs
}

// iterateCells rewrites the cells of rect, clipped to the buffer, with
// transform.
func iterateCells(buf uv.Screen, rect uv.Rectangle, transform func(*uv.Cell) *uv.Cell) {
	rect = rect.Intersect(buf.Bounds())

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; {
			cell := buf.CellAt(x, y)
			if cell == nil {
				x++
				continue
			}

			// continuation cell of a wide grapheme
			if cell.Width == 0 {
				x++
				continue
			}

			newCell := transform(cell)
			if newCell != nil {
				buf.SetCell(x, y, newCell)
			}

			if cell.Width > 1 {
				x += cell.Width
			} else {
				x++
			}
		}
	}
}
