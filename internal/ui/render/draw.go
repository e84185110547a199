package render

import uv "github.com/charmbracelet/ultraviolet"

// Draw puts an ANSI string into a rectangle. Draws render before effects of
// the same Z.
type Draw struct {
	Rect    uv.Rectangle
	Content string
	Z       int
}
