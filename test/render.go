package test

import (
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/idursun/threadview/internal/ui/render"
)

// RenderImmediate renders an immediate model into a fixed-size buffer.
func RenderImmediate(model interface {
	ViewRect(dl *render.DisplayContext, rect uv.Rectangle)
}, width, height int) string {
	return RenderRect(model, width, height, uv.Rect(0, 0, width, height))
}

// RenderRect renders model into rect of a width x height buffer.
func RenderRect(model interface {
	ViewRect(dl *render.DisplayContext, rect uv.Rectangle)
}, width, height int, rect uv.Rectangle) string {
	dl := render.NewDisplayContext()
	model.ViewRect(dl, rect)
	buf := uv.NewScreenBuffer(width, height)
	dl.Render(buf)
	return buf.Render()
}
