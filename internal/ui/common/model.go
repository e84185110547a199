package common

import (
	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/idursun/threadview/internal/ui/render"
)

// ImmediateModel paints itself into a display context on every frame.
type ImmediateModel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	ViewRect(dc *render.DisplayContext, rect uv.Rectangle)
}
