package render

import (
	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"
)

// InteractionType says which input a region responds to. Types combine with
// bitwise OR.
type InteractionType int

const (
	InteractionClick InteractionType = 1 << iota
	InteractionScroll
)

// InteractionOp is a region of the screen that turns input into a message.
type InteractionOp struct {
	Rect uv.Rectangle
	Msg  tea.Msg
	Type InteractionType
	Z    int
}

// ScrollDeltaCarrier is implemented by scroll messages that want the wheel
// delta filled in.
type ScrollDeltaCarrier interface {
	SetDelta(delta int) tea.Msg
}

// ClickPositionCarrier is implemented by click messages that want the
// position inside the region filled in.
type ClickPositionCarrier interface {
	SetPosition(x, y int) tea.Msg
}

const wheelDelta = 3

func processMouseEvent(interactions []interactionOp, msg tea.MouseMsg) (tea.Msg, bool) {
	mouse := msg.Mouse()
	at := uv.Rect(mouse.X, mouse.Y, 1, 1)
	hit := func(op interactionOp, typ InteractionType) bool {
		return op.Type&typ != 0 && at.In(op.Rect)
	}

	switch msg.(type) {
	case tea.MouseClickMsg:
		if mouse.Button != tea.MouseLeft {
			return nil, false
		}
		for _, op := range interactions {
			if !hit(op, InteractionClick) {
				continue
			}
			if carrier, ok := op.Msg.(ClickPositionCarrier); ok {
				return carrier.SetPosition(mouse.X-op.Rect.Min.X, mouse.Y-op.Rect.Min.Y), true
			}
			return op.Msg, true
		}
	case tea.MouseWheelMsg:
		var delta int
		switch mouse.Button {
		case tea.MouseWheelUp:
			delta = -wheelDelta
		case tea.MouseWheelDown:
			delta = wheelDelta
		default:
			return nil, false
		}
		for _, op := range interactions {
			if !hit(op, InteractionScroll) {
				continue
			}
			if carrier, ok := op.Msg.(ScrollDeltaCarrier); ok {
				return carrier.SetDelta(delta), true
			}
			return op.Msg, true
		}
	}
	return nil, false
}
