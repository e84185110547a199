package render

import (
	"sort"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
)

// DisplayContext collects the drawing operations of one frame. Regions
// (header, post stream, timeline, status) add their draws independently and
// the context flushes them by Z-index, then insertion order.
type DisplayContext struct {
	draws        []drawOp
	effects      []effectOp
	interactions []interactionOp
	orderCounter int
}

func NewDisplayContext() *DisplayContext {
	return &DisplayContext{
		draws:        make([]drawOp, 0, 64),
		effects:      make([]effectOp, 0, 8),
		interactions: make([]interactionOp, 0, 8),
	}
}

func (dc *DisplayContext) nextOrder() int {
	dc.orderCounter++
	return dc.orderCounter
}

// AddDraw draws content, an ANSI string, clipped to rect.
func (dc *DisplayContext) AddDraw(rect uv.Rectangle, content string, z int) {
	dc.draws = append(dc.draws, drawOp{
		Draw:  Draw{Rect: rect, Content: content, Z: z},
		order: dc.nextOrder(),
	})
}

// AddLines draws one line per row starting at (x, y). Lines past height are
// dropped.
func (dc *DisplayContext) AddLines(x, y, width, height int, lines []string, z int) {
	for i, line := range lines {
		if i >= height {
			return
		}
		dc.AddDraw(uv.Rect(x, y+i, width, 1), line, z)
	}
}

// AddFill fills rect with ch in style.
func (dc *DisplayContext) AddFill(rect uv.Rectangle, ch rune, style lipgloss.Style, z int) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return
	}
	dc.AddEffect(FillEffect{Rect: rect, Char: ch, Style: lipglossToStyle(style), Z: z})
}

func (dc *DisplayContext) AddEffect(effect Effect) {
	dc.effects = append(dc.effects, effectOp{
		effect: effect,
		order:  dc.nextOrder(),
		z:      effect.GetZ(),
	})
}

func (dc *DisplayContext) AddReverse(rect uv.Rectangle, z int) {
	dc.AddEffect(ReverseEffect{Rect: rect, Z: z})
}

func (dc *DisplayContext) AddDim(rect uv.Rectangle, z int) {
	dc.AddEffect(DimEffect{Rect: rect, Z: z})
}

func (dc *DisplayContext) AddBold(rect uv.Rectangle, z int) {
	dc.AddEffect(BoldEffect{Rect: rect, Z: z})
}

// AddHighlight sets the background of cells that have none.
func (dc *DisplayContext) AddHighlight(rect uv.Rectangle, style lipgloss.Style, z int) {
	dc.AddEffect(HighlightEffect{Rect: rect, Style: style, Z: z})
}

// AddPaint sets the background of every cell in rect.
func (dc *DisplayContext) AddPaint(rect uv.Rectangle, style lipgloss.Style, z int) {
	dc.AddEffect(HighlightEffect{Rect: rect, Style: style, Z: z, Force: true})
}

// AddInteraction registers msg to be sent when rect receives input of typ.
func (dc *DisplayContext) AddInteraction(rect uv.Rectangle, msg tea.Msg, typ InteractionType, z int) {
	dc.interactions = append(dc.interactions, interactionOp{
		InteractionOp: InteractionOp{Rect: rect, Msg: msg, Type: typ, Z: z},
		order:         dc.nextOrder(),
	})
}

// Clear drops every operation so the context can be reused for the next
// frame.
func (dc *DisplayContext) Clear() {
	dc.draws = dc.draws[:0]
	dc.effects = dc.effects[:0]
	dc.interactions = dc.interactions[:0]
	dc.orderCounter = 0
}

// Render executes draws and effects in (Z, insertion) order.
func (dc *DisplayContext) Render(buf uv.Screen) {
	if len(dc.draws) == 0 && len(dc.effects) == 0 {
		return
	}

	ops := make([]renderOp, 0, len(dc.draws)+len(dc.effects))
	for _, op := range dc.draws {
		ops = append(ops, renderOp{z: op.Z, order: op.order, draw: op.Draw, isDraw: true})
	}
	for _, op := range dc.effects {
		ops = append(ops, renderOp{z: op.z, order: op.order, effect: op.effect})
	}

	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].z != ops[j].z {
			return ops[i].z < ops[j].z
		}
		return ops[i].order < ops[j].order
	})

	for _, op := range ops {
		if op.isDraw {
			uv.NewStyledString(op.draw.Content).Draw(buf, op.draw.Rect)
			continue
		}
		op.effect.Apply(buf)
	}
}

// RenderToString renders into a new width×height buffer.
func (dc *DisplayContext) RenderToString(width, height int) string {
	buf := uv.NewScreenBuffer(width, height)
	dc.Render(buf)
	return buf.Render()
}

// DrawList returns a copy of the draws, for inspection.
func (dc *DisplayContext) DrawList() []Draw {
	result := make([]Draw, len(dc.draws))
	for i, op := range dc.draws {
		result[i] = op.Draw
	}
	return result
}

// InteractionsList returns the interactions highest Z first.
func (dc *DisplayContext) InteractionsList() []InteractionOp {
	sorted := dc.sortedInteractions()
	result := make([]InteractionOp, len(sorted))
	for i, op := range sorted {
		result[i] = op.InteractionOp
	}
	return result
}

func (dc *DisplayContext) Len() int {
	return len(dc.draws) + len(dc.effects) + len(dc.interactions)
}

// ProcessMouseEvent routes a click or wheel event to the topmost interaction
// under the pointer.
func (dc *DisplayContext) ProcessMouseEvent(msg tea.MouseMsg) (tea.Msg, bool) {
	switch msg.(type) {
	case tea.MouseClickMsg, tea.MouseWheelMsg:
	default:
		return nil, false
	}
	return processMouseEvent(dc.sortedInteractions(), msg)
}

func (dc *DisplayContext) sortedInteractions() []interactionOp {
	sorted := make([]interactionOp, len(dc.interactions))
	copy(sorted, dc.interactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Z != sorted[j].Z {
			return sorted[i].Z > sorted[j].Z
		}
		return sorted[i].order < sorted[j].order
	})
	return sorted
}

type drawOp struct {
	Draw
	order int
}

type effectOp struct {
	effect Effect
	order  int
	z      int
}

type interactionOp struct {
	InteractionOp
	order int
}

type renderOp struct {
	z      int
	order  int
	draw   Draw
	effect Effect
	isDraw bool
}
