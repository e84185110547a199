package common

// Focusable is implemented by panes that take keyboard input while open
// (the jump-to-post prompt, the composer).
type Focusable interface {
	IsFocused() bool
}
