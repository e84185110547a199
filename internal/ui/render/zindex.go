package render

// Layers of the screen, bottom to top.
const (
	ZBase           = 0
	ZHeader         = 10
	ZComposer       = 20
	ZStatus         = 30
	ZExpandedStatus = 40
	ZDialogs        = 50
)
