package mount

import (
	"github.com/idursun/threadview/internal/dirty"
	"github.com/idursun/threadview/internal/dom"
	"github.com/idursun/threadview/internal/vtree"
)

// Widget is a custom node. Render is called when the widget is created, when
// its key is dirty, and when the args it was rendered with change; otherwise
// the previous output is reused.
type Widget interface {
	Render() (*vtree.Node, error)
}

// WillRerenderer is notified before a reused widget renders with new args.
type WillRerenderer interface {
	WillRerender(args any)
}

// DidRenderer receives the DOM subtree the widget owns after every patch.
type DidRenderer interface {
	DidRender(root *dom.Node)
}

// WidgetContext is handed to a widget factory.
type WidgetContext struct {
	Key string
	App *App

	mount *Mount
}

// Invalidate marks the widget dirty and queues a rerender of its mount.
// Widgets without a key invalidate the whole mount.
func (c *WidgetContext) Invalidate() {
	if c.mount == nil {
		return
	}
	key := c.Key
	if key == "" {
		key = dirty.All
	}
	c.mount.EventDispatched("widget:invalidate", key)
}

// MarkDirty marks an arbitrary key of the owning mount dirty with opts.
func (c *WidgetContext) MarkDirty(key string, opts dirty.Options) {
	if c.mount == nil {
		return
	}
	c.mount.MarkDirty(key, opts)
}

// instance wraps a Widget with the bookkeeping the mount needs. It is what
// ends up in vtree.Node.Instance and dom.Node.Widget.
type instance struct {
	typ  string
	key  string
	w    Widget
	args any

	output    *vtree.Node
	destroyed bool
}

func (i *instance) Render() (*vtree.Node, error) {
	return i.w.Render()
}

// Destroy releases the widget exactly once.
func (i *instance) Destroy() {
	if i.destroyed {
		return
	}
	i.destroyed = true
	if d, ok := i.w.(dom.Destroyer); ok {
		d.Destroy()
	}
}

// Unwrap returns the widget created by the registered factory.
func (i *instance) Unwrap() Widget { return i.w }

// WidgetOf returns the widget a DOM node was rendered for, if any.
func WidgetOf(n *dom.Node) (Widget, bool) {
	if n == nil {
		return nil, false
	}
	inst, ok := n.Widget().(*instance)
	if !ok {
		return nil, false
	}
	return inst.w, true
}

func destroyAll(v *vtree.Node) {
	if v == nil {
		return
	}
	for _, c := range v.Children {
		destroyAll(c)
	}
	if inst, ok := v.Instance.(*instance); ok {
		inst.Destroy()
	}
}
