package mount

import (
	"fmt"
	"reflect"

	"github.com/idursun/threadview/internal/dirty"
	"github.com/idursun/threadview/internal/vtree"
)

// expansion replaces widget nodes of a freshly built tree with their
// instances and rendered output. Matching follows vtree.Match so a widget the
// differ will update in place is exactly the one whose instance is reused.
type expansion struct {
	mount   *Mount
	snap    dirty.Snapshot
	created []*instance
}

// abandon destroys the instances created by a pass that did not make it to
// the DOM.
func (x *expansion) abandon() {
	for _, inst := range x.created {
		inst.Destroy()
	}
	x.created = nil
}

func (x *expansion) expand(old, nw *vtree.Node) (*vtree.Node, error) {
	if nw.IsWidget() {
		return x.expandWidget(old, nw)
	}
	if nw.IsText() || len(nw.Children) == 0 {
		return nw, nil
	}

	var oldChildren []*vtree.Node
	if old != nil && vtree.Compatible(old, nw) {
		oldChildren = old.Children
	}
	match := vtree.Match(oldChildren, nw.Children)

	var children []*vtree.Node
	for i, c := range nw.Children {
		var o *vtree.Node
		if match[i] >= 0 {
			o = oldChildren[match[i]]
		}
		ec, err := x.expand(o, c)
		if err != nil {
			return nil, err
		}
		if ec != c && children == nil {
			children = make([]*vtree.Node, len(nw.Children))
			copy(children, nw.Children[:i])
		}
		if children != nil {
			children[i] = ec
		}
	}
	if children == nil {
		return nw, nil
	}
	cp := *nw
	cp.Children = children
	return &cp, nil
}

func (x *expansion) expandWidget(old, nw *vtree.Node) (*vtree.Node, error) {
	var inst *instance
	if old != nil && vtree.Compatible(old, nw) {
		if prev, ok := old.Instance.(*instance); ok && !prev.destroyed {
			inst = prev
		}
	}

	if inst == nil {
		created, err := x.create(nw)
		if err != nil {
			return nil, err
		}
		inst = created
	} else if x.stale(inst, nw) {
		if wr, ok := inst.w.(WillRerenderer); ok {
			wr.WillRerender(nw.WidgetArgs)
		}
		inst.output = nil
	}
	inst.args = nw.WidgetArgs

	if inst.output == nil {
		out, err := inst.w.Render()
		if err != nil {
			return nil, fmt.Errorf("render widget %s %q: %w", inst.typ, inst.key, err)
		}
		if out == nil {
			out = vtree.El("div", nil)
		}
		inst.output = out
	}

	var oldChild *vtree.Node
	if old != nil && old.Instance == vtree.Instance(inst) && len(old.Children) == 1 {
		oldChild = old.Children[0]
	}
	child, err := x.expand(oldChild, inst.output)
	if err != nil {
		return nil, err
	}

	cp := *nw
	cp.Instance = inst
	cp.Children = []*vtree.Node{child}
	return &cp, nil
}

func (x *expansion) create(nw *vtree.Node) (*instance, error) {
	f, ok := x.mount.app.widget(nw.Widget)
	if !ok {
		return nil, fmt.Errorf("%w for widget %q", ErrNoFactory, nw.Widget)
	}
	ctx := &WidgetContext{Key: nw.Key, App: x.mount.app, mount: x.mount}
	w, err := f(ctx, nw.WidgetArgs)
	if err != nil {
		return nil, fmt.Errorf("create widget %s %q: %w", nw.Widget, nw.Key, err)
	}
	inst := &instance{typ: nw.Widget, key: nw.Key, w: w}
	x.created = append(x.created, inst)
	return inst, nil
}

// stale reports whether a reused widget has to render again.
func (x *expansion) stale(inst *instance, nw *vtree.Node) bool {
	if nw.Key == "" || x.snap.IsDirty(nw.Key) {
		return true
	}
	return !reflect.DeepEqual(inst.args, nw.WidgetArgs)
}
