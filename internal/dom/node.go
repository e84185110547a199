// Package dom holds the live node tree a mount renders into. Structural
// mutation is only possible through Patch; painters and the viewport tracker
// read it.
package dom

import (
	"sort"

	"github.com/idursun/threadview/internal/vtree"
)

// Destroyer is implemented by custom node instances that hold resources
// (timers, subscriptions) which must be released with their DOM.
type Destroyer interface {
	Destroy()
}

type Node struct {
	tag      string
	text     string
	key      string
	attrs    map[string]string
	children []*Node
	parent   *Node
	widget   vtree.Instance

	destroyed bool

	top, height int
	measured    bool
}

// Build materializes a render tree into detached live nodes.
func Build(v *vtree.Node) *Node {
	n := &Node{
		tag:    v.Tag,
		text:   v.Text,
		key:    v.Key,
		widget: v.Instance,
	}
	if len(v.Attrs) > 0 {
		n.attrs = make(map[string]string, len(v.Attrs))
		for k, val := range v.Attrs {
			n.attrs[k] = val
		}
	}
	if len(v.Children) > 0 {
		n.children = make([]*Node, len(v.Children))
		for i, c := range v.Children {
			child := Build(c)
			child.parent = n
			n.children[i] = child
		}
	}
	return n
}

func (n *Node) Tag() string  { return n.tag }
func (n *Node) Text() string { return n.text }
func (n *Node) Key() string  { return n.key }
func (n *Node) IsText() bool { return n.tag == vtree.TextTag }

// Parent is nil for a root or a node that has been removed.
func (n *Node) Parent() *Node { return n.parent }

// Widget returns the custom node instance this node is the root of.
func (n *Node) Widget() vtree.Instance { return n.widget }

// Destroyed reports whether the node was removed by a patch or teardown.
func (n *Node) Destroyed() bool { return n.destroyed }

func (n *Node) Attr(name string) string { return n.attrs[name] }

func (n *Node) HasAttr(name string) bool {
	_, ok := n.attrs[name]
	return ok
}

// AttrNames returns attribute names in sorted order.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Children returns the live child slice. Callers must not modify it.
func (n *Node) Children() []*Node { return n.children }

func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// SetBox records the layout result for n. Layout is not a structural change.
func (n *Node) SetBox(top, height int) {
	n.top, n.height, n.measured = top, height, true
}

// Box returns the last layout result; ok is false if n was never laid out.
func (n *Node) Box() (top, height int, ok bool) {
	return n.top, n.height, n.measured
}

// Path returns the child-index path from the root to n.
func Path(n *Node) []int {
	var rev []int
	for cur := n; cur.parent != nil; cur = cur.parent {
		idx := -1
		for i, c := range cur.parent.children {
			if c == cur {
				idx = i
				break
			}
		}
		rev = append(rev, idx)
	}
	path := make([]int, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = v
	}
	return path
}

// At resolves a child-index path from n.
func (n *Node) At(path []int) *Node {
	cur := n
	for _, i := range path {
		if cur == nil {
			return nil
		}
		cur = cur.Child(i)
	}
	return cur
}

// Walk visits n and its descendants in document order until fn returns false.
func Walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// FindKey returns the first descendant of n (or n) with the given key.
func FindKey(n *Node, key string) *Node {
	var found *Node
	Walk(n, func(c *Node) bool {
		if c.key == key {
			found = c
			return false
		}
		return true
	})
	return found
}

// TextContent concatenates all text below n.
func TextContent(n *Node) string {
	var out []byte
	Walk(n, func(c *Node) bool {
		if c.IsText() {
			out = append(out, c.text...)
		}
		return true
	})
	return string(out)
}

// Release destroys every custom node instance below root, bottom-up. It is
// used when a mount is torn down; releasing twice is a no-op.
func Release(root *Node) {
	if root == nil {
		return
	}
	destroyTree(root)
}

func destroyTree(n *Node) {
	for _, c := range n.children {
		destroyTree(c)
	}
	if n.destroyed {
		return
	}
	n.destroyed = true
	if d, ok := n.widget.(Destroyer); ok {
		d.Destroy()
	}
}
