// Package vtree describes one render pass worth of UI as an immutable tree and
// computes the operations that turn one tree into the next.
package vtree

import (
	"errors"
	"fmt"
)

// TextTag is the tag of text nodes.
const TextTag = "#text"

var ErrDuplicateKey = errors.New("duplicate sibling key")

// Event is whatever the host passes to a handler (a key press, a click).
type Event any

type Handler func(Event)

// Instance is a live custom node. Instances are created by the mount that
// owns the tree and travel with the widget node they were rendered for.
type Instance interface {
	Render() (*Node, error)
}

type Attrs map[string]string

// Node is a description of a DOM subtree. Nodes must not be modified once a
// tree has been handed to a mount.
type Node struct {
	Key      string
	Tag      string
	Text     string
	Attrs    Attrs
	Events   map[string]Handler
	Children []*Node

	// Widget names a registered custom node type; WidgetArgs is passed to
	// its factory. Instance is filled in when the tree is expanded.
	Widget     string
	WidgetArgs any
	Instance   Instance
}

// El builds an element node.
func El(tag string, attrs Attrs, children ...*Node) *Node {
	return &Node{Tag: tag, Attrs: attrs, Children: compact(children)}
}

// Keyed builds an element node with an identity key.
func Keyed(key, tag string, attrs Attrs, children ...*Node) *Node {
	return &Node{Key: key, Tag: tag, Attrs: attrs, Children: compact(children)}
}

// Text builds a text node.
func Text(s string) *Node {
	return &Node{Tag: TextTag, Text: s}
}

// WidgetNode builds a custom node placeholder of the given registered type.
func WidgetNode(typ, key string, args any) *Node {
	return &Node{Tag: "widget", Key: key, Widget: typ, WidgetArgs: args}
}

// On returns a copy of n with an event handler bound. Use it while building.
func (n *Node) On(event string, h Handler) *Node {
	events := make(map[string]Handler, len(n.Events)+1)
	for k, v := range n.Events {
		events[k] = v
	}
	events[event] = h
	c := *n
	c.Events = events
	return &c
}

func (n *Node) IsText() bool { return n.Tag == TextTag }

func (n *Node) IsWidget() bool { return n.Widget != "" }

// Attr returns the attribute value or "".
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}

// At walks a child-index path from n. It returns nil when the path does not
// resolve.
func (n *Node) At(path []int) *Node {
	cur := n
	for _, i := range path {
		if cur == nil || i < 0 || i >= len(cur.Children) {
			return nil
		}
		cur = cur.Children[i]
	}
	return cur
}

// Validate checks that sibling keys are unique throughout the tree.
func Validate(n *Node) error {
	if n == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(n.Children))
	for _, c := range n.Children {
		if c.Key != "" {
			if _, ok := seen[c.Key]; ok {
				return fmt.Errorf("%w %q under <%s>", ErrDuplicateKey, c.Key, n.Tag)
			}
			seen[c.Key] = struct{}{}
		}
		if err := Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nodes in the tree.
func Count(n *Node) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += Count(c)
	}
	return total
}

func compact(children []*Node) []*Node {
	out := children[:0:0]
	for _, c := range children {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
