package dom

import (
	"errors"
	"fmt"
	"slices"

	"github.com/idursun/threadview/internal/vtree"
)

// ErrStalePath is returned when an op addresses a node that does not exist in
// the live tree, which means the tree and the previous render diverged.
var ErrStalePath = errors.New("patch path does not resolve")

// Patch applies ops to the tree rooted at root and returns the new root.
// Removed subtrees have their custom node instances destroyed bottom-up
// before they are dropped. Ops are checked before any of them is applied, so
// on error the tree is returned untouched.
func Patch(root *Node, ops []vtree.Op) (*Node, error) {
	if err := Check(root, ops); err != nil {
		return root, err
	}
	for _, op := range ops {
		var err error
		root, err = apply(root, op)
		if err != nil {
			return root, err
		}
	}
	return root, nil
}

func apply(root *Node, op vtree.Op) (*Node, error) {
	if op.Root {
		switch op.Kind {
		case vtree.OpInsert:
			if root != nil {
				destroyTree(root)
			}
			return Build(op.Node), nil
		case vtree.OpRemove:
			if root != nil {
				destroyTree(root)
			}
			return nil, nil
		}
		return root, fmt.Errorf("%w: %s", ErrStalePath, op)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: %s on empty tree", ErrStalePath, op)
	}

	target := root.At(op.Path)
	if target == nil {
		return root, fmt.Errorf("%w: %s", ErrStalePath, op)
	}

	switch op.Kind {
	case vtree.OpInsert:
		if op.Index < 0 || op.Index > len(target.children) {
			return root, fmt.Errorf("%w: %s", ErrStalePath, op)
		}
		child := Build(op.Node)
		target.insertChild(op.Index, child)
	case vtree.OpRemove:
		child := target.Child(op.Index)
		if child == nil {
			return root, fmt.Errorf("%w: %s", ErrStalePath, op)
		}
		destroyTree(child)
		target.removeChild(op.Index)
	case vtree.OpMove:
		child := target.Child(op.From)
		if child == nil || op.Index < 0 || op.Index >= len(target.children) {
			return root, fmt.Errorf("%w: %s", ErrStalePath, op)
		}
		target.removeChild(op.From)
		target.insertChild(op.Index, child)
	case vtree.OpUpdateAttrs:
		for _, c := range op.Attrs {
			if c.Removed {
				delete(target.attrs, c.Name)
				continue
			}
			if target.attrs == nil {
				target.attrs = make(map[string]string)
			}
			target.attrs[c.Name] = c.Value
		}
	case vtree.OpUpdateText:
		if !target.IsText() {
			return root, fmt.Errorf("%w: %s on <%s>", ErrStalePath, op, target.tag)
		}
		target.text = op.Text
	default:
		return root, fmt.Errorf("unknown op kind %s", op.Kind)
	}
	return root, nil
}

func (n *Node) insertChild(i int, child *Node) {
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	child.parent = n
}

func (n *Node) removeChild(i int) {
	child := n.children[i]
	copy(n.children[i:], n.children[i+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
	child.parent = nil
}

// shape mirrors the structure of a live or render subtree. Children are
// copied from the source on first access so checking touches only the nodes
// the ops address.
type shape struct {
	text     bool
	live     *Node
	render   *vtree.Node
	kids     []*shape
	expanded bool
}

func liveShape(n *Node) *shape { return &shape{text: n.IsText(), live: n} }

func renderShape(v *vtree.Node) *shape { return &shape{text: v.IsText(), render: v} }

func (s *shape) children() []*shape {
	if s.expanded {
		return s.kids
	}
	s.expanded = true
	switch {
	case s.live != nil:
		for _, c := range s.live.children {
			s.kids = append(s.kids, liveShape(c))
		}
	case s.render != nil:
		for _, c := range s.render.Children {
			s.kids = append(s.kids, renderShape(c))
		}
	}
	return s.kids
}

func (s *shape) at(path []int) *shape {
	cur := s
	for _, i := range path {
		kids := cur.children()
		if i < 0 || i >= len(kids) {
			return nil
		}
		cur = kids[i]
	}
	return cur
}

// Check reports the first op that would not resolve when ops are applied in
// order to the tree rooted at root. The tree is not modified.
func Check(root *Node, ops []vtree.Op) error {
	var cur *shape
	if root != nil {
		cur = liveShape(root)
	}
	for _, op := range ops {
		if op.Root {
			switch op.Kind {
			case vtree.OpInsert:
				if op.Node == nil {
					return fmt.Errorf("%w: %s without a node", ErrStalePath, op)
				}
				cur = renderShape(op.Node)
			case vtree.OpRemove:
				cur = nil
			default:
				return fmt.Errorf("%w: %s", ErrStalePath, op)
			}
			continue
		}
		if cur == nil {
			return fmt.Errorf("%w: %s on empty tree", ErrStalePath, op)
		}
		target := cur.at(op.Path)
		if target == nil {
			return fmt.Errorf("%w: %s", ErrStalePath, op)
		}
		kids := target.children()
		switch op.Kind {
		case vtree.OpInsert:
			if op.Index < 0 || op.Index > len(kids) || op.Node == nil {
				return fmt.Errorf("%w: %s", ErrStalePath, op)
			}
			target.kids = slices.Insert(kids, op.Index, renderShape(op.Node))
		case vtree.OpRemove:
			if op.Index < 0 || op.Index >= len(kids) {
				return fmt.Errorf("%w: %s", ErrStalePath, op)
			}
			target.kids = slices.Delete(kids, op.Index, op.Index+1)
		case vtree.OpMove:
			if op.From < 0 || op.From >= len(kids) || op.Index < 0 || op.Index >= len(kids) {
				return fmt.Errorf("%w: %s", ErrStalePath, op)
			}
			moved := kids[op.From]
			kids = slices.Delete(kids, op.From, op.From+1)
			target.kids = slices.Insert(kids, op.Index, moved)
		case vtree.OpUpdateAttrs:
		case vtree.OpUpdateText:
			if !target.text {
				return fmt.Errorf("%w: %s on element", ErrStalePath, op)
			}
		default:
			return fmt.Errorf("unknown op kind %s", op.Kind)
		}
	}
	return nil
}
