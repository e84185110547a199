package vtree

import (
	"fmt"
	"sort"
)

type OpKind int

const (
	OpInsert OpKind = iota
	OpRemove
	OpMove
	OpUpdateAttrs
	OpUpdateText
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpMove:
		return "move"
	case OpUpdateAttrs:
		return "update-attrs"
	case OpUpdateText:
		return "update-text"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// AttrChange is a single attribute assignment or removal.
type AttrChange struct {
	Name    string
	Value   string
	Removed bool
}

// Op is one patch operation. Path addresses the parent for Insert, Remove and
// Move, and the node itself for the update kinds. Paths are valid at the time
// the op is applied, i.e. after every preceding op of the same patch set.
type Op struct {
	Kind  OpKind
	Root  bool
	Path  []int
	Index int
	From  int
	Node  *Node
	Attrs []AttrChange
	Text  string
}

func (o Op) String() string {
	switch o.Kind {
	case OpMove:
		return fmt.Sprintf("%s %v[%d->%d]", o.Kind, o.Path, o.From, o.Index)
	case OpUpdateText:
		return fmt.Sprintf("%s %v %q", o.Kind, o.Path, o.Text)
	case OpUpdateAttrs:
		return fmt.Sprintf("%s %v %v", o.Kind, o.Path, o.Attrs)
	default:
		if o.Root {
			return fmt.Sprintf("%s root", o.Kind)
		}
		return fmt.Sprintf("%s %v[%d]", o.Kind, o.Path, o.Index)
	}
}

// Compatible reports whether b can update a in place. Nodes with a different
// tag, key or widget type are replaced instead.
func Compatible(a, b *Node) bool {
	return a.Tag == b.Tag && a.Key == b.Key && a.Widget == b.Widget
}

// Match pairs each new child with the index of the old child it updates, or
// -1 when the new child has to be inserted. Keyed children match by key,
// unkeyed children match the unkeyed old child at the same position.
func Match(old, nw []*Node) []int {
	res := make([]int, len(nw))
	used := make([]bool, len(old))
	keyed := make(map[string]int)
	for j, o := range old {
		if o.Key != "" {
			keyed[o.Key] = j
		}
	}
	for i, n := range nw {
		res[i] = -1
		if n.Key != "" {
			if j, ok := keyed[n.Key]; ok && !used[j] && Compatible(old[j], n) {
				res[i] = j
				used[j] = true
			}
			continue
		}
		if i < len(old) && !used[i] && old[i].Key == "" && Compatible(old[i], n) {
			res[i] = i
			used[i] = true
		}
	}
	return res
}

// Diff returns the operations that turn old into nw. Event handlers are not
// compared; they are looked up in the newest tree when an event fires.
func Diff(old, nw *Node) []Op {
	switch {
	case old == nil && nw == nil:
		return nil
	case old == nil:
		return []Op{{Kind: OpInsert, Root: true, Node: nw}}
	case nw == nil:
		return []Op{{Kind: OpRemove, Root: true, Node: old}}
	case !Compatible(old, nw):
		return []Op{
			{Kind: OpRemove, Root: true, Node: old},
			{Kind: OpInsert, Root: true, Node: nw},
		}
	}
	d := &differ{}
	d.node(nil, old, nw)
	return d.ops
}

type differ struct {
	ops []Op
}

func (d *differ) emit(op Op) {
	d.ops = append(d.ops, op)
}

func (d *differ) node(path []int, old, nw *Node) {
	if old.IsText() {
		if old.Text != nw.Text {
			d.emit(Op{Kind: OpUpdateText, Path: path, Node: nw, Text: nw.Text})
		}
		return
	}
	if changes := diffAttrs(old.Attrs, nw.Attrs); len(changes) > 0 {
		d.emit(Op{Kind: OpUpdateAttrs, Path: path, Node: nw, Attrs: changes})
	}
	d.children(path, old.Children, nw.Children)
}

func (d *differ) children(path []int, old, nw []*Node) {
	if len(old) == 0 && len(nw) == 0 {
		return
	}
	match := Match(old, nw)
	matched := make([]bool, len(old))
	for _, j := range match {
		if j >= 0 {
			matched[j] = true
		}
	}

	// Removals first, from the back, so earlier indices stay valid.
	for j := len(old) - 1; j >= 0; j-- {
		if !matched[j] {
			d.emit(Op{Kind: OpRemove, Path: path, Index: j, Node: old[j]})
		}
	}

	// live mirrors the current child order as old indices, -1 for inserted.
	live := make([]int, 0, len(nw))
	for j := range old {
		if matched[j] {
			live = append(live, j)
		}
	}
	for i, j := range match {
		if j < 0 {
			live = insertAt(live, i, -1)
			d.emit(Op{Kind: OpInsert, Path: path, Index: i, Node: nw[i]})
			continue
		}
		p := indexFrom(live, i, j)
		if p != i {
			live = moveTo(live, p, i)
			d.emit(Op{Kind: OpMove, Path: path, From: p, Index: i, Node: nw[i]})
		}
	}

	for i, j := range match {
		if j >= 0 {
			d.node(childPath(path, i), old[j], nw[i])
		}
	}
}

func diffAttrs(old, nw Attrs) []AttrChange {
	var changes []AttrChange
	for name, v := range nw {
		if ov, ok := old[name]; !ok || ov != v {
			changes = append(changes, AttrChange{Name: name, Value: v})
		}
	}
	for name := range old {
		if _, ok := nw[name]; !ok {
			changes = append(changes, AttrChange{Name: name, Removed: true})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes
}

func childPath(path []int, i int) []int {
	p := make([]int, len(path)+1)
	copy(p, path)
	p[len(path)] = i
	return p
}

func insertAt(s []int, i, v int) []int {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func moveTo(s []int, from, to int) []int {
	v := s[from]
	s = append(s[:from], s[from+1:]...)
	return insertAt(s, to, v)
}

func indexFrom(s []int, start, v int) int {
	for i := start; i < len(s); i++ {
		if s[i] == v {
			return i
		}
	}
	return -1
}
