package dom

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idursun/threadview/internal/vtree"
)

// snapshot converts a live tree back into a render tree for comparison.
func snapshot(t *testing.T, n *Node) *vtree.Node {
	if n == nil {
		return nil
	}
	v := &vtree.Node{Key: n.key, Tag: n.tag, Text: n.text}
	if len(n.attrs) > 0 {
		v.Attrs = vtree.Attrs{}
		for k, val := range n.attrs {
			v.Attrs[k] = val
		}
	}
	for _, c := range n.children {
		require.Same(t, n, c.parent)
		v.Children = append(v.Children, snapshot(t, c))
	}
	return v
}

var ignoreLive = cmpopts.IgnoreFields(vtree.Node{}, "Events", "Instance", "WidgetArgs", "Widget")

func assertMatches(t *testing.T, want *vtree.Node, got *Node) {
	t.Helper()
	if diff := cmp.Diff(want, snapshot(t, got), ignoreLive, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func thread(keys ...string) *vtree.Node {
	var posts []*vtree.Node
	for _, k := range keys {
		posts = append(posts, vtree.Keyed(k, "article", vtree.Attrs{"id": "post_" + k},
			vtree.El("p", nil, vtree.Text("post "+k)),
		))
	}
	return vtree.El("section", vtree.Attrs{"class": "posts"}, posts...)
}

func TestBuild(t *testing.T) {
	tree := thread("1", "2")
	root := Build(tree)
	assertMatches(t, tree, root)
	assert.Nil(t, root.Parent())
	assert.Equal(t, "post 2", TextContent(root.Child(1)))
	assert.Equal(t, []int{1, 0, 0}, Path(root.At([]int{1, 0, 0})))
	assert.Equal(t, "article", FindKey(root, "2").Tag())
}

func TestPatch_EmptyDiffLeavesTreeUnchanged(t *testing.T) {
	tree := thread("1", "2", "3")
	root := Build(tree)
	before := root.Child(1)

	root, err := Patch(root, vtree.Diff(tree, thread("1", "2", "3")))
	require.NoError(t, err)
	assert.Same(t, before, root.Child(1))
	assertMatches(t, tree, root)
}

func TestPatch_KeepsMatchedNodes(t *testing.T) {
	a := thread("1", "2", "3")
	b := thread("0", "3", "1")
	root := Build(a)
	one, three := root.Child(0), root.Child(2)
	two := root.Child(1)

	root, err := Patch(root, vtree.Diff(a, b))
	require.NoError(t, err)
	assertMatches(t, b, root)
	assert.Same(t, three, root.Child(1))
	assert.Same(t, one, root.Child(2))
	assert.True(t, two.Destroyed())
	assert.Nil(t, two.Parent())
}

func TestPatch_RootReplace(t *testing.T) {
	a := vtree.El("div", nil, vtree.Text("x"))
	b := vtree.El("main", nil)
	root := Build(a)
	old := root

	root, err := Patch(root, vtree.Diff(a, b))
	require.NoError(t, err)
	assertMatches(t, b, root)
	assert.True(t, old.Destroyed())

	root, err = Patch(root, vtree.Diff(b, nil))
	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestPatch_StalePath(t *testing.T) {
	root := Build(thread("1"))
	_, err := Patch(root, []vtree.Op{{Kind: vtree.OpRemove, Path: []int{4}, Index: 0}})
	require.ErrorIs(t, err, ErrStalePath)

	_, err = Patch(root, []vtree.Op{{Kind: vtree.OpUpdateText, Path: []int{0}, Text: "x"}})
	require.ErrorIs(t, err, ErrStalePath)

	_, err = Patch(nil, []vtree.Op{{Kind: vtree.OpInsert, Index: 0, Node: vtree.Text("x")}})
	require.ErrorIs(t, err, ErrStalePath)
}

func TestPatch_RejectedOpsLeaveTreeUntouched(t *testing.T) {
	tree := thread("1", "2", "3")
	root := Build(tree)
	first := root.Child(0)

	got, err := Patch(root, []vtree.Op{
		{Kind: vtree.OpRemove, Index: 0},
		{Kind: vtree.OpMove, From: 1, Index: 0},
		{Kind: vtree.OpInsert, Path: []int{0}, Index: 1, Node: vtree.Text("new")},
		{Kind: vtree.OpUpdateText, Path: []int{2, 0, 0}, Text: "gone"},
	})
	require.ErrorIs(t, err, ErrStalePath)
	assert.Same(t, root, got)
	assert.Same(t, first, root.Child(0))
	assert.False(t, first.Destroyed())
	assertMatches(t, tree, root)
}

func TestCheck_FollowsEarlierOps(t *testing.T) {
	root := Build(thread("1", "2"))

	require.NoError(t, Check(root, []vtree.Op{
		{Kind: vtree.OpInsert, Index: 2, Node: vtree.Keyed("3", "article", nil, vtree.Text("post 3"))},
		{Kind: vtree.OpUpdateText, Path: []int{2, 0}, Text: "edited"},
	}))
	require.ErrorIs(t, Check(root, []vtree.Op{
		{Kind: vtree.OpRemove, Index: 1},
		{Kind: vtree.OpUpdateAttrs, Path: []int{1}},
	}), ErrStalePath)
	require.ErrorIs(t, Check(root, []vtree.Op{
		{Kind: vtree.OpRemove, Root: true},
		{Kind: vtree.OpRemove, Index: 0},
	}), ErrStalePath)
	assertMatches(t, thread("1", "2"), root)
}

type spyWidget struct {
	name string
	log  *[]string
}

func (s *spyWidget) Render() (*vtree.Node, error) { return nil, nil }
func (s *spyWidget) Destroy()                     { *s.log = append(*s.log, s.name) }

func TestPatch_DestroysWidgetsBottomUpOnce(t *testing.T) {
	var log []string
	outer := &spyWidget{name: "outer", log: &log}
	inner := &spyWidget{name: "inner", log: &log}

	innerNode := vtree.WidgetNode("avatar", "", nil)
	innerNode.Instance = inner
	outerNode := vtree.WidgetNode("post", "p1", nil)
	outerNode.Instance = outer
	outerNode.Children = []*vtree.Node{vtree.El("article", nil, innerNode)}

	a := vtree.El("section", nil, outerNode)
	b := vtree.El("section", nil)
	root := Build(a)
	assert.Same(t, outer, root.Child(0).Widget())

	root, err := Patch(root, vtree.Diff(a, b))
	require.NoError(t, err)
	assert.Equal(t, []string{"inner", "outer"}, log)

	Release(root)
	Release(root)
	assert.Equal(t, []string{"inner", "outer"}, log)
}

func TestRelease_Idempotent(t *testing.T) {
	var log []string
	w := vtree.WidgetNode("post", "p1", nil)
	w.Instance = &spyWidget{name: "p1", log: &log}
	root := Build(vtree.El("div", nil, w))

	Release(root)
	Release(root)
	assert.Equal(t, []string{"p1"}, log)
}

func TestPatch_AttributeUpdates(t *testing.T) {
	a := vtree.El("div", vtree.Attrs{"class": "a", "hidden": "1"})
	b := vtree.El("div", vtree.Attrs{"class": "b", "title": "t"})
	root := Build(a)
	root, err := Patch(root, vtree.Diff(a, b))
	require.NoError(t, err)
	assert.Equal(t, []string{"class", "title"}, root.AttrNames())
	assert.False(t, root.HasAttr("hidden"))
}

// randomTree builds a two level keyed/unkeyed tree out of a small alphabet so
// successive trees share a lot of structure.
func randomTree(r *rand.Rand) *vtree.Node {
	tags := []string{"p", "div", "span"}
	n := r.Intn(6)
	perm := r.Perm(8)
	var children []*vtree.Node
	for i := 0; i < n; i++ {
		var grand []*vtree.Node
		for g := r.Intn(3); g > 0; g-- {
			grand = append(grand, vtree.Text(fmt.Sprintf("t%d", r.Intn(3))))
		}
		attrs := vtree.Attrs{}
		if r.Intn(2) == 0 {
			attrs["class"] = fmt.Sprintf("c%d", r.Intn(3))
		}
		tag := tags[r.Intn(len(tags))]
		if r.Intn(3) == 0 {
			children = append(children, vtree.El(tag, attrs, grand...))
		} else {
			children = append(children, vtree.Keyed(fmt.Sprintf("k%d", perm[i]), tag, attrs, grand...))
		}
	}
	return vtree.El("section", nil, children...)
}

func TestPatch_DiffRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a, b := randomTree(r), randomTree(r)
		root := Build(a)
		root, err := Patch(root, vtree.Diff(a, b))
		require.NoError(t, err, "iteration %d", i)
		assertMatches(t, b, root)
	}
}
