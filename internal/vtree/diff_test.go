package vtree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postList(keys ...string) *Node {
	var children []*Node
	for _, k := range keys {
		children = append(children, Keyed(k, "article", Attrs{"id": k}, Text("body of "+k)))
	}
	return El("section", Attrs{"class": "posts"}, children...)
}

// kinds strips ops down to what tests care about.
type opSummary struct {
	Kind  OpKind
	Path  []int
	Index int
	From  int
}

func summarize(ops []Op) []opSummary {
	out := make([]opSummary, len(ops))
	for i, op := range ops {
		out[i] = opSummary{Kind: op.Kind, Path: op.Path, Index: op.Index, From: op.From}
	}
	return out
}

func assertOps(t *testing.T, want []opSummary, got []Op) {
	t.Helper()
	if diff := cmp.Diff(want, summarize(got), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_NilTrees(t *testing.T) {
	tree := postList("a")

	assert.Empty(t, Diff(nil, nil))

	ins := Diff(nil, tree)
	require.Len(t, ins, 1)
	assert.Equal(t, OpInsert, ins[0].Kind)
	assert.True(t, ins[0].Root)
	assert.Same(t, tree, ins[0].Node)

	rm := Diff(tree, nil)
	require.Len(t, rm, 1)
	assert.Equal(t, OpRemove, rm[0].Kind)
	assert.True(t, rm[0].Root)
}

func TestDiff_SameTreeIsEmpty(t *testing.T) {
	a := postList("a", "b", "c")
	b := postList("a", "b", "c")
	assert.Empty(t, Diff(a, a))
	assert.Empty(t, Diff(a, b))
}

func TestDiff_SingleAttributeChangeIsOneOp(t *testing.T) {
	a := El("div", Attrs{"class": "topic"},
		El("h1", Attrs{"class": "title"}, Text("Hello")),
		El("p", Attrs{"class": "meta", "data-views": "10"}, Text("by sam")),
	)
	b := El("div", Attrs{"class": "topic"},
		El("h1", Attrs{"class": "title"}, Text("Hello")),
		El("p", Attrs{"class": "meta", "data-views": "11"}, Text("by sam")),
	)

	ops := Diff(a, b)
	require.Len(t, ops, 1)
	assert.Equal(t, OpUpdateAttrs, ops[0].Kind)
	assert.Equal(t, []int{1}, ops[0].Path)
	assert.Equal(t, []AttrChange{{Name: "data-views", Value: "11"}}, ops[0].Attrs)
}

func TestDiff_AttributeRemoval(t *testing.T) {
	a := El("div", Attrs{"class": "x", "hidden": "true"})
	b := El("div", Attrs{"class": "x"})
	ops := Diff(a, b)
	require.Len(t, ops, 1)
	assert.Equal(t, []AttrChange{{Name: "hidden", Removed: true}}, ops[0].Attrs)
}

func TestDiff_TextChange(t *testing.T) {
	a := El("span", nil, Text("3 replies"))
	b := El("span", nil, Text("4 replies"))
	ops := Diff(a, b)
	require.Len(t, ops, 1)
	assert.Equal(t, OpUpdateText, ops[0].Kind)
	assert.Equal(t, []int{0}, ops[0].Path)
	assert.Equal(t, "4 replies", ops[0].Text)
}

func TestDiff_KeyedAppendAndPrepend(t *testing.T) {
	assertOps(t, []opSummary{
		{Kind: OpInsert, Index: 3},
	}, Diff(postList("a", "b", "c"), postList("a", "b", "c", "d")))

	assertOps(t, []opSummary{
		{Kind: OpInsert, Index: 0},
	}, Diff(postList("b", "c"), postList("a", "b", "c")))
}

func TestDiff_KeyedRemoval(t *testing.T) {
	assertOps(t, []opSummary{
		{Kind: OpRemove, Index: 2},
		{Kind: OpRemove, Index: 0},
	}, Diff(postList("a", "b", "c", "d"), postList("b", "d")))
}

func TestDiff_KeyedMove(t *testing.T) {
	assertOps(t, []opSummary{
		{Kind: OpMove, From: 2, Index: 0},
	}, Diff(postList("a", "b", "c"), postList("c", "a", "b")))
}

func TestDiff_KeyChangeAtPositionIsReplace(t *testing.T) {
	a := El("ul", nil, Keyed("x", "li", nil, Text("same")))
	b := El("ul", nil, Keyed("y", "li", nil, Text("same")))
	assertOps(t, []opSummary{
		{Kind: OpRemove, Index: 0},
		{Kind: OpInsert, Index: 0},
	}, Diff(a, b))
}

func TestDiff_TagChangeIsReplace(t *testing.T) {
	a := El("div", nil, El("span", nil), El("em", nil))
	b := El("div", nil, El("span", nil), El("strong", nil))
	assertOps(t, []opSummary{
		{Kind: OpRemove, Index: 1},
		{Kind: OpInsert, Index: 1},
	}, Diff(a, b))
}

func TestDiff_RootReplace(t *testing.T) {
	ops := Diff(El("div", nil), El("section", nil))
	require.Len(t, ops, 2)
	assert.True(t, ops[0].Root)
	assert.Equal(t, OpRemove, ops[0].Kind)
	assert.Equal(t, OpInsert, ops[1].Kind)
}

func TestDiff_WidgetTypeChangeIsReplace(t *testing.T) {
	a := El("div", nil, WidgetNode("post", "p1", nil))
	b := El("div", nil, WidgetNode("post-cloaked", "p1", nil))
	assertOps(t, []opSummary{
		{Kind: OpRemove, Index: 0},
		{Kind: OpInsert, Index: 0},
	}, Diff(a, b))
}

func TestDiff_NestedChangesUseFinalPositions(t *testing.T) {
	a := postList("a", "b")
	b := El("section", Attrs{"class": "posts"},
		Keyed("z", "article", Attrs{"id": "z"}, Text("new")),
		Keyed("a", "article", Attrs{"id": "a"}, Text("edited a")),
		Keyed("b", "article", Attrs{"id": "b"}, Text("body of b")),
	)
	ops := Diff(a, b)
	assertOps(t, []opSummary{
		{Kind: OpInsert, Index: 0},
		{Kind: OpUpdateText, Path: []int{1, 0}},
	}, ops)
}

func TestMatch(t *testing.T) {
	old := []*Node{Keyed("a", "li", nil), El("li", nil), Keyed("c", "li", nil)}
	nw := []*Node{Keyed("c", "li", nil), El("li", nil), Keyed("q", "li", nil)}
	assert.Equal(t, []int{2, 1, -1}, Match(old, nw))
}

func TestValidate_DuplicateKeys(t *testing.T) {
	err := Validate(El("div", nil, El("ul", nil, Keyed("a", "li", nil), Keyed("a", "li", nil))))
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.NoError(t, Validate(postList("a", "b")))
	require.NoError(t, Validate(nil))
}

func TestNode_AtAndOn(t *testing.T) {
	tree := postList("a", "b")
	assert.Equal(t, "body of b", tree.At([]int{1, 0}).Text)
	assert.Nil(t, tree.At([]int{5}))

	clicked := false
	n := El("button", nil).On("click", func(Event) { clicked = true })
	n.Events["click"](nil)
	assert.True(t, clicked)
	assert.Equal(t, 3, Count(El("div", nil, Text("x"), El("p", nil))))
}
