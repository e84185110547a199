package content

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idursun/threadview/internal/vtree"
)

func tags(nodes []*vtree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Tag
	}
	return out
}

func TestRender_Blocks(t *testing.T) {
	body := "First line\ncontinues here.\n\n> quoted\n> more\n\n```go\nx := 1\n\n```\nafter"

	nodes := Render(body)
	require.Equal(t, []string{"p", "blockquote", "pre", "p"}, tags(nodes))

	assert.Equal(t, "First line continues here.", nodes[0].Children[0].Text)
	assert.Equal(t, "1", nodes[0].Attr("margin-bottom"))
	assert.Equal(t, "│ ", nodes[1].Attr("gutter"))
	assert.Equal(t, "quoted more", nodes[1].Children[0].Text)
	assert.Equal(t, "go", nodes[2].Attr("lang"))
	assert.Equal(t, "x := 1\n", ansi.Strip(nodes[2].Children[0].Text))
	assert.Empty(t, nodes[3].Attr("margin-bottom"), "the last block has no margin")
}

func TestRender_InlineCode(t *testing.T) {
	nodes := Render("call `Tick` then `Schedule`.")
	require.Len(t, nodes, 1)
	children := nodes[0].Children
	require.Len(t, children, 5)
	assert.Equal(t, "call ", children[0].Text)
	assert.Equal(t, "span", children[1].Tag)
	assert.Equal(t, "code", children[1].Attr("style"))
	assert.Equal(t, "Tick", children[1].Children[0].Text)
	assert.Equal(t, ".", children[4].Text)
}

func TestRender_UnterminatedFence(t *testing.T) {
	nodes := Render("```\nno end")
	require.Equal(t, []string{"pre"}, tags(nodes))
	assert.Equal(t, "no end", ansi.Strip(nodes[0].Children[0].Text))
}

func TestRender_Empty(t *testing.T) {
	assert.Empty(t, Render(""))
	assert.Empty(t, Render("\n\n"))
}

func TestHighlight_KeepsSource(t *testing.T) {
	src := "func main() {}"
	out := Highlight(src, "go")
	assert.Equal(t, src, ansi.Strip(out))
	assert.NotEqual(t, src, out, "go source is coloured")
}
