// Package content turns a post body into render nodes. The body is a small
// markdown subset: paragraphs, "> " quotes, fenced code blocks and inline
// code spans.
package content

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/idursun/threadview/internal/vtree"
)

// CodeStyle is the chroma style used for code blocks.
var CodeStyle = "monokai"

var inlineCodePattern = regexp.MustCompile("`([^`]+)`")

type blockKind int

const (
	paragraph blockKind = iota
	quote
	code
)

type block struct {
	kind  blockKind
	lang  string
	lines []string
}

// Render returns the nodes of body, one per block.
func Render(body string) []*vtree.Node {
	blocks := split(body)
	nodes := make([]*vtree.Node, 0, len(blocks))
	for i, b := range blocks {
		var attrs vtree.Attrs
		if i < len(blocks)-1 {
			attrs = vtree.Attrs{"margin-bottom": "1"}
		}
		switch b.kind {
		case code:
			a := vtree.Attrs{"style": "code", "lang": b.lang}
			for k, v := range attrs {
				a[k] = v
			}
			nodes = append(nodes, vtree.El("pre", a, vtree.Text(Highlight(strings.Join(b.lines, "\n"), b.lang))))
		case quote:
			a := vtree.Attrs{"style": "quote", "gutter": "│ "}
			for k, v := range attrs {
				a[k] = v
			}
			nodes = append(nodes, vtree.El("blockquote", a, inline(strings.Join(b.lines, " "))...))
		default:
			nodes = append(nodes, vtree.El("p", attrs, inline(strings.Join(b.lines, " "))...))
		}
	}
	return nodes
}

func split(body string) []block {
	var (
		blocks  []block
		current *block
	)
	closeBlock := func() {
		if current != nil {
			blocks = append(blocks, *current)
			current = nil
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if current != nil && current.kind == code {
			if strings.HasPrefix(trimmed, "```") {
				closeBlock()
				continue
			}
			current.lines = append(current.lines, line)
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "```"):
			closeBlock()
			current = &block{kind: code, lang: strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))}
		case trimmed == "":
			closeBlock()
		case strings.HasPrefix(trimmed, ">"):
			text := strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
			if current == nil || current.kind != quote {
				closeBlock()
				current = &block{kind: quote}
			}
			current.lines = append(current.lines, text)
		default:
			if current == nil || current.kind != paragraph {
				closeBlock()
				current = &block{kind: paragraph}
			}
			current.lines = append(current.lines, trimmed)
		}
	}
	closeBlock()
	return blocks
}

// inline splits text into text nodes and code spans.
func inline(text string) []*vtree.Node {
	var out []*vtree.Node
	last := 0
	for _, loc := range inlineCodePattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			out = append(out, vtree.Text(text[last:loc[0]]))
		}
		out = append(out, vtree.El("span", vtree.Attrs{"style": "code"}, vtree.Text(text[loc[2]:loc[3]])))
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, vtree.Text(text[last:]))
	}
	return out
}

// Highlight colours code for a 256-colour terminal. Unknown languages are
// guessed from the content; on any error the code is returned as is. The
// result has as many lines as source.
func Highlight(source, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(CodeStyle)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return source
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return source
	}

	// lexers may append a final newline; fold it back so the line count
	// matches the source
	lines := strings.Split(buf.String(), "\n")
	if want := strings.Count(source, "\n") + 1; len(lines) > want {
		tail := strings.Join(lines[want:], "")
		lines = append(lines[:want-1], lines[want-1]+tail)
	}
	return strings.Join(lines, "\n")
}
