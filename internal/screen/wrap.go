package screen

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/rivo/uniseg"
)

type token struct {
	text  string
	seg   int
	space bool
}

// Wrap breaks a line of segments into lines no wider than width, breaking at
// spaces and hard-breaking words that do not fit on a line of their own.
// Every output line carries the styles of the segments it came from.
func Wrap(line []Segment, width int) [][]Segment {
	if width <= 0 {
		width = 1
	}
	var (
		out     [][]Segment
		current []Segment
		used    int
		lastSeg = -1
	)
	flush := func() {
		out = append(out, trimTrailingSpace(current))
		current, used, lastSeg = nil, 0, -1
	}
	push := func(t token, text string) {
		if n := len(current); n > 0 && lastSeg == t.seg {
			current[n-1].Text += text
		} else {
			current = append(current, Segment{Text: text, Style: line[t.seg].Style})
		}
		lastSeg = t.seg
		used += uniseg.StringWidth(text)
	}

	for _, t := range tokenize(line) {
		w := uniseg.StringWidth(t.text)
		if t.space {
			if used == 0 {
				continue
			}
			if used+w > width {
				flush()
				continue
			}
			push(t, t.text)
			continue
		}
		if used > 0 && used+w > width {
			flush()
		}
		if w <= width {
			push(t, t.text)
			continue
		}
		// a word longer than the line
		for _, part := range strings.Split(ansi.Hardwrap(t.text, width, false), "\n") {
			if used > 0 {
				flush()
			}
			push(t, part)
		}
	}
	if len(current) > 0 || len(out) == 0 {
		flush()
	}
	return out
}

func tokenize(line []Segment) []token {
	var tokens []token
	for i, seg := range line {
		start := 0
		inSpace := false
		for j, r := range seg.Text {
			isSpace := unicode.IsSpace(r)
			if j > start && isSpace != inSpace {
				tokens = append(tokens, token{text: seg.Text[start:j], seg: i, space: inSpace})
				start = j
			}
			inSpace = isSpace
		}
		if start < len(seg.Text) {
			tokens = append(tokens, token{text: seg.Text[start:], seg: i, space: inSpace})
		}
	}
	return tokens
}

func trimTrailingSpace(line []Segment) []Segment {
	for len(line) > 0 {
		last := &line[len(line)-1]
		last.Text = strings.TrimRightFunc(last.Text, unicode.IsSpace)
		if last.Text != "" {
			break
		}
		line = line[:len(line)-1]
	}
	return line
}
