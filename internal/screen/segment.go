package screen

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Segment is a run of text in one style inside a paragraph.
type Segment struct {
	Text  string
	Style lipgloss.Style
}

func (s Segment) String() string {
	return s.Style.Render(s.Text)
}

// BreakNewLines groups segments into lines, splitting segments at new lines.
// Empty lines are kept so paragraphs keep their spacing.
func BreakNewLines(segments []Segment) [][]Segment {
	var lines [][]Segment
	current := make([]Segment, 0)
	for _, seg := range segments {
		text := seg.Text
		idx := strings.IndexByte(text, '\n')
		for idx != -1 {
			if idx > 0 {
				current = append(current, Segment{Text: text[:idx], Style: seg.Style})
			}
			lines = append(lines, current)
			current = make([]Segment, 0)
			text = text[idx+1:]
			idx = strings.IndexByte(text, '\n')
		}
		if len(text) > 0 {
			current = append(current, Segment{Text: text, Style: seg.Style})
		}
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

// Render joins the rendered segments of a line.
func Render(line []Segment) string {
	var b strings.Builder
	for _, seg := range line {
		b.WriteString(seg.String())
	}
	return b.String()
}
