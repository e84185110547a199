package common

import (
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"

	"github.com/idursun/threadview/internal/config"
)

func boolPtr(b bool) *bool { return &b }

func TestPalette_InheritsFromPrefix(t *testing.T) {
	p := NewPalette()
	p.Update(map[string]config.Color{
		"post":         {Fg: "252", Italic: boolPtr(true)},
		"post.current": {Fg: "214", Bold: boolPtr(true)},
	})

	current := p.Get("post.current")
	assert.Equal(t, lipgloss.Color("214"), current.GetForeground())
	assert.True(t, current.GetBold())
	assert.True(t, current.GetItalic(), "inherited from post")

	assert.Equal(t, lipgloss.Color("252"), p.Get("post.author").GetForeground(), "unknown leaf falls back to its prefix")
	assert.False(t, p.Get("title").GetBold())
}

func TestPalette_UpdateInvalidatesCache(t *testing.T) {
	p := NewPalette()
	p.Update(map[string]config.Color{"title": {Fg: "1"}})
	assert.Equal(t, lipgloss.Color("1"), p.Get("title").GetForeground())

	p.Update(map[string]config.Color{"title": {Fg: "2"}})
	assert.Equal(t, lipgloss.Color("2"), p.Get("title").GetForeground())
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"#ff0000", lipgloss.Color("#ff0000")},
		{"39", lipgloss.Color("39")},
		{"bright blue", lipgloss.Color("12")},
		{"ansi-color-200", lipgloss.Color("200")},
		{"nonsense", lipgloss.NoColor{}},
		{"300", lipgloss.NoColor{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseColor(tt.in))
		})
	}
}
