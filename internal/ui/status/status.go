package status

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/idursun/threadview/internal/topic"
	"github.com/idursun/threadview/internal/ui/common"
	"github.com/idursun/threadview/internal/ui/helpkeys"
	"github.com/idursun/threadview/internal/ui/render"
)

var expandFallback = helpkeys.Entry{Label: "?", Desc: "help"}

type FocusKind int

const (
	FocusNone FocusKind = iota
	FocusSearch
)

const MessageClearDuration = 3 * time.Second

type clearMsg string

// FlashMsg shows a message in the status line for a few seconds.
type FlashMsg struct {
	Text string
	Err  error
}

// JumpMsg is sent when a search is accepted.
type JumpMsg struct {
	Number int
}

// Searcher finds posts for the jump prompt, best match first.
type Searcher func(query string) []topic.Match

var _ common.ImmediateModel = (*Model)(nil)

type Model struct {
	input          textinput.Model
	entries        []helpkeys.Entry
	message        string
	failed         bool
	focusKind      FocusKind
	search         Searcher
	matches        []topic.Match
	styles         styles
	statusExpanded bool
}

type styles struct {
	shortcut lipgloss.Style
	dimmed   lipgloss.Style
	text     lipgloss.Style
	title    lipgloss.Style
	error    lipgloss.Style
}

func New(search Searcher) *Model {
	styles := styles{
		shortcut: common.DefaultPalette.Get("status.shortcut"),
		dimmed:   common.DefaultPalette.Get("status.dimmed"),
		text:     common.DefaultPalette.Get("status"),
		title:    common.DefaultPalette.Get("search"),
		error:    common.DefaultPalette.Get("status.error"),
	}
	t := textinput.New()
	t.Prompt = "/"
	t.Placeholder = "post number, author or words"
	t.SetWidth(40)
	is := t.Styles()
	is.Focused.Prompt = styles.title
	is.Blurred.Prompt = styles.title
	t.SetStyles(is)

	return &Model{
		input:  t,
		search: search,
		styles: styles,
	}
}

func (m *Model) IsFocused() bool {
	return m.focusKind != FocusNone
}

func (m *Model) FocusKind() FocusKind {
	return m.focusKind
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case clearMsg:
		if m.message == string(msg) {
			m.message = ""
			m.failed = false
		}
		return nil
	case FlashMsg:
		m.message = msg.Text
		m.failed = msg.Err != nil
		if msg.Err != nil {
			m.message = msg.Err.Error()
		}
		toBeCleared := m.message
		return tea.Tick(MessageClearDuration, func(time.Time) tea.Msg {
			return clearMsg(toBeCleared)
		})
	case tea.KeyPressMsg:
		if !m.IsFocused() {
			return nil
		}
		var cmd tea.Cmd
		previous := m.input.Value()
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != previous {
			m.runSearch()
		}
		return cmd
	default:
		if m.IsFocused() {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return cmd
		}
	}
	return nil
}

func (m *Model) runSearch() {
	m.matches = nil
	if m.search == nil {
		return
	}
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return
	}
	m.matches = m.search(query)
}

// StartSearch focuses the jump prompt.
func (m *Model) StartSearch() tea.Cmd {
	m.focusKind = FocusSearch
	m.statusExpanded = false
	m.input.Reset()
	m.matches = nil
	return m.input.Focus()
}

// Accept closes the prompt and jumps to the best match.
func (m *Model) Accept() tea.Cmd {
	if !m.IsFocused() {
		return nil
	}
	query := m.input.Value()
	matches := m.matches
	m.Cancel()
	if len(matches) == 0 {
		if strings.TrimSpace(query) == "" {
			return nil
		}
		return func() tea.Msg {
			return FlashMsg{Err: fmt.Errorf("no post matches %q", query)}
		}
	}
	number := matches[0].Number
	return func() tea.Msg { return JumpMsg{Number: number} }
}

func (m *Model) Cancel() {
	m.focusKind = FocusNone
	m.matches = nil
	m.input.Reset()
	m.input.Blur()
}

// Matches returns the results for the current query.
func (m *Model) Matches() []topic.Match {
	return m.matches
}

func (m *Model) Message() string {
	return m.message
}

func (m *Model) SetHelp(entries []helpkeys.Entry) {
	if len(m.entries) != len(entries) {
		m.statusExpanded = false
	}
	m.entries = entries
}

func (m *Model) Help() []helpkeys.Entry {
	return m.entries
}

// StatusExpanded returns whether the help overlay is currently expanded.
func (m *Model) StatusExpanded() bool {
	return m.statusExpanded
}

// ToggleStatusExpand toggles the expanded help view.
func (m *Model) ToggleStatusExpand() {
	if m.IsFocused() {
		return
	}
	m.statusExpanded = !m.statusExpanded
}

func (m *Model) ViewRect(dl *render.DisplayContext, rect uv.Rectangle) {
	width := rect.Dx()
	dl.AddFill(rect, ' ', m.styles.text, render.ZStatus)

	var statusLine string
	switch {
	case m.IsFocused():
		statusLine = m.renderSearch(width)
	case m.message != "":
		style := m.styles.text
		mark := "✓ "
		if m.failed {
			style, mark = m.styles.error, "✗ "
		}
		statusLine = style.Render(mark + strings.ReplaceAll(m.message, "\n", "⏎"))
	default:
		statusLine, _ = m.helpView(m.entries, width)
	}

	dl.AddDraw(rect, statusLine, render.ZStatus)
	m.renderExpandedStatus(dl, rect, width)
}

func (m *Model) renderSearch(width int) string {
	var preview string
	if len(m.matches) > 0 {
		best := m.matches[0]
		preview = m.styles.dimmed.Render(fmt.Sprintf("  #%d %s", best.Number, best.Text))
	}
	m.input.SetWidth(max(width-lipgloss.Width(preview)-2, 10))
	return lipgloss.JoinHorizontal(lipgloss.Left, m.input.View(), preview)
}

// renderExpandedStatus draws every help entry above the status line.
func (m *Model) renderExpandedStatus(dl *render.DisplayContext, rect uv.Rectangle, width int) {
	if !m.statusExpanded || len(m.entries) == 0 || m.IsFocused() {
		return
	}

	lines := m.expandedStatusView(m.entries, max(0, width-4))
	startY := rect.Min.Y - len(lines) - 1
	if startY < 0 {
		return
	}

	border := m.styles.title.Render("  help  ")
	border += m.styles.dimmed.Render(strings.Repeat("─", max(0, width-lipgloss.Width(border))))
	dl.AddDraw(uv.Rect(rect.Min.X, startY, width, 1), border, render.ZExpandedStatus)
	for i, line := range lines {
		padding := max(0, width-lipgloss.Width(line)-4)
		dl.AddDraw(uv.Rect(rect.Min.X, startY+1+i, width, 1),
			m.styles.text.Render("  "+line+strings.Repeat(" ", padding)), render.ZExpandedStatus)
	}
}

func (m *Model) expandedStatusView(helpEntries []helpkeys.Entry, maxWidth int) []string {
	var rendered []string
	maxEntryWidth := 0
	for _, entry := range helpEntries {
		if entry.Label == "" || entry.Desc == "" {
			continue
		}
		e := m.styles.shortcut.Render(entry.Label) + m.styles.dimmed.PaddingLeft(1).Render(entry.Desc)
		rendered = append(rendered, e)
		maxEntryWidth = max(maxEntryWidth, lipgloss.Width(e))
	}
	return buildHelpGrid(rendered, maxEntryWidth, maxWidth)
}

// buildHelpGrid arranges entries into as many columns as fit in maxWidth.
func buildHelpGrid(entries []string, maxEntryWidth, maxWidth int) []string {
	numCols := max(maxWidth/(maxEntryWidth+2), 1)
	colWidth := maxWidth / numCols
	numRows := (len(entries) + numCols - 1) / numCols

	var lines []string
	for row := range numRows {
		var line strings.Builder
		for col := range numCols {
			idx := row*numCols + col
			if idx >= len(entries) {
				break
			}
			line.WriteString(entries[idx])
			if col < numCols-1 {
				line.WriteString(strings.Repeat(" ", max(0, colWidth-lipgloss.Width(entries[idx]))))
			}
		}
		lines = append(lines, line.String())
	}
	return lines
}

func (m *Model) helpView(helpEntries []helpkeys.Entry, maxWidth int) (string, bool) {
	separator := m.styles.dimmed.Render(" • ")
	moreHint := separator + m.styles.shortcut.Render(m.expandStatusKey(helpEntries)) + m.styles.dimmed.PaddingLeft(1).Render("more")

	var rendered []string
	currentWidth := 0
	for i, entry := range helpEntries {
		if entry.Label == "" || entry.Desc == "" {
			continue
		}
		e := m.styles.shortcut.Render(entry.Label) + m.styles.dimmed.PaddingLeft(1).Render(entry.Desc)
		added := lipgloss.Width(e)
		if len(rendered) > 0 {
			added += lipgloss.Width(separator)
		}
		reserved := 0
		if i < len(helpEntries)-1 {
			reserved = lipgloss.Width(moreHint)
		}
		if maxWidth > 0 && currentWidth+added+reserved > maxWidth {
			return strings.Join(rendered, separator) + moreHint, true
		}
		rendered = append(rendered, e)
		currentWidth += added
	}
	return strings.Join(rendered, separator), false
}

func (m *Model) expandStatusKey(helpEntries []helpkeys.Entry) string {
	for _, entry := range helpEntries {
		if entry.Desc == expandFallback.Desc {
			return entry.Label
		}
	}
	return expandFallback.Label
}
