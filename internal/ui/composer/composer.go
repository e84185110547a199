// Package composer is the reply pane at the bottom of the screen. It keeps
// the post stream informed of its height through the composer:* events so
// the stream can reserve room for it.
package composer

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/idursun/threadview/internal/events"
	"github.com/idursun/threadview/internal/logger"
	"github.com/idursun/threadview/internal/topic"
	"github.com/idursun/threadview/internal/ui/common"
	"github.com/idursun/threadview/internal/ui/poststream"
	"github.com/idursun/threadview/internal/ui/render"
	"github.com/idursun/threadview/internal/ui/status"
)

const (
	minRows = 3
	maxRows = 8
)

var ErrEmptyReply = errors.New("composer: reply is empty")

// PostedMsg is returned after a reply was added to the topic.
type PostedMsg struct {
	Post topic.Post
}

type KeyMap struct {
	Submit key.Binding
	Cancel key.Binding
}

var (
	_ common.ImmediateModel = (*Model)(nil)
	_ common.Focusable      = (*Model)(nil)
)

type Model struct {
	input  textarea.Model
	bus    *events.Bus
	topic  *topic.Topic
	author string
	keys   KeyMap
	now    func() time.Time
	log    *slog.Logger
	open   bool
	rows   int
	styles styles
}

type styles struct {
	text lipgloss.Style
	hint lipgloss.Style
}

func New(bus *events.Bus, t *topic.Topic, author string, keys KeyMap) *Model {
	ta := textarea.New()
	ta.Placeholder = "Write a reply..."
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.SetHeight(minRows)

	return &Model{
		input:  ta,
		bus:    bus,
		topic:  t,
		author: author,
		keys:   keys,
		now:    time.Now,
		log:    logger.ComponentLogger("composer"),
		rows:   minRows,
		styles: styles{
			text: common.DefaultPalette.Get("composer"),
			hint: common.DefaultPalette.Get("help"),
		},
	}
}

func (m *Model) IsOpen() bool {
	return m.open
}

func (m *Model) IsFocused() bool {
	return m.open
}

// Height is the number of rows the pane takes, zero when closed.
func (m *Model) Height() int {
	if !m.open {
		return 0
	}
	return m.rows + 1
}

func (m *Model) SetWidth(width int) {
	m.input.SetWidth(max(width, 1))
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Open() tea.Cmd {
	if m.open {
		return nil
	}
	m.open = true
	m.rows = minRows
	m.input.SetHeight(m.rows)
	m.bus.Trigger(poststream.EventComposerOpened, m.Height())
	return m.input.Focus()
}

// Close discards the draft.
func (m *Model) Close() {
	if !m.open {
		return
	}
	m.open = false
	m.input.Reset()
	m.input.Blur()
	m.bus.Trigger(poststream.EventComposerClosed, 0)
}

func (m *Model) Toggle() tea.Cmd {
	if m.open {
		m.Close()
		return nil
	}
	return m.Open()
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if !m.open {
		return nil
	}
	if msg, ok := msg.(tea.KeyPressMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.Close()
			return nil
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.fit()
	return cmd
}

// fit grows the input with its content, up to maxRows.
func (m *Model) fit() {
	rows := min(max(m.input.LineCount(), minRows), maxRows)
	if rows == m.rows {
		return
	}
	m.rows = rows
	m.input.SetHeight(rows)
	m.bus.Trigger(poststream.EventComposerResized, m.Height())
}

func (m *Model) submit() tea.Cmd {
	body := strings.TrimSpace(m.input.Value())
	if body == "" {
		return func() tea.Msg { return status.FlashMsg{Err: ErrEmptyReply} }
	}
	p, err := m.topic.Append(m.author, body, m.now())
	if err != nil {
		return func() tea.Msg { return status.FlashMsg{Err: err} }
	}
	m.log.Info("reply posted", "post", p.Number, "author", p.Author)
	m.Close()
	m.bus.Trigger(poststream.EventPosted, p)
	return func() tea.Msg { return PostedMsg{Post: p} }
}

func (m *Model) ViewRect(dl *render.DisplayContext, rect uv.Rectangle) {
	if !m.open || rect.Dy() <= 0 {
		return
	}
	dl.AddFill(rect, ' ', m.styles.text, render.ZComposer)

	hint := "reply as " + m.author
	if h := m.keys.Submit.Help(); h.Key != "" {
		hint += " · " + h.Key + " " + h.Desc
	}
	if h := m.keys.Cancel.Help(); h.Key != "" {
		hint += " · " + h.Key + " " + h.Desc
	}
	dl.AddDraw(uv.Rect(rect.Min.X, rect.Min.Y, rect.Dx(), 1), m.styles.hint.Render(hint), render.ZComposer)

	body := uv.Rect(rect.Min.X, rect.Min.Y+1, rect.Dx(), rect.Dy()-1)
	lines := strings.Split(m.input.View(), "\n")
	dl.AddLines(body.Min.X, body.Min.Y, body.Dx(), body.Dy(), lines, render.ZComposer)
}
