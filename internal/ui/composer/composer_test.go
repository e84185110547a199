package composer

import (
	"io"
	"strings"
	"testing"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idursun/threadview/internal/events"
	"github.com/idursun/threadview/internal/logger"
	"github.com/idursun/threadview/internal/topic"
	"github.com/idursun/threadview/internal/ui/poststream"
	"github.com/idursun/threadview/internal/ui/status"
	"github.com/idursun/threadview/test"
)

func init() {
	logger.UseWriter(io.Discard)
}

var now = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

type event struct {
	name    string
	payload any
}

type fixture struct {
	model  *Model
	topic  *topic.Topic
	events []event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{topic: topic.Sample(3, now)}
	bus := events.NewBus()
	for _, name := range []string{
		poststream.EventComposerOpened,
		poststream.EventComposerResized,
		poststream.EventComposerClosed,
		poststream.EventPosted,
	} {
		bus.Subscribe(name, func(payload any) {
			f.events = append(f.events, event{name, payload})
		})
	}
	f.model = New(bus, f.topic, "zoe", KeyMap{
		Submit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "post reply")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "discard")),
	})
	f.model.now = func() time.Time { return now }
	f.model.SetWidth(40)
	return f
}

func (f *fixture) typeText(s string) {
	for _, r := range s {
		if r == '\n' {
			f.model.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
			continue
		}
		f.model.Update(tea.KeyPressMsg{Text: string(r), Code: r})
	}
}

func TestComposer_OpenAnnouncesHeight(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0, f.model.Height())

	f.model.Open()
	require.True(t, f.model.IsOpen())
	assert.Equal(t, []event{{poststream.EventComposerOpened, minRows + 1}}, f.events)

	f.model.Open()
	assert.Len(t, f.events, 1, "opening twice is a no-op")
}

func TestComposer_GrowsWithContent(t *testing.T) {
	f := newFixture(t)
	f.model.Open()
	f.typeText("one\ntwo\nthree\nfour")

	assert.Equal(t, 5, f.model.Height())
	last := f.events[len(f.events)-1]
	assert.Equal(t, event{poststream.EventComposerResized, 5}, last)
}

func TestComposer_CancelDiscardsDraft(t *testing.T) {
	f := newFixture(t)
	f.model.Open()
	f.typeText("never mind")
	f.model.Update(tea.KeyPressMsg{Code: tea.KeyEscape})

	assert.False(t, f.model.IsOpen())
	assert.Equal(t, event{poststream.EventComposerClosed, 0}, f.events[len(f.events)-1])
	assert.Len(t, f.topic.Posts, 3)

	f.model.Open()
	assert.Empty(t, f.model.input.Value())
}

func TestComposer_SubmitAppendsPost(t *testing.T) {
	f := newFixture(t)
	f.model.Open()
	f.typeText("thanks all")

	cmd := f.model.Update(tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	posted, ok := cmd().(PostedMsg)
	require.True(t, ok)

	assert.Equal(t, 4, posted.Post.Number)
	assert.Equal(t, "zoe", posted.Post.Author)
	assert.Equal(t, "thanks all", posted.Post.Body)
	assert.Len(t, f.topic.Posts, 4)
	assert.False(t, f.model.IsOpen())

	names := make([]string, len(f.events))
	for i, e := range f.events {
		names[i] = e.name
	}
	assert.Equal(t, []string{
		poststream.EventComposerOpened,
		poststream.EventComposerClosed,
		poststream.EventPosted,
	}, names)
}

func TestComposer_EmptySubmitFlashes(t *testing.T) {
	f := newFixture(t)
	f.model.Open()

	cmd := f.model.Update(tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	flash, ok := cmd().(status.FlashMsg)
	require.True(t, ok)
	assert.ErrorIs(t, flash.Err, ErrEmptyReply)
	assert.True(t, f.model.IsOpen())
}

func TestComposer_View(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, strings.TrimSpace(ansi.Strip(test.RenderImmediate(f.model, 40, 4))), "closed pane draws nothing")

	f.model.Open()
	out := ansi.Strip(test.RenderImmediate(f.model, 60, f.model.Height()))
	assert.Contains(t, out, "reply as zoe · ctrl+s post reply · esc discard")
}
