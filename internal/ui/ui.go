// Package ui is the root bubbletea model. It mounts the post stream, the
// header and the timeline, feeds the viewport tracker with frames, and paints
// the regions into one display context per frame.
package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/idursun/threadview/internal/browser"
	"github.com/idursun/threadview/internal/config"
	"github.com/idursun/threadview/internal/dom"
	"github.com/idursun/threadview/internal/logger"
	"github.com/idursun/threadview/internal/mount"
	"github.com/idursun/threadview/internal/schedule"
	"github.com/idursun/threadview/internal/screen"
	"github.com/idursun/threadview/internal/topic"
	"github.com/idursun/threadview/internal/ui/common"
	"github.com/idursun/threadview/internal/ui/composer"
	"github.com/idursun/threadview/internal/ui/header"
	"github.com/idursun/threadview/internal/ui/helpkeys"
	"github.com/idursun/threadview/internal/ui/layout"
	"github.com/idursun/threadview/internal/ui/poststream"
	"github.com/idursun/threadview/internal/ui/render"
	"github.com/idursun/threadview/internal/ui/status"
	"github.com/idursun/threadview/internal/ui/timeline"
	"github.com/idursun/threadview/internal/viewport"
)

// chromeHeight is the timeline row plus the status row.
const chromeHeight = 2

type Model struct {
	cfg       *config.Config
	topic     *topic.Topic
	sched     schedule.Scheduler
	app       *mount.App
	tracker   *viewport.Tracker
	stream    *poststream.Stream
	header    *header.Header
	timeline  *timeline.Timeline
	status    *status.Model
	composer  *composer.Model
	keys      keyMap
	log       *slog.Logger
	page      *screen.Page
	scrollTop int
	width     int
	height    int
	noisy     bool

	displayContext *render.DisplayContext
	screenTrack    viewport.ScreenTrack
	isRead         func(number int) bool
	reload         func(number int) (topic.Post, error)
	copyText       func(text string) error
	openURL        func(url string) error
	now            func() time.Time
}

type Option func(*Model)

// WithScheduler replaces the real-time loop, for tests and one-shot
// renders.
func WithScheduler(s schedule.Scheduler) Option {
	return func(m *Model) { m.sched = s }
}

func WithScreenTrack(s viewport.ScreenTrack) Option {
	return func(m *Model) { m.screenTrack = s }
}

// WithReadState dims the number of posts already read.
func WithReadState(isRead func(number int) bool) Option {
	return func(m *Model) { m.isRead = isRead }
}

// WithReload sets how a single post is fetched again on refresh.
func WithReload(fn func(number int) (topic.Post, error)) Option {
	return func(m *Model) { m.reload = fn }
}

func WithClipboard(fn func(text string) error) Option {
	return func(m *Model) { m.copyText = fn }
}

func WithBrowser(fn func(url string) error) Option {
	return func(m *Model) { m.openURL = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(m *Model) { m.now = fn }
}

type (
	scrollMsg struct {
		Delta int
	}
	timelineClickMsg struct {
		X int
	}
)

func (s scrollMsg) SetDelta(delta int) tea.Msg {
	s.Delta = delta
	return s
}

func (c timelineClickMsg) SetPosition(x, _ int) tea.Msg {
	c.X = x
	return c
}

func NewUI(c *config.Config, t *topic.Topic, opts ...Option) *Model {
	m := &Model{
		cfg:            c,
		topic:          t,
		keys:           newKeyMap(c),
		log:            logger.ComponentLogger("ui"),
		displayContext: render.NewDisplayContext(),
		copyText:       clipboard.WriteAll,
		openURL:        browser.Open,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sched == nil {
		m.sched = schedule.NewLoop()
	}

	trackerOpts := []viewport.Option{viewport.WithScroller(m)}
	if m.screenTrack != nil {
		trackerOpts = append(trackerOpts, viewport.WithScreenTrack(m.screenTrack))
	}
	m.app = mount.NewApp(m.sched, nil)
	m.tracker = viewport.New(viewport.Config{
		SlackMultiplier:       c.Viewport.Slack,
		DebounceInterval:      c.Viewport.DebounceInterval(),
		TouchDebounceInterval: c.Viewport.TouchDebounceInterval(),
		ReadLineOffset:        c.Viewport.ReadLineOffset,
	}, m.sched, trackerOpts...)

	streamOpts := []poststream.Option{poststream.OnPatched(m.relayout)}
	if m.reload != nil {
		streamOpts = append(streamOpts, poststream.WithReload(m.reload))
	}
	if m.isRead != nil {
		streamOpts = append(streamOpts, poststream.WithReadState(m.isRead))
	}
	m.stream = poststream.New(m.app, m.tracker, t, poststream.Config{
		RelativeDatesInterval: c.UI.RelativeDatesInterval(),
		CloakedHeight:         c.UI.CloakedHeight,
		Now:                   m.now,
	}, streamOpts...)
	m.header = header.New(m.app, m.tracker, t)
	m.timeline = timeline.New(m.app, m.tracker, t)

	m.status = status.New(m.search)
	m.composer = composer.New(m.app.Bus, t, c.Site.Username, m.keys.composer())
	m.updateHelp()
	return m
}

// App exposes the event bus and scheduler shared by the mounts.
func (m *Model) App() *mount.App { return m.app }

func (m *Model) Init() tea.Cmd {
	m.stream.Mount().QueueRerender(nil)
	m.header.Mount().QueueRerender(nil)
	m.timeline.Mount().QueueRerender(nil)
	return nil
}

func (m *Model) windowTitle() string {
	return fmt.Sprintf("threadview - %s", m.topic.Title)
}

// search backs the jump prompt. A post number jumps straight to that post.
func (m *Model) search(query string) []topic.Match {
	var number int
	if _, err := fmt.Sscanf(strings.TrimPrefix(query, "#"), "%d", &number); err == nil {
		if p, ok := m.topic.Post(number); ok {
			return []topic.Match{{Number: p.Number, Text: p.Excerpt()}}
		}
	}
	return m.topic.Search(query)
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case schedule.TaskMsg:
		if loop, ok := m.sched.(*schedule.Loop); ok {
			loop.Run(msg)
		}
		return nil
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return nil
	case tea.MouseMsg:
		if interactionMsg, handled := m.displayContext.ProcessMouseEvent(msg); handled {
			return m.Update(interactionMsg)
		}
		return nil
	case scrollMsg:
		m.noisy = true
		m.ScrollTo(m.scrollTop + msg.Delta)
		return nil
	case timelineClickMsg:
		if m.inputFocused() {
			return nil
		}
		return m.jumpTo(m.postAtFraction(msg.X))
	case status.JumpMsg:
		return m.jumpTo(msg.Number)
	case composer.PostedMsg:
		return tea.Batch(m.flash(fmt.Sprintf("posted #%d", msg.Post.Number), nil), m.jumpTo(msg.Post.Number))
	case tea.KeyPressMsg:
		m.noisy = false
		cmd := m.handleKey(msg)
		m.updateHelp()
		return cmd
	}
	return tea.Batch(m.status.Update(msg), m.composer.Update(msg))
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case m.status.IsFocused():
		switch {
		case key.Matches(msg, m.keys.Accept):
			return m.status.Accept()
		case key.Matches(msg, m.keys.Cancel):
			m.status.Cancel()
			return nil
		}
		return m.status.Update(msg)
	case m.composer.IsOpen():
		return m.composer.Update(msg)
	case m.status.StatusExpanded():
		if key.Matches(msg, m.keys.Help, m.keys.Cancel) {
			m.status.ToggleStatusExpand()
			m.scheduleTick()
			return nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.LineDown):
		m.ScrollTo(m.scrollTop + 1)
	case key.Matches(msg, m.keys.LineUp):
		m.ScrollTo(m.scrollTop - 1)
	case key.Matches(msg, m.keys.PageDown):
		m.ScrollTo(m.scrollTop + max(m.streamHeight()-1, 1))
	case key.Matches(msg, m.keys.PageUp):
		m.ScrollTo(m.scrollTop - max(m.streamHeight()-1, 1))
	case key.Matches(msg, m.keys.Top):
		m.ScrollTo(0)
	case key.Matches(msg, m.keys.Bottom):
		return m.jumpToBottom()
	case key.Matches(msg, m.keys.Search):
		return m.status.StartSearch()
	case key.Matches(msg, m.keys.CopyURL):
		url := m.topic.URL(m.cfg.Site.BaseURL, m.currentPost())
		if err := m.copyText(url); err != nil {
			return m.flash("", fmt.Errorf("copy link: %w", err))
		}
		return m.flash("copied "+url, nil)
	case key.Matches(msg, m.keys.Open):
		if err := m.openURL(m.topic.URL(m.cfg.Site.BaseURL, m.currentPost())); err != nil {
			return m.flash("", err)
		}
	case key.Matches(msg, m.keys.Refresh):
		m.app.Bus.Trigger(poststream.EventRefresh, m.currentPost())
	case key.Matches(msg, m.keys.Composer):
		cmd := m.composer.Toggle()
		m.resizeComposer()
		return cmd
	case key.Matches(msg, m.keys.Help):
		m.status.ToggleStatusExpand()
		m.scheduleTick()
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	}
	return nil
}

// inputFocused reports whether a pane owns the keyboard.
func (m *Model) inputFocused() bool {
	for _, f := range []common.Focusable{m.status, m.composer} {
		if f.IsFocused() {
			return true
		}
	}
	return false
}

func (m *Model) flash(text string, err error) tea.Cmd {
	return func() tea.Msg { return status.FlashMsg{Text: text, Err: err} }
}

func (m *Model) updateHelp() {
	scopes := []string{config.ScopeStream, config.ScopeUI}
	switch {
	case m.status.IsFocused():
		scopes = []string{config.ScopeSearch}
	case m.composer.IsOpen():
		scopes = []string{config.ScopeComposer, config.ScopeUI}
	}
	m.status.SetHelp(helpkeys.BuildFromBindings(scopes, m.cfg.Bindings))
}

// currentPost is the post under the read line, or the first post before the
// first tick.
func (m *Model) currentPost() int {
	if n := m.stream.Current(); n != 0 {
		return n
	}
	if len(m.topic.Posts) > 0 {
		return m.topic.Posts[0].Number
	}
	return 0
}

// jumpTo loads the stream up to number and scrolls its post under the
// header.
func (m *Model) jumpTo(number int) tea.Cmd {
	if number <= 0 {
		return nil
	}
	err := m.stream.Reveal(number, func() {
		n := m.stream.PostNode(number)
		if n == nil {
			return
		}
		if top, _, ok := n.Box(); ok {
			m.ScrollTo(top - 1)
		}
	})
	if err != nil {
		m.log.Warn("jump failed", "post", number, "err", err)
		return m.flash("", err)
	}
	return nil
}

func (m *Model) jumpToBottom() tea.Cmd {
	last := m.topic.HighestPostNumber()
	if last == 0 {
		return nil
	}
	err := m.stream.Reveal(last, func() {
		m.ScrollTo(m.page.Height())
	})
	if err != nil {
		return m.flash("", err)
	}
	return nil
}

// postAtFraction maps a click on the timeline to the post at that share of
// the topic.
func (m *Model) postAtFraction(x int) int {
	n := len(m.topic.Posts)
	if n == 0 || m.width <= 0 {
		return 0
	}
	idx := min(max(x*n/m.width, 0), n-1)
	return m.topic.Posts[idx].Number
}

func (m *Model) resize(width, height int) {
	if width == m.width && height == m.height {
		return
	}
	m.width, m.height = width, height
	m.timeline.SetWidth(width)
	m.composer.SetWidth(width)
	m.relayout(m.stream.Mount().Root())
}

func (m *Model) resizeComposer() {
	m.ScrollTo(m.scrollTop)
}

// streamHeight is the number of rows left for the post stream.
func (m *Model) streamHeight() int {
	return max(m.height-chromeHeight-m.composer.Height(), 0)
}

func (m *Model) maxScroll() int {
	return max(m.page.Height()-m.streamHeight(), 0)
}

// relayout lays the stream out again after a patch or a resize. Post boxes
// come from here, so the tracker runs again.
func (m *Model) relayout(root *dom.Node) {
	if root == nil || m.width <= 0 {
		return
	}
	m.page = screen.Layout(root, m.width, common.DefaultPalette)
	m.scheduleTick()
}

func (m *Model) ScrollTop() int { return m.scrollTop }

// ScrollTo moves the stream, clamped to the laid out page.
func (m *Model) ScrollTo(top int) {
	top = min(max(top, 0), m.maxScroll())
	if top != m.scrollTop {
		m.scrollTop = top
	}
	m.scheduleTick()
}

func (m *Model) scheduleTick() {
	m.tracker.SetNoisyInput(m.noisy)
	m.tracker.Schedule(m.frame)
}

func (m *Model) frame() viewport.Frame {
	return viewport.Frame{
		ScrollTop:    m.scrollTop,
		WindowHeight: m.streamHeight(),
		HeaderOffset: m.header.Height(),
		Items:        m.stream.Items(),
		Obstructed:   m.status.StatusExpanded(),
		Noisy:        m.noisy,
	}
}

// Render paints one frame.
func (m *Model) Render() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	m.displayContext.Clear()
	m.ViewRect(m.displayContext, uv.Rect(0, 0, m.width, m.height))
	buf := uv.NewScreenBuffer(m.width, m.height)
	m.displayContext.Render(buf)
	return strings.ReplaceAll(buf.Render(), "\r", "")
}

func (m *Model) ViewRect(dl *render.DisplayContext, rect uv.Rectangle) {
	rows := layout.V(rect,
		layout.Fill(1),
		layout.Fixed(m.composer.Height()),
		layout.Fixed(1),
		layout.Fixed(1),
	)
	streamRect, composerRect, timelineRect, statusRect := rows[0], rows[1], rows[2], rows[3]

	lines := m.page.Window(m.scrollTop, streamRect.Dy())
	dl.AddLines(streamRect.Min.X, streamRect.Min.Y, streamRect.Dx(), streamRect.Dy(), lines, render.ZBase)
	dl.AddInteraction(streamRect, scrollMsg{}, render.InteractionScroll, render.ZBase)

	if h := m.header.Height(); h > 0 && m.header.Root() != nil {
		headerRect := layout.V(streamRect, layout.Fixed(h), layout.Fill(1))[0]
		dl.AddFill(headerRect, ' ', common.DefaultPalette.Get("title.compact"), render.ZHeader)
		m.paintTree(dl, m.header.Root(), headerRect)
	}

	m.composer.ViewRect(dl, composerRect)

	if m.timeline.Root() != nil {
		m.paintTree(dl, m.timeline.Root(), timelineRect)
		dl.AddInteraction(timelineRect, timelineClickMsg{}, render.InteractionClick, render.ZHeader)
	}

	m.status.ViewRect(dl, statusRect)
}

// paintTree lays out a small mounted tree straight into rect.
func (m *Model) paintTree(dl *render.DisplayContext, root *dom.Node, rect uv.Rectangle) {
	page := screen.Layout(root, rect.Dx(), common.DefaultPalette)
	dl.AddLines(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy(), page.Lines, render.ZHeader)
}

// Close stops timers and unmounts everything.
func (m *Model) Close() {
	m.tracker.Stop()
	m.stream.Close()
	m.header.Close()
	m.timeline.Close()
	if loop, ok := m.sched.(*schedule.Loop); ok {
		loop.Stop()
	}
}

func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	v.WindowTitle = m.windowTitle()
	if m.width == 0 || m.height == 0 {
		v.SetContent("Loading...")
		return v
	}
	v.SetContent(m.Render())
	return v
}

var _ tea.Model = (*wrapper)(nil)

type (
	frameTickMsg struct{}
	wrapper      struct {
		ui                 *Model
		scheduledNextFrame bool
		render             bool
		cachedFrame        string
	}
)

func (w *wrapper) Init() tea.Cmd {
	return w.ui.Init()
}

func (w *wrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(frameTickMsg); ok {
		w.render = true
		w.scheduledNextFrame = false
		return w, nil
	}
	cmd := w.ui.Update(msg)
	if !w.scheduledNextFrame {
		w.scheduledNextFrame = true
		return w, tea.Batch(cmd, tea.Tick(time.Millisecond*8, func(t time.Time) tea.Msg {
			return frameTickMsg{}
		}))
	}
	return w, cmd
}

func (w *wrapper) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	v.WindowTitle = w.ui.windowTitle()
	if w.render {
		w.cachedFrame = w.ui.Render()
		w.render = false
	}
	v.SetContent(w.cachedFrame)
	return v
}

// New returns the program model. The caller attaches the scheduler loop to
// the program before running it.
func New(ui *Model) tea.Model {
	return &wrapper{ui: ui}
}
