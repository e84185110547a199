// Package poststream renders the posts of a topic as one mount: a post
// widget per loaded post, cloaked to a placeholder when the viewport tracker
// says it is far from the screen.
package poststream

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/idursun/threadview/internal/dirty"
	"github.com/idursun/threadview/internal/dom"
	"github.com/idursun/threadview/internal/logger"
	"github.com/idursun/threadview/internal/mount"
	"github.com/idursun/threadview/internal/screen"
	"github.com/idursun/threadview/internal/topic"
	"github.com/idursun/threadview/internal/viewport"
	"github.com/idursun/threadview/internal/vtree"
)

const (
	TreeName   = "post-stream"
	PostWidget = "post"

	// chunkSize is how many posts are loaded at a time.
	chunkSize = 20
)

// Events the stream listens to.
const (
	EventRefresh         = "post:refresh"
	EventPosted          = "post:posted"
	EventComposerOpened  = "composer:opened"
	EventComposerResized = "composer:resized"
	EventComposerClosed  = "composer:closed"
)

type Config struct {
	RelativeDatesInterval time.Duration
	// CloakedHeight is the placeholder height of a post that was never
	// measured.
	CloakedHeight int
	Now           func() time.Time
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Args is the input of one render pass.
type Args struct {
	Title    string
	Category string
	Posts    []PostArgs
	// More is the number of posts not loaded yet.
	More     int
	Composer int
}

type Option func(*Stream)

// WithReload sets how a post is fetched again on "post:refresh".
func WithReload(fn func(number int) (topic.Post, error)) Option {
	return func(s *Stream) { s.reload = fn }
}

// OnPatched runs fn after every patch of the stream's DOM.
func OnPatched(fn func(root *dom.Node)) Option {
	return func(s *Stream) { s.mountOpts = append(s.mountOpts, mount.OnPatched(fn)) }
}

// WithReadState marks posts for which isRead reports true.
func WithReadState(isRead func(number int) bool) Option {
	return func(s *Stream) { s.isRead = isRead }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) { s.log = l }
}

type Stream struct {
	mount     *mount.Mount
	tracker   *viewport.Tracker
	topic     *topic.Topic
	log       *slog.Logger
	reload    func(number int) (topic.Post, error)
	isRead    func(number int) bool
	mountOpts []mount.Option

	loaded   int
	current  int
	composer int
	lastTop  viewport.VisibleChange
	offs     []func()
}

// New registers the stream's tree and widget on app and mounts it. Nothing
// is rendered until the first QueueRerender.
func New(app *mount.App, tracker *viewport.Tracker, t *topic.Topic, cfg Config, opts ...Option) *Stream {
	s := &Stream{
		tracker: tracker,
		topic:   t,
		loaded:  min(chunkSize, len(t.Posts)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.ComponentLogger("poststream")
	}

	app.RegisterTree(TreeName, buildTree)
	app.RegisterWidget(PostWidget, newPostWidget(cfg))
	s.mount = mount.New(app, TreeName, s, append(s.mountOpts, mount.WithLogger(s.log))...)

	s.offs = append(s.offs,
		app.Bus.Subscribe(EventRefresh, s.onRefresh),
		app.Bus.Subscribe(EventPosted, s.onPosted),
		app.Bus.Subscribe(EventComposerOpened, s.onComposer),
		app.Bus.Subscribe(EventComposerResized, s.onComposer),
		app.Bus.Subscribe(EventComposerClosed, func(any) { s.composer = 0 }),
		tracker.Listen(viewport.Listener{
			TopVisibleChanged:    func(c viewport.VisibleChange) { s.lastTop = c },
			BottomVisibleChanged: s.onBottomVisible,
			CurrentPostChanged:   s.onCurrentPost,
			Cloak:                s.onCloak,
		}),
	)
	s.mount.Dispatch(EventPosted, mount.Key("stream"))
	for _, e := range []string{EventComposerOpened, EventComposerResized, EventComposerClosed} {
		s.mount.Dispatch(e, mount.Key("composer"))
	}
	return s
}

func (s *Stream) Mount() *mount.Mount { return s.mount }

// Loaded returns how many posts from the start of the topic are rendered.
func (s *Stream) Loaded() int { return s.loaded }

// Current returns the number of the post under the read line.
func (s *Stream) Current() int { return s.current }

func (s *Stream) BuildArgs() any {
	posts := make([]PostArgs, s.loaded)
	for i, p := range s.topic.Posts[:s.loaded] {
		posts[i] = PostArgs{
			Post:    p,
			Cloaked: s.tracker.Cloaked(p.ID()),
			Current: p.Number == s.current,
			Read:    s.isRead != nil && s.isRead(p.Number),
		}
	}
	return Args{
		Title:    s.topic.Title,
		Category: s.topic.Category,
		Posts:    posts,
		More:     len(s.topic.Posts) - s.loaded,
		Composer: s.composer,
	}
}

func buildTree(p *mount.Pass) (*vtree.Node, error) {
	args, ok := p.Args.(Args)
	if !ok {
		return nil, fmt.Errorf("post stream: unexpected args %T", p.Args)
	}
	title := []*vtree.Node{vtree.Text(args.Title)}
	if args.Category != "" {
		title = append(title, vtree.El("span", vtree.Attrs{screen.AttrStyle: "post.date"}, vtree.Text("  "+args.Category)))
	}
	children := []*vtree.Node{
		vtree.Keyed("title", "div", vtree.Attrs{screen.AttrStyle: "title", screen.AttrMarginBottom: "1"}, title...),
	}
	for _, pa := range args.Posts {
		children = append(children, vtree.WidgetNode(PostWidget, pa.Post.ID(), pa))
	}
	if args.More > 0 {
		children = append(children, vtree.Keyed("more", "div", vtree.Attrs{screen.AttrStyle: "post.cloaked"},
			vtree.Text(fmt.Sprintf("%d more posts…", args.More))))
	}
	if args.Composer > 0 {
		children = append(children, vtree.Keyed("composer", "div", vtree.Attrs{
			screen.AttrHeight: fmt.Sprint(args.Composer),
		}))
	}
	return vtree.Keyed("stream", "div", nil, children...), nil
}

// Items returns the mounted posts in stream order.
func (s *Stream) Items() []viewport.Item {
	root := s.mount.Root()
	if root == nil {
		return nil
	}
	var items []viewport.Item
	for _, c := range root.Children() {
		w, ok := mount.WidgetOf(c)
		if !ok {
			continue
		}
		if pw, ok := w.(*postWidget); ok {
			items = append(items, &item{post: pw.args.Post, node: c})
		}
	}
	return items
}

// PostNode returns the DOM node of a mounted post.
func (s *Stream) PostNode(number int) *dom.Node {
	return dom.FindKey(s.mount.Root(), topic.Post{Number: number}.ID())
}

// LoadMore renders the next chunk of posts.
func (s *Stream) LoadMore() {
	if s.loaded >= len(s.topic.Posts) {
		return
	}
	s.loaded = min(s.loaded+chunkSize, len(s.topic.Posts))
	s.log.Debug("loading posts", "loaded", s.loaded)
	s.mount.MarkDirty("stream", dirty.Options{})
}

// Reveal loads every post up to number and calls done once it is in the
// DOM.
func (s *Stream) Reveal(number int, done func()) error {
	idx := s.topic.Index(number)
	if idx < 0 {
		return fmt.Errorf("%w %d", topic.ErrUnknownPost, number)
	}
	if idx >= s.loaded {
		s.loaded = min((idx/chunkSize+1)*chunkSize, len(s.topic.Posts))
		s.mount.MarkDirty("stream", dirty.Options{})
	}
	s.mount.QueueRerender(done)
	return nil
}

func (s *Stream) onRefresh(payload any) {
	number, ok := payload.(int)
	if !ok {
		s.log.Warn("ignoring refresh", "payload", payload)
		return
	}
	p, ok := s.topic.Post(number)
	if !ok {
		return
	}
	s.mount.MarkDirty(p.ID(), dirty.Options{OnRefresh: s.refreshPost, RefreshArg: number})
}

// refreshPost runs at the start of the pass that renders the post again.
func (s *Stream) refreshPost(arg any) {
	number := arg.(int)
	if s.reload == nil {
		return
	}
	p, err := s.reload(number)
	if err != nil {
		s.log.Error("refresh failed", "post", number, "err", err)
		return
	}
	if err := s.topic.Replace(p); err != nil {
		s.log.Error("refresh failed", "post", number, "err", err)
	}
}

func (s *Stream) onPosted(payload any) {
	p, ok := payload.(topic.Post)
	if !ok {
		return
	}
	// A reader who had the whole topic loaded sees the new post right away.
	if s.loaded == len(s.topic.Posts)-1 {
		s.loaded++
	}
	s.log.Debug("post added", "post", p.Number, "loaded", s.loaded)
}

func (s *Stream) onComposer(payload any) {
	if h, ok := payload.(int); ok {
		s.composer = max(h, 0)
	}
}

func (s *Stream) onBottomVisible(c viewport.VisibleChange) {
	if s.loaded == 0 || s.loaded >= len(s.topic.Posts) {
		return
	}
	if c.Item.PostNumber() >= s.topic.Posts[s.loaded-1].Number {
		s.LoadMore()
	}
}

func (s *Stream) onCurrentPost(it viewport.Item) {
	previous := s.current
	s.current = it.PostNumber()
	if previous != 0 {
		s.mount.MarkDirty(topic.Post{Number: previous}.ID(), dirty.Options{})
	}
	s.mount.MarkDirty(it.ID(), dirty.Options{})
}

// onCloak rerenders the posts that changed state and then puts the top post
// back where the reader saw it.
func (s *Stream) onCloak(cloak, uncloak []viewport.Item) {
	for _, it := range cloak {
		s.mount.MarkDirty(it.ID(), dirty.Options{})
	}
	for _, it := range uncloak {
		s.mount.MarkDirty(it.ID(), dirty.Options{})
	}
	s.mount.QueueRerender(func() {
		if s.lastTop.Refresh != nil {
			s.lastTop.Refresh()
		}
	})
}

// Close unmounts the stream and drops its subscriptions.
func (s *Stream) Close() {
	for _, off := range s.offs {
		off()
	}
	s.offs = nil
	s.mount.Unmount()
}
