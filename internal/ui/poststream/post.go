package poststream

import (
	"fmt"
	"strconv"

	"github.com/idursun/threadview/internal/content"
	"github.com/idursun/threadview/internal/dom"
	"github.com/idursun/threadview/internal/mount"
	"github.com/idursun/threadview/internal/schedule"
	"github.com/idursun/threadview/internal/screen"
	"github.com/idursun/threadview/internal/topic"
	"github.com/idursun/threadview/internal/vtree"
)

// PostArgs is what the stream passes to each post widget.
type PostArgs struct {
	Post    topic.Post
	Cloaked bool
	Current bool
	// Read is set for posts read in an earlier session or further up.
	Read bool
}

var (
	_ mount.Widget         = (*postWidget)(nil)
	_ mount.WillRerenderer = (*postWidget)(nil)
	_ mount.DidRenderer    = (*postWidget)(nil)
)

type postWidget struct {
	ctx  *mount.WidgetContext
	cfg  Config
	args PostArgs

	// height of the full rendering, measured before cloaking
	height int
	node   *dom.Node
	ticker schedule.Handle
	date   string
}

func newPostWidget(cfg Config) mount.WidgetFactory {
	return func(ctx *mount.WidgetContext, args any) (mount.Widget, error) {
		pa, ok := args.(PostArgs)
		if !ok {
			return nil, fmt.Errorf("post widget: unexpected args %T", args)
		}
		w := &postWidget{ctx: ctx, cfg: cfg, args: pa}
		w.scheduleTick()
		return w, nil
	}
}

func (w *postWidget) scheduleTick() {
	if w.cfg.RelativeDatesInterval <= 0 {
		return
	}
	w.ticker = w.ctx.App.Scheduler.Schedule(w.cfg.RelativeDatesInterval, w.tick)
}

// tick rerenders the post when its relative date label went stale.
func (w *postWidget) tick() {
	w.ticker = 0
	if !w.args.Cloaked && relativeDate(w.args.Post.CreatedAt, w.cfg.now()) != w.date {
		w.ctx.Invalidate()
	}
	w.scheduleTick()
}

func (w *postWidget) WillRerender(args any) {
	pa, ok := args.(PostArgs)
	if !ok {
		return
	}
	if pa.Cloaked && !w.args.Cloaked {
		w.measure()
	}
	w.args = pa
}

func (w *postWidget) measure() {
	if w.node == nil || w.node.Destroyed() {
		return
	}
	if _, h, ok := w.node.Box(); ok && h > 0 {
		w.height = h
	}
}

func (w *postWidget) DidRender(root *dom.Node) {
	w.node = root
}

func (w *postWidget) Destroy() {
	if w.ticker != 0 {
		w.ctx.App.Scheduler.Cancel(w.ticker)
		w.ticker = 0
	}
	w.node = nil
}

func (w *postWidget) Render() (*vtree.Node, error) {
	p := w.args.Post
	if w.args.Cloaked {
		h := w.height
		if h <= 0 {
			h = w.cfg.CloakedHeight
		}
		return vtree.El("article", vtree.Attrs{
			screen.AttrStyle:  "post.cloaked",
			screen.AttrHeight: strconv.Itoa(max(h, 1)),
		}, vtree.Text(fmt.Sprintf("#%d %s", p.Number, p.Author))), nil
	}

	w.date = relativeDate(p.CreatedAt, w.cfg.now())
	numberStyle := "post.number"
	switch {
	case w.args.Current:
		numberStyle = "post.current"
	case w.args.Read:
		numberStyle = "post.read"
	}
	header := []*vtree.Node{
		vtree.El("span", vtree.Attrs{screen.AttrStyle: numberStyle}, vtree.Text(fmt.Sprintf("#%d", p.Number))),
		vtree.Text(" "),
		vtree.El("span", vtree.Attrs{screen.AttrStyle: "post.author"}, vtree.Text(p.Author)),
		vtree.Text(" "),
		vtree.El("span", vtree.Attrs{screen.AttrStyle: "post.date"}, vtree.Text(w.date)),
	}
	if p.ReplyTo > 0 {
		header = append(header,
			vtree.El("span", vtree.Attrs{screen.AttrStyle: "post.date"}, vtree.Text(fmt.Sprintf(" ↩ #%d", p.ReplyTo))))
	}
	return vtree.El("article", vtree.Attrs{screen.AttrMarginBottom: "1"},
		vtree.Keyed("header", "div", nil, header...),
		vtree.Keyed("body", "div", vtree.Attrs{screen.AttrStyle: "post.body", screen.AttrIndent: "2"},
			content.Render(p.Body)...),
	), nil
}
