// Package timeline draws the reading progress bar: the current post out of
// the topic's posts, advanced by how far the reader is inside the post.
package timeline

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/idursun/threadview/internal/dirty"
	"github.com/idursun/threadview/internal/dom"
	"github.com/idursun/threadview/internal/mount"
	"github.com/idursun/threadview/internal/screen"
	"github.com/idursun/threadview/internal/topic"
	"github.com/idursun/threadview/internal/viewport"
	"github.com/idursun/threadview/internal/vtree"
)

const TreeName = "timeline"

type Args struct {
	Label string
	// Progress is the read fraction of the whole topic, in [0,1].
	Progress float64
	Width    int
}

type Timeline struct {
	mount    *mount.Mount
	topic    *topic.Topic
	current  int
	percent  float64
	width    int
	unlisten func()
}

func New(app *mount.App, tracker *viewport.Tracker, t *topic.Topic, opts ...mount.Option) *Timeline {
	tl := &Timeline{topic: t}
	if len(t.Posts) > 0 {
		tl.current = t.Posts[0].Number
	}
	app.RegisterTree(TreeName, buildTree)
	tl.mount = mount.New(app, TreeName, tl, opts...)
	tl.unlisten = tracker.Listen(viewport.Listener{
		CurrentPostChanged: func(it viewport.Item) {
			tl.current = it.PostNumber()
		},
		CurrentPostScrolled: func(it viewport.Item, percent float64) {
			tl.current, tl.percent = it.PostNumber(), percent
			tl.mount.MarkDirty("timeline", dirty.Options{})
		},
	})
	return tl
}

func (tl *Timeline) Mount() *mount.Mount { return tl.mount }

func (tl *Timeline) Root() *dom.Node { return tl.mount.Root() }

func (tl *Timeline) Current() int { return tl.current }

func (tl *Timeline) SetWidth(width int) {
	if width == tl.width {
		return
	}
	tl.width = width
	tl.mount.MarkDirty("timeline", dirty.Options{})
}

// Progress returns how much of the topic has been read.
func (tl *Timeline) Progress() float64 {
	n := len(tl.topic.Posts)
	idx := tl.topic.Index(tl.current)
	if n == 0 || idx < 0 {
		return 0
	}
	return (float64(idx) + tl.percent) / float64(n)
}

func (tl *Timeline) BuildArgs() any {
	return Args{
		Label:    fmt.Sprintf("%d / %d", tl.current, tl.topic.HighestPostNumber()),
		Progress: tl.Progress(),
		Width:    tl.width,
	}
}

func buildTree(p *mount.Pass) (*vtree.Node, error) {
	args, ok := p.Args.(Args)
	if !ok {
		return nil, fmt.Errorf("timeline: unexpected args %T", p.Args)
	}
	bar := max(args.Width-ansi.StringWidth(args.Label)-1, 0)
	filled := min(int(args.Progress*float64(bar)+0.5), bar)
	return vtree.Keyed("timeline", "div", vtree.Attrs{screen.AttrHeight: "1"},
		vtree.El("span", vtree.Attrs{screen.AttrStyle: "timeline.label"}, vtree.Text(args.Label)),
		vtree.Text(" "),
		vtree.El("span", vtree.Attrs{screen.AttrStyle: "timeline.fill"}, vtree.Text(strings.Repeat("━", filled))),
		vtree.El("span", vtree.Attrs{screen.AttrStyle: "timeline.bar"}, vtree.Text(strings.Repeat("─", bar-filled))),
	), nil
}

func (tl *Timeline) Close() {
	tl.unlisten()
	tl.mount.Unmount()
}
