// Package header is the topic title bar. It stays empty while the first
// post is on screen and shows the compact title once it scrolls away.
package header

import (
	"fmt"

	"github.com/idursun/threadview/internal/dirty"
	"github.com/idursun/threadview/internal/dom"
	"github.com/idursun/threadview/internal/mount"
	"github.com/idursun/threadview/internal/screen"
	"github.com/idursun/threadview/internal/topic"
	"github.com/idursun/threadview/internal/viewport"
	"github.com/idursun/threadview/internal/vtree"
)

const TreeName = "header"

type Args struct {
	Title    string
	Category string
	Compact  bool
}

type Header struct {
	mount    *mount.Mount
	topic    *topic.Topic
	compact  bool
	unlisten func()
}

func New(app *mount.App, tracker *viewport.Tracker, t *topic.Topic, opts ...mount.Option) *Header {
	h := &Header{topic: t}
	app.RegisterTree(TreeName, buildTree)
	h.mount = mount.New(app, TreeName, h, opts...)
	h.unlisten = tracker.Listen(viewport.Listener{
		TopVisibleChanged: h.onTopVisible,
	})
	return h
}

func (h *Header) Mount() *mount.Mount { return h.mount }

func (h *Header) Compact() bool { return h.compact }

// Height is the number of screen rows the header covers.
func (h *Header) Height() int {
	if !h.compact {
		return 0
	}
	return 1
}

func (h *Header) BuildArgs() any {
	return Args{Title: h.topic.Title, Category: h.topic.Category, Compact: h.compact}
}

func (h *Header) onTopVisible(c viewport.VisibleChange) {
	first := 0
	if len(h.topic.Posts) > 0 {
		first = h.topic.Posts[0].Number
	}
	compact := c.Item.PostNumber() > first
	if compact == h.compact {
		return
	}
	h.compact = compact
	h.mount.MarkDirty("title", dirty.Options{})
}

func buildTree(p *mount.Pass) (*vtree.Node, error) {
	args, ok := p.Args.(Args)
	if !ok {
		return nil, fmt.Errorf("header: unexpected args %T", p.Args)
	}
	if !args.Compact {
		return vtree.Keyed("title", "div", vtree.Attrs{screen.AttrHeight: "0"}), nil
	}
	children := []*vtree.Node{vtree.Text(args.Title)}
	if args.Category != "" {
		children = append(children, vtree.Text(" · "+args.Category))
	}
	return vtree.Keyed("title", "div", vtree.Attrs{
		screen.AttrStyle:  "title.compact",
		screen.AttrHeight: "1",
	}, children...), nil
}

// Root returns the mounted title node.
func (h *Header) Root() *dom.Node { return h.mount.Root() }

func (h *Header) Close() {
	h.unlisten()
	h.mount.Unmount()
}
