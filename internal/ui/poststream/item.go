package poststream

import (
	"errors"

	"github.com/idursun/threadview/internal/dom"
	"github.com/idursun/threadview/internal/topic"
	"github.com/idursun/threadview/internal/viewport"
)

var (
	ErrDetached   = errors.New("post is no longer in the stream")
	ErrNotLaidOut = errors.New("post has not been laid out")
)

// item exposes a mounted post to the viewport tracker.
type item struct {
	post topic.Post
	node *dom.Node
}

var _ viewport.Item = (*item)(nil)

func (i *item) ID() string      { return i.post.ID() }
func (i *item) PostNumber() int { return i.post.Number }

func (i *item) Bounds() (int, int, error) {
	if i.node.Destroyed() {
		return 0, 0, ErrDetached
	}
	top, height, ok := i.node.Box()
	if !ok {
		return 0, 0, ErrNotLaidOut
	}
	return top, height, nil
}
