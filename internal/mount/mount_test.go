package mount

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idursun/threadview/internal/dirty"
	"github.com/idursun/threadview/internal/dom"
	"github.com/idursun/threadview/internal/logger"
	"github.com/idursun/threadview/internal/schedule"
	"github.com/idursun/threadview/internal/vtree"
)

func init() {
	logger.UseWriter(io.Discard)
}

// spyScheduler records cancellations on top of a manual clock.
type spyScheduler struct {
	*schedule.Manual
	cancelled []schedule.Handle
}

func (s *spyScheduler) Cancel(h schedule.Handle) {
	s.cancelled = append(s.cancelled, h)
	s.Manual.Cancel(h)
}

// spyTracker counts RenderedKey calls per key.
type spyTracker struct {
	*dirty.Tracker
	rendered map[string]int
}

func (s *spyTracker) RenderedKey(key string) {
	s.rendered[key]++
	s.Tracker.RenderedKey(key)
}

type state struct {
	title string
	posts []string
}

func newApp() (*App, *spyScheduler) {
	s := &spyScheduler{Manual: schedule.NewManual()}
	return NewApp(s, nil), s
}

func postsTree(p *Pass) (*vtree.Node, error) {
	st := p.Args.(*state)
	var children []*vtree.Node
	for _, id := range st.posts {
		children = append(children, vtree.WidgetNode("post", id, id))
	}
	return vtree.El("section", nil,
		vtree.El("h1", nil, vtree.Text(st.title)),
		vtree.El("div", vtree.Attrs{"class": "posts"}, children...),
	), nil
}

// timerPost registers a ticker in its constructor and cancels it on Destroy.
type timerPost struct {
	id       string
	sched    schedule.Scheduler
	timer    schedule.Handle
	renders  int
	rerender int
	owned    *dom.Node
	destroys int
}

func (p *timerPost) Render() (*vtree.Node, error) {
	p.renders++
	return vtree.El("article", vtree.Attrs{"id": p.id}, vtree.Text("post "+p.id)), nil
}

func (p *timerPost) WillRerender(any)          { p.rerender++ }
func (p *timerPost) DidRender(root *dom.Node) { p.owned = root }

func (p *timerPost) Destroy() {
	p.destroys++
	p.sched.Cancel(p.timer)
}

func registerPosts(app *App, created map[string]*timerPost) {
	app.RegisterTree("stream", postsTree)
	app.RegisterWidget("post", func(ctx *WidgetContext, args any) (Widget, error) {
		p := &timerPost{id: args.(string), sched: ctx.App.Scheduler}
		p.timer = ctx.App.Scheduler.Schedule(time.Minute, func() {})
		created[p.id] = p
		return p, nil
	})
}

func TestMount_RendersAndPatches(t *testing.T) {
	app, sched := newApp()
	app.RegisterTree("header", func(p *Pass) (*vtree.Node, error) {
		return vtree.El("header", nil, vtree.Text(p.Args.(*state).title)), nil
	})
	st := &state{title: "Hello"}
	m := New(app, "header", ComponentFunc(func() any { return st }))

	m.QueueRerender(nil)
	assert.Nil(t, m.Root(), "render must not happen synchronously")
	sched.Flush()
	require.NotNil(t, m.Root())
	assert.Equal(t, "Hello", dom.TextContent(m.Root()))
	root := m.Root()

	st.title = "World"
	done := false
	m.QueueRerender(func() { done = true })
	sched.Flush()
	assert.True(t, done)
	assert.Same(t, root, m.Root())
	assert.Equal(t, "World", dom.TextContent(m.Root()))
	assert.Equal(t, 2, m.Passes())
}

func TestMount_QueueRerenderCoalesces(t *testing.T) {
	app, sched := newApp()
	builds := 0
	app.RegisterTree("t", func(p *Pass) (*vtree.Node, error) {
		return vtree.El("div", nil), nil
	})
	m := New(app, "t", ComponentFunc(func() any { builds++; return nil }))

	var order []int
	for i := 0; i < 5; i++ {
		m.QueueRerender(func() { order = append(order, i) })
	}
	assert.Equal(t, 1, sched.Pending())
	sched.Flush()
	assert.Equal(t, 1, builds)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestMount_QueueRerenderWithSkipsBuildArgs(t *testing.T) {
	app, sched := newApp()
	var seen []any
	app.RegisterTree("t", func(p *Pass) (*vtree.Node, error) {
		seen = append(seen, p.Args)
		return vtree.El("div", nil), nil
	})
	m := New(app, "t", ComponentFunc(func() any { return "built" }))

	m.QueueRerenderWith("precomputed", nil)
	sched.Flush()
	m.QueueRerender(nil)
	sched.Flush()
	assert.Equal(t, []any{"precomputed", "built"}, seen)
}

// Removing a widget that owns a timer cancels the timer during the patch.
func TestMount_RemovedWidgetTimerIsCancelled(t *testing.T) {
	app, sched := newApp()
	created := map[string]*timerPost{}
	registerPosts(app, created)
	st := &state{posts: []string{"1", "2", "3"}}
	m := New(app, "stream", ComponentFunc(func() any { return st }))

	m.QueueRerender(nil)
	sched.Flush()
	require.Len(t, created, 3)
	two := created["2"]
	assert.Equal(t, "2", two.owned.Attr("id"))

	st.posts = []string{"1", "3"}
	m.QueueRerender(nil)
	sched.Flush()

	assert.Contains(t, sched.cancelled, two.timer)
	assert.Equal(t, 1, two.destroys)
	assert.Equal(t, 0, created["1"].destroys)
	assert.Equal(t, 1, created["1"].renders, "unchanged widget reuses its output")
	assert.Len(t, created, 3, "surviving widgets keep their instance")
}

// Two dispatches of the same key before the pass make one pass and clear the
// key once.
func TestMount_DispatchCoalescesIntoOnePass(t *testing.T) {
	app, sched := newApp()
	tracker := &spyTracker{Tracker: dirty.New(), rendered: map[string]int{}}
	builds := 0
	var dirtyKeys []string
	app.RegisterTree("t", func(p *Pass) (*vtree.Node, error) {
		builds++
		dirtyKeys = p.Dirty.Keys()
		return vtree.El("div", nil), nil
	})
	m := New(app, "t", nil, WithTracker(tracker))
	m.Dispatch("post:refresh", func(payload any) string { return fmt.Sprintf("post-%d", payload) })

	app.Bus.Trigger("post:refresh", 42)
	app.Bus.Trigger("post:refresh", 42)
	sched.Flush()

	assert.Equal(t, 1, builds)
	assert.Equal(t, []string{"post-42"}, dirtyKeys)
	assert.Equal(t, 1, tracker.rendered["post-42"])
	assert.False(t, tracker.IsDirty("post-42"))
}

func TestMount_WildcardEventForcesAll(t *testing.T) {
	app, sched := newApp()
	app.RegisterTree("t", func(p *Pass) (*vtree.Node, error) {
		assert.True(t, p.Dirty.IsDirty("anything"))
		return vtree.El("div", nil), nil
	})
	tracker := &spyTracker{Tracker: dirty.New(), rendered: map[string]int{}}
	m := New(app, "t", nil, WithTracker(tracker))
	m.Dispatch("composer:opened", Key(dirty.All))
	app.Bus.Trigger("composer:opened", nil)
	sched.Flush()
	assert.Equal(t, 1, tracker.rendered[dirty.All])
	assert.False(t, tracker.AllDirty())
}

func TestMount_KeyDirtiedDuringPassStaysDirty(t *testing.T) {
	app, sched := newApp()
	tracker := dirty.New()
	var m *Mount
	passes := 0
	app.RegisterTree("t", func(p *Pass) (*vtree.Node, error) {
		passes++
		if passes == 1 {
			tracker.KeyDirty("k", dirty.Options{})
		}
		return vtree.El("div", nil), nil
	})
	m = New(app, "t", nil, WithTracker(tracker))
	m.MarkDirty("k", dirty.Options{})
	sched.Flush()
	assert.True(t, tracker.IsDirty("k"))
	m.QueueRerender(nil)
	sched.Flush()
	assert.False(t, tracker.IsDirty("k"))
}

func TestMount_RefreshActionsRunBeforeBuild(t *testing.T) {
	app, sched := newApp()
	var order []string
	app.RegisterTree("t", func(p *Pass) (*vtree.Node, error) {
		order = append(order, "build")
		return vtree.El("div", nil), nil
	})
	m := New(app, "t", nil)
	m.MarkDirty("post-1", dirty.Options{
		OnRefresh:  func(arg any) { order = append(order, arg.(string)) },
		RefreshArg: "refresh post-1",
	})
	sched.Flush()
	assert.Equal(t, []string{"refresh post-1", "build"}, order)
}

func TestMount_FailSoft(t *testing.T) {
	tests := []struct {
		name    string
		factory TreeFactory
	}{
		{name: "missing factory"},
		{name: "factory error", factory: func(*Pass) (*vtree.Node, error) { return nil, errors.New("boom") }},
		{name: "factory panic", factory: func(*Pass) (*vtree.Node, error) { panic("kaboom") }},
		{name: "duplicate keys", factory: func(*Pass) (*vtree.Node, error) {
			return vtree.El("ul", nil, vtree.Keyed("a", "li", nil), vtree.Keyed("a", "li", nil)), nil
		}},
		{name: "unknown widget", factory: func(*Pass) (*vtree.Node, error) {
			return vtree.El("div", nil, vtree.WidgetNode("nope", "x", nil)), nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, sched := newApp()
			app.RegisterTree("t", func(p *Pass) (*vtree.Node, error) {
				return vtree.El("div", nil, vtree.Text("ok")), nil
			})
			m := New(app, "t", nil)
			m.QueueRerender(nil)
			sched.Flush()
			root := m.Root()
			require.NotNil(t, root)

			app.ResetForTesting()
			if tt.factory != nil {
				app.RegisterTree("t", tt.factory)
			}
			// A fresh mount resolves the factory again.
			broken := New(app, "t", nil)
			called := false
			broken.QueueRerender(func() { called = true })
			assert.NotPanics(t, func() { sched.Flush() })
			assert.Nil(t, broken.Root())
			assert.False(t, called)
			assert.Equal(t, 0, broken.Passes())

			// The first mount has already resolved its factory and keeps
			// rendering.
			m.QueueRerender(nil)
			sched.Flush()
			assert.Same(t, root, m.Root())
			assert.Equal(t, 2, m.Passes())
		})
	}
}

func TestMount_FactoryResolvedWhileMissing(t *testing.T) {
	app, sched := newApp()
	m := New(app, "late", nil)
	m.QueueRerender(nil)
	sched.Flush()
	assert.Nil(t, m.Root())

	app.RegisterTree("late", func(*Pass) (*vtree.Node, error) { return vtree.El("div", nil), nil })
	m.QueueRerender(nil)
	sched.Flush()
	assert.NotNil(t, m.Root())
}

func TestMount_FailedWidgetLeavesDOMAndDestroysNewInstances(t *testing.T) {
	app, sched := newApp()
	created := map[string]*timerPost{}
	registerPosts(app, created)
	app.RegisterWidget("broken", func(*WidgetContext, any) (Widget, error) {
		return nil, errors.New("no data")
	})
	fail := false
	app.RegisterTree("stream", func(p *Pass) (*vtree.Node, error) {
		tree, _ := postsTree(p)
		if fail {
			tree = vtree.El("section", nil,
				vtree.WidgetNode("post", "new", "new"),
				vtree.WidgetNode("broken", "b", nil),
			)
		}
		return tree, nil
	})
	st := &state{posts: []string{"1"}}
	m := New(app, "stream", ComponentFunc(func() any { return st }))
	m.QueueRerender(nil)
	sched.Flush()
	root := m.Root()

	fail = true
	m.QueueRerender(nil)
	sched.Flush()
	assert.Same(t, root, m.Root())
	require.Contains(t, created, "new")
	assert.Equal(t, 1, created["new"].destroys)
	assert.Equal(t, 0, created["1"].destroys)
}

func TestMount_FailedPatchKeepsDOMThenRebuilds(t *testing.T) {
	app, sched := newApp()
	created := map[string]*timerPost{}
	registerPosts(app, created)
	st := &state{title: "draft", posts: []string{"1"}}
	m := New(app, "stream", ComponentFunc(func() any { return st }))
	m.QueueRerender(nil)
	sched.Flush()
	root := m.Root()
	one := created["1"]

	// Drop the heading behind the mount's back so its next diff cannot apply.
	_, err := dom.Patch(root, []vtree.Op{{Kind: vtree.OpRemove, Index: 0}})
	require.NoError(t, err)

	st.title, st.posts = "final", []string{"1", "2"}
	m.QueueRerender(nil)
	sched.Flush()
	assert.Same(t, root, m.Root())
	require.Len(t, root.Children(), 1)
	assert.Len(t, root.Child(0).Children(), 1, "no post was inserted")
	require.Contains(t, created, "2")
	assert.Equal(t, 1, created["2"].destroys)
	assert.Equal(t, 0, one.destroys)

	m.QueueRerender(nil)
	sched.Flush()
	assert.NotSame(t, root, m.Root())
	assert.Equal(t, "final", dom.TextContent(m.Root().Child(0)))
	assert.NotNil(t, dom.FindKey(m.Root(), "2"))
	assert.Equal(t, 1, one.destroys)
	assert.NotSame(t, one, created["1"])
	assert.Equal(t, 0, created["1"].destroys)
}

func TestMount_UnmountIsIdempotent(t *testing.T) {
	app, sched := newApp()
	created := map[string]*timerPost{}
	registerPosts(app, created)
	st := &state{posts: []string{"1", "2"}}
	m := New(app, "stream", ComponentFunc(func() any { return st }))
	m.Dispatch("post:posted", Key(dirty.All))
	m.QueueRerender(nil)
	sched.Flush()

	m.QueueRerender(nil)
	require.Equal(t, 3, sched.Pending(), "two post timers and the pass")

	m.Unmount()
	m.Unmount()
	assert.Equal(t, 1, created["1"].destroys)
	assert.Equal(t, 1, created["2"].destroys)
	assert.Equal(t, 0, app.Bus.Subscribers("post:posted"))
	assert.Equal(t, 0, sched.Pending())

	m.QueueRerender(nil)
	app.Bus.Trigger("post:posted", nil)
	assert.Equal(t, 0, sched.Pending())
}

func TestMount_WidgetInvalidateRerendersOnlyThatWidget(t *testing.T) {
	app, sched := newApp()
	ctxs := map[string]*WidgetContext{}
	created := map[string]*timerPost{}
	app.RegisterTree("stream", postsTree)
	app.RegisterWidget("post", func(ctx *WidgetContext, args any) (Widget, error) {
		p := &timerPost{id: args.(string), sched: ctx.App.Scheduler}
		ctxs[p.id] = ctx
		created[p.id] = p
		return p, nil
	})
	st := &state{posts: []string{"1", "2"}}
	m := New(app, "stream", ComponentFunc(func() any { return st }))
	m.QueueRerender(nil)
	sched.Flush()

	ctxs["2"].Invalidate()
	sched.Flush()
	assert.Equal(t, 1, created["1"].renders)
	assert.Equal(t, 2, created["2"].renders)
	assert.Equal(t, 1, created["2"].rerender)
	assert.Equal(t, 2, m.Passes())
}

func TestMount_TriggerResolvesHandlersFromLatestTree(t *testing.T) {
	app, sched := newApp()
	label := "first"
	var got []string
	app.RegisterTree("t", func(p *Pass) (*vtree.Node, error) {
		l := label
		return vtree.El("div", nil,
			vtree.El("button", nil, vtree.Text("reply")).On("click", func(vtree.Event) { got = append(got, l) }),
		), nil
	})
	m := New(app, "t", nil)
	m.QueueRerender(nil)
	sched.Flush()
	button := m.Root().Child(0)

	label = "second"
	m.QueueRerender(nil)
	sched.Flush()

	assert.True(t, m.Trigger(button.Child(0), "click", nil))
	assert.Equal(t, []string{"second"}, got)
	assert.False(t, m.Trigger(button, "hover", nil))
}

func TestMount_OnPatchedRunsBeforeCallbacks(t *testing.T) {
	app, sched := newApp()
	app.RegisterTree("t", func(*Pass) (*vtree.Node, error) { return vtree.El("div", nil), nil })
	var order []string
	m := New(app, "t", nil, OnPatched(func(root *dom.Node) {
		require.NotNil(t, root)
		order = append(order, "patched")
	}))
	m.QueueRerender(func() { order = append(order, "done") })
	sched.Flush()
	assert.Equal(t, []string{"patched", "done"}, order)
}

func TestWidgetOf(t *testing.T) {
	app, sched := newApp()
	created := map[string]*timerPost{}
	registerPosts(app, created)
	st := &state{posts: []string{"7"}}
	m := New(app, "stream", ComponentFunc(func() any { return st }))
	m.QueueRerender(nil)
	sched.Flush()

	n := dom.FindKey(m.Root(), "7")
	w, ok := WidgetOf(n)
	require.True(t, ok)
	assert.Same(t, created["7"], w)
	_, ok = WidgetOf(m.Root())
	assert.False(t, ok)
}
