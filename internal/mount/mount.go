// Package mount binds a component to a registered render-tree factory and
// keeps a live DOM in sync with it. Rerenders are coalesced through the
// scheduler and only the difference between consecutive trees is patched.
package mount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kr/pretty"

	"github.com/idursun/threadview/internal/dirty"
	"github.com/idursun/threadview/internal/dom"
	"github.com/idursun/threadview/internal/schedule"
	"github.com/idursun/threadview/internal/vtree"
)

var ErrNoFactory = errors.New("no factory registered")

// Component supplies the input of every render pass.
type Component interface {
	BuildArgs() any
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func() any

func (f ComponentFunc) BuildArgs() any { return f() }

// KeyTracker is the dirty-key bookkeeping a mount relies on. *dirty.Tracker
// implements it.
type KeyTracker interface {
	KeyDirty(key string, opts dirty.Options)
	ForceAll()
	RenderedKey(key string)
	Generation(key string) uint64
	Version() uint64
	Snapshot() dirty.Snapshot
}

// KeyFunc derives the dirty key from an event payload.
type KeyFunc func(payload any) string

// Key returns a KeyFunc that always yields k.
func Key(k string) KeyFunc {
	return func(any) string { return k }
}

// Pass is what a tree factory sees during one render pass.
type Pass struct {
	Args  any
	Dirty dirty.Snapshot
	Mount *Mount
}

type Option func(*Mount)

func WithLogger(l *slog.Logger) Option {
	return func(m *Mount) { m.log = l }
}

func WithTracker(t KeyTracker) Option {
	return func(m *Mount) { m.tracker = t }
}

// OnPatched registers fn to run after every successful patch, before the
// queued completion callbacks.
func OnPatched(fn func(root *dom.Node)) Option {
	return func(m *Mount) { m.onPatched = append(m.onPatched, fn) }
}

// Mount owns one live DOM tree and the render tree it was last patched from.
type Mount struct {
	id        string
	name      string
	app       *App
	component Component
	tracker   KeyTracker
	log       *slog.Logger
	factory   TreeFactory

	root *dom.Node
	prev *vtree.Node

	pending   schedule.Handle
	callbacks []func()
	args      any
	hasArgs   bool
	subs      []func()
	onPatched []func(*dom.Node)
	passes    int
	rebuild   bool
	unmounted bool
}

func New(app *App, name string, c Component, opts ...Option) *Mount {
	m := &Mount{
		id:        uuid.NewString(),
		name:      name,
		app:       app,
		component: c,
		tracker:   dirty.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = app.log
	}
	m.log = m.log.With("mount", name, "mount_id", m.id)
	return m
}

func (m *Mount) Name() string { return m.name }

// Root returns the live DOM. It is nil before the first successful pass.
func (m *Mount) Root() *dom.Node { return m.root }

// Tree returns the expanded render tree the DOM was last patched from.
func (m *Mount) Tree() *vtree.Node { return m.prev }

// Passes returns how many render passes completed successfully.
func (m *Mount) Passes() int { return m.passes }

// QueueRerender schedules a render pass. Calls made before the pass runs are
// folded into it; onComplete runs after the DOM has been patched.
func (m *Mount) QueueRerender(onComplete func()) {
	if m.unmounted {
		return
	}
	if onComplete != nil {
		m.callbacks = append(m.callbacks, onComplete)
	}
	if m.pending != 0 {
		return
	}
	m.pending = m.app.Scheduler.Schedule(0, m.runPass)
}

// QueueRerenderWith queues a pass that uses args instead of calling
// BuildArgs.
func (m *Mount) QueueRerenderWith(args any, onComplete func()) {
	if m.unmounted {
		return
	}
	m.args, m.hasArgs = args, true
	m.QueueRerender(onComplete)
}

// Dispatch subscribes the mount to an application event. Each delivery
// marks the key derived from the payload dirty and queues a rerender.
func (m *Mount) Dispatch(event string, key KeyFunc) {
	if m.unmounted {
		return
	}
	off := m.app.Bus.Subscribe(event, func(payload any) {
		m.EventDispatched(event, key(payload))
	})
	m.subs = append(m.subs, off)
}

// EventDispatched marks key dirty and queues a rerender. The key "*" marks
// everything dirty.
func (m *Mount) EventDispatched(event, key string) {
	if m.unmounted {
		return
	}
	m.log.Debug("event dispatched", "event", event, "key", key)
	m.MarkDirty(key, dirty.Options{})
}

// MarkDirty records key with a refresh action and queues a rerender.
func (m *Mount) MarkDirty(key string, opts dirty.Options) {
	if m.unmounted {
		return
	}
	if key == dirty.All {
		m.tracker.ForceAll()
	} else {
		m.tracker.KeyDirty(key, opts)
	}
	m.QueueRerender(nil)
}

// Trigger runs the handler for event bound to n, or to its nearest ancestor
// that has one. Handlers are looked up in the tree of the latest pass.
func (m *Mount) Trigger(n *dom.Node, event string, ev vtree.Event) bool {
	if m.prev == nil || n == nil {
		return false
	}
	path := dom.Path(n)
	for {
		if v := m.prev.At(path); v != nil {
			if h, ok := v.Events[event]; ok {
				h(ev)
				return true
			}
		}
		if len(path) == 0 {
			return false
		}
		path = path[:len(path)-1]
	}
}

// Unmount destroys every widget, removes event subscriptions and cancels
// the pending pass. It is safe to call more than once.
func (m *Mount) Unmount() {
	if m.unmounted {
		return
	}
	m.unmounted = true
	if m.pending != 0 {
		m.app.Scheduler.Cancel(m.pending)
		m.pending = 0
	}
	for _, off := range m.subs {
		off()
	}
	m.subs = nil
	dom.Release(m.root)
	destroyAll(m.prev)
	m.callbacks = nil
	m.log.Debug("unmounted")
}

func (m *Mount) runPass() {
	m.pending = 0
	callbacks := m.callbacks
	m.callbacks = nil
	if m.unmounted {
		return
	}

	snap := m.tracker.Snapshot()
	if err := m.render(snap); err != nil {
		m.log.Error("render pass skipped", "err", err)
		return
	}

	for _, k := range snap.Keys() {
		if m.tracker.Generation(k) == snap.Generation(k) {
			m.tracker.RenderedKey(k)
		}
	}
	if snap.AllDirty() && m.tracker.Version() == snap.Version() {
		m.tracker.RenderedKey(dirty.All)
	}

	for _, fn := range m.onPatched {
		fn(m.root)
	}
	for _, cb := range callbacks {
		cb()
	}
}

func (m *Mount) render(snap dirty.Snapshot) (err error) {
	x := &expansion{mount: m, snap: snap}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during render: %v", r)
		}
		if err != nil {
			x.abandon()
		}
	}()

	if m.factory == nil {
		f, ok := m.app.tree(m.name)
		if !ok {
			return fmt.Errorf("%w for tree %q", ErrNoFactory, m.name)
		}
		m.factory = f
	}

	snap.RunRefreshActions()

	args := m.args
	if m.hasArgs {
		m.args, m.hasArgs = nil, false
	} else if m.component != nil {
		args = m.component.BuildArgs()
	}

	tree, err := m.factory(&Pass{Args: args, Dirty: snap, Mount: m})
	if err != nil {
		return fmt.Errorf("build tree %q: %w", m.name, err)
	}
	if err := vtree.Validate(tree); err != nil {
		return err
	}

	base := m.prev
	if m.rebuild {
		base = nil
	}
	var old *vtree.Node
	if base != nil && tree != nil && vtree.Compatible(base, tree) {
		old = base
	}
	expanded := tree
	if tree != nil {
		expanded, err = x.expand(old, tree)
		if err != nil {
			return err
		}
	}

	ops := vtree.Diff(base, expanded)
	if m.rebuild && expanded == nil && m.root != nil {
		ops = []vtree.Op{{Kind: vtree.OpRemove, Root: true, Node: m.prev}}
	}
	if m.log.Enabled(context.Background(), slog.LevelDebug) && len(ops) > 0 {
		m.log.Debug("patching", "ops", len(ops), "dump", pretty.Sprint(opStrings(ops)))
	}

	root, perr := dom.Patch(m.root, ops)
	if perr != nil {
		// The live tree was left as it was but no longer matches the previous
		// render tree, so the next pass replaces it wholesale.
		m.rebuild = true
		m.tracker.ForceAll()
		return fmt.Errorf("patch %q: %w", m.name, perr)
	}
	m.root, m.prev = root, expanded
	m.rebuild = false
	m.passes++
	x.created = nil

	m.didRender()
	return nil
}

func (m *Mount) didRender() {
	dom.Walk(m.root, func(n *dom.Node) bool {
		inst, ok := n.Widget().(*instance)
		if !ok {
			return true
		}
		if d, ok := inst.w.(DidRenderer); ok {
			owned := n.Child(0)
			if owned == nil {
				owned = n
			}
			d.DidRender(owned)
		}
		return true
	})
}

func opStrings(ops []vtree.Op) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out
}
