// Package viewport decides, on every scroll or resize tick, which list items
// are onscreen, which are near enough to stay fully rendered, and where the
// reader is inside the current item.
package viewport

import (
	"log/slog"
	"slices"
	"time"

	"github.com/idursun/threadview/internal/logger"
	"github.com/idursun/threadview/internal/schedule"
)

// Item is one rendered list entry. Bounds are in document lines; an error
// means the item could not be measured this tick.
type Item interface {
	ID() string
	PostNumber() int
	Bounds() (top, height int, err error)
}

// Frame is the input of one tick.
type Frame struct {
	ScrollTop    int
	WindowHeight int
	// HeaderOffset is the height of the chrome covering the top of the
	// window.
	HeaderOffset int
	Items        []Item
	// Obstructed is set when something covers the viewport (a fullscreen
	// pane); the tick is ignored.
	Obstructed bool
	// Noisy marks input that produces bursts of scroll events.
	Noisy bool
}

// Range is an inclusive index range; Low is -1 when empty.
type Range struct {
	Low, High int
}

var emptyRange = Range{Low: -1, High: -1}

func (r Range) Empty() bool { return r.Low < 0 }

func (r Range) Contains(i int) bool { return !r.Empty() && i >= r.Low && i <= r.High }

func (r *Range) add(i int) {
	if r.Low < 0 || i < r.Low {
		r.Low = i
	}
	if i > r.High {
		r.High = i
	}
}

// Result is the window computed by a tick.
type Result struct {
	Onscreen       Range
	Nearby         Range
	Current        int
	CurrentPercent float64
	Cloak          []Item
	Uncloak        []Item
	Skipped        bool
}

// Scroller reads and restores the scroll offset of the host.
type Scroller interface {
	ScrollTop() int
	ScrollTo(top int)
}

// ScreenTrack receives the post numbers on screen and the ones read in full.
type ScreenTrack interface {
	SetOnscreen(postNumbers, readPostNumbers []int)
}

type Config struct {
	// SlackMultiplier sizes the nearby window: slack = multiplier × window
	// height on both sides of the visible window.
	SlackMultiplier       float64
	DebounceInterval      time.Duration
	TouchDebounceInterval time.Duration
	// ReadLineOffset is the distance of the read line below the header.
	ReadLineOffset int
}

func DefaultConfig() Config {
	return Config{
		SlackMultiplier:       2,
		DebounceInterval:      50 * time.Millisecond,
		TouchDebounceInterval: 150 * time.Millisecond,
		ReadLineOffset:        0,
	}
}

type Option func(*Tracker)

func WithScroller(s Scroller) Option {
	return func(t *Tracker) { t.scroller = s }
}

func WithScreenTrack(s ScreenTrack) Option {
	return func(t *Tracker) { t.screenTrack = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

type Tracker struct {
	cfg         Config
	debouncer   *schedule.Debouncer
	scroller    Scroller
	screenTrack ScreenTrack
	log         *slog.Logger
	noisy       bool

	listeners map[int]Listener
	nextID    int

	ids           []string
	uncloaked     map[string]bool
	nearby        map[string]Item
	topVisible    string
	bottomVisible string
	current       string
	percent       float64
	onscreen      []int
	read          []int
	last          Result
}

func New(cfg Config, s schedule.Scheduler, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:       cfg,
		debouncer: schedule.NewDebouncer(s),
		listeners: make(map[int]Listener),
		uncloaked: make(map[string]bool),
		nearby:    make(map[string]Item),
		last:      Result{Onscreen: emptyRange, Nearby: emptyRange, Current: -1},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logger.ComponentLogger("viewport")
	}
	return t
}

// Schedule debounces a tick. frame is called when the tick runs so it sees
// the latest layout.
func (t *Tracker) Schedule(frame func() Frame) {
	interval := t.cfg.DebounceInterval
	if t.noisy {
		interval = t.cfg.TouchDebounceInterval
	}
	t.debouncer.Debounce("viewport", interval, func() {
		t.Tick(frame())
	})
}

// SetNoisyInput switches between the normal and the touch debounce interval.
func (t *Tracker) SetNoisyInput(noisy bool) { t.noisy = noisy }

// Stop drops a pending tick.
func (t *Tracker) Stop() { t.debouncer.Stop() }

// Last returns the result of the latest tick that was not skipped.
func (t *Tracker) Last() Result { return t.last }

// Cloaked reports whether the item with id should render as a placeholder.
// Items the tracker has not seen yet are not cloaked.
func (t *Tracker) Cloaked(id string) bool {
	uncloaked, seen := t.uncloaked[id]
	return seen && !uncloaked
}

// Tick recomputes the window for f and fires notifications for what changed.
func (t *Tracker) Tick(f Frame) Result {
	if f.Obstructed {
		return Result{Onscreen: emptyRange, Nearby: emptyRange, Current: -1, Skipped: true}
	}
	t.noisy = f.Noisy
	if len(f.Items) == 0 {
		t.reset()
		return t.last
	}

	slack := int(t.cfg.SlackMultiplier * float64(f.WindowHeight))
	windowTop := f.ScrollTop + f.HeaderOffset
	windowBottom := f.ScrollTop + f.WindowHeight
	slackTop := f.ScrollTop - slack
	slackBottom := windowBottom + slack
	readLine := windowTop + t.cfg.ReadLineOffset

	type box struct{ top, bottom int }
	boxes := make(map[int]box)
	measure := func(i int) (box, bool) {
		if b, ok := boxes[i]; ok {
			return b, true
		}
		top, height, err := f.Items[i].Bounds()
		if err != nil {
			t.log.Debug("item skipped", "id", f.Items[i].ID(), "err", err)
			return box{}, false
		}
		b := box{top: top, bottom: top + height}
		boxes[i] = b
		return b, true
	}

	start := findTopView(len(f.Items), slackTop, func(i int) (int, bool) {
		b, ok := measure(i)
		return b.bottom, ok
	})

	res := Result{Onscreen: emptyRange, Nearby: emptyRange, Current: -1}
	nearby := make(map[string]Item)
	var onscreen, read []int
	firstMeasured, lastAbove := -1, -1
	for i := start; i < len(f.Items); i++ {
		b, ok := measure(i)
		if !ok {
			continue
		}
		if b.top > slackBottom {
			break
		}
		if firstMeasured < 0 {
			firstMeasured = i
		}
		item := f.Items[i]
		if b.bottom > slackTop && b.top <= slackBottom {
			res.Nearby.add(i)
			nearby[item.ID()] = item
		}
		if b.bottom > windowTop && b.top <= windowBottom {
			res.Onscreen.add(i)
			onscreen = append(onscreen, item.PostNumber())
			if b.bottom <= windowBottom {
				read = append(read, item.PostNumber())
			}
		}
		if res.Current < 0 {
			switch {
			case readLine >= b.top && readLine < b.bottom:
				res.Current = i
				res.CurrentPercent = clamp(float64(readLine-b.top) / float64(b.bottom-b.top))
			case b.bottom <= readLine:
				lastAbove = i
			}
		}
	}

	if res.Current < 0 {
		switch {
		case lastAbove >= 0:
			// The read line sits in a gap or below the last item.
			res.Current, res.CurrentPercent = lastAbove, 1
		case firstMeasured >= 0:
			// Every visited item is below the read line.
			res.Current, res.CurrentPercent = firstMeasured, 0
		default:
			// Everything ends above the slack window.
			if last := lastMeasurable(len(f.Items), func(i int) bool { _, ok := measure(i); return ok }); last >= 0 {
				res.Current, res.CurrentPercent = last, 1
			}
		}
	}

	res.Cloak, res.Uncloak = t.updateCloaking(f.Items, nearby)
	t.notify(f, res, func(i int) (int, bool) {
		b, ok := measure(i)
		return b.top, ok
	})
	t.track(onscreen, read)
	t.last = res
	return res
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func lastMeasurable(n int, ok func(i int) bool) int {
	for i := n - 1; i >= 0; i-- {
		if ok(i) {
			return i
		}
	}
	return -1
}

// updateCloaking diffs the nearby set against the previous tick. A full
// sweep is only done when the list itself changed.
func (t *Tracker) updateCloaking(items []Item, nearby map[string]Item) (cloak, uncloak []Item) {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID()
	}
	listChanged := !slices.Equal(ids, t.ids)
	if listChanged {
		present := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			present[id] = struct{}{}
		}
		for id := range t.uncloaked {
			if _, ok := present[id]; !ok {
				delete(t.uncloaked, id)
				delete(t.nearby, id)
			}
		}
		t.ids = ids
	}

	for id, it := range t.nearby {
		if _, still := nearby[id]; !still && t.uncloaked[id] {
			t.uncloaked[id] = false
			cloak = append(cloak, it)
		}
	}
	for id, it := range nearby {
		uncloaked, seen := t.uncloaked[id]
		if seen && !uncloaked {
			uncloak = append(uncloak, it)
		}
		t.uncloaked[id] = true
	}

	if listChanged {
		for _, it := range items {
			if _, seen := t.uncloaked[it.ID()]; seen {
				continue
			}
			// New items arrive fully rendered and are cloaked when far away.
			t.uncloaked[it.ID()] = false
			cloak = append(cloak, it)
		}
	}

	t.nearby = nearby
	sortByID(cloak)
	sortByID(uncloak)
	return cloak, uncloak
}

func sortByID(items []Item) {
	slices.SortFunc(items, func(a, b Item) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
}

func (t *Tracker) track(onscreen, read []int) {
	if t.screenTrack == nil {
		return
	}
	if slices.Equal(onscreen, t.onscreen) && slices.Equal(read, t.read) {
		return
	}
	t.onscreen, t.read = onscreen, read
	t.screenTrack.SetOnscreen(onscreen, read)
}

// reset forgets everything; an empty list fires no notifications.
func (t *Tracker) reset() {
	t.ids = nil
	clear(t.uncloaked)
	clear(t.nearby)
	t.topVisible, t.bottomVisible, t.current = "", "", ""
	t.percent = 0
	t.onscreen, t.read = nil, nil
	t.last = Result{Onscreen: emptyRange, Nearby: emptyRange, Current: -1}
}
