package viewport

// VisibleChange is sent when the first or last onscreen item changes.
type VisibleChange struct {
	Item Item
	// Refresh scrolls so that Item is back at the offset it had when the
	// change was detected. Call it after a rerender moved things around.
	Refresh func()
}

// Listener receives tracker notifications. Nil fields are ignored.
type Listener struct {
	TopVisibleChanged    func(VisibleChange)
	BottomVisibleChanged func(VisibleChange)
	CurrentPostChanged   func(item Item)
	CurrentPostScrolled  func(item Item, percent float64)
	// Cloak receives the items to cloak and uncloak after each tick that
	// changed either set.
	Cloak func(cloak, uncloak []Item)
}

// Listen registers l and returns the function that removes it.
func (t *Tracker) Listen(l Listener) func() {
	t.nextID++
	id := t.nextID
	t.listeners[id] = l
	return func() { delete(t.listeners, id) }
}

func (t *Tracker) each(fn func(Listener)) {
	for id := 1; id <= t.nextID; id++ {
		if l, ok := t.listeners[id]; ok {
			fn(l)
		}
	}
}

func (t *Tracker) notify(f Frame, res Result, topOf func(i int) (int, bool)) {
	if len(res.Cloak) > 0 || len(res.Uncloak) > 0 {
		t.each(func(l Listener) {
			if l.Cloak != nil {
				l.Cloak(res.Cloak, res.Uncloak)
			}
		})
	}

	if !res.Onscreen.Empty() {
		if top := f.Items[res.Onscreen.Low]; top.ID() != t.topVisible {
			t.topVisible = top.ID()
			change := VisibleChange{Item: top, Refresh: t.refresher(f, top, res.Onscreen.Low, topOf)}
			t.each(func(l Listener) {
				if l.TopVisibleChanged != nil {
					l.TopVisibleChanged(change)
				}
			})
		}
		if bottom := f.Items[res.Onscreen.High]; bottom.ID() != t.bottomVisible {
			t.bottomVisible = bottom.ID()
			change := VisibleChange{Item: bottom, Refresh: t.refresher(f, bottom, res.Onscreen.High, topOf)}
			t.each(func(l Listener) {
				if l.BottomVisibleChanged != nil {
					l.BottomVisibleChanged(change)
				}
			})
		}
	}

	if res.Current < 0 {
		return
	}
	current := f.Items[res.Current]
	changed := current.ID() != t.current
	if changed {
		t.current = current.ID()
		t.each(func(l Listener) {
			if l.CurrentPostChanged != nil {
				l.CurrentPostChanged(current)
			}
		})
	}
	if changed || res.CurrentPercent != t.percent {
		t.percent = res.CurrentPercent
		t.each(func(l Listener) {
			if l.CurrentPostScrolled != nil {
				l.CurrentPostScrolled(current, res.CurrentPercent)
			}
		})
	}
}

// refresher captures where item sits relative to the scroll offset now.
func (t *Tracker) refresher(f Frame, item Item, idx int, topOf func(i int) (int, bool)) func() {
	top, ok := topOf(idx)
	if !ok || t.scroller == nil {
		return func() {}
	}
	offset := top - f.ScrollTop
	return func() {
		now, _, err := item.Bounds()
		if err != nil {
			t.log.Debug("refresh skipped", "id", item.ID(), "err", err)
			return
		}
		want := now - offset
		if want < 0 {
			want = 0
		}
		if t.scroller.ScrollTop() != want {
			t.scroller.ScrollTo(want)
		}
	}
}
