package schedule

import "time"

// Debouncer delays work per identifier; a newer call with the same
// identifier cancels the pending one.
type Debouncer struct {
	sched   Scheduler
	pending map[string]Handle
}

func NewDebouncer(s Scheduler) *Debouncer {
	return &Debouncer{sched: s, pending: make(map[string]Handle)}
}

// Debounce waits for duration before running fn.
func (d *Debouncer) Debounce(identifier string, duration time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if previous, ok := d.pending[identifier]; ok {
		d.sched.Cancel(previous)
	}
	var h Handle
	h = d.sched.Schedule(duration, func() {
		if d.pending[identifier] != h {
			return
		}
		delete(d.pending, identifier)
		fn()
	})
	d.pending[identifier] = h
}

// Pending reports whether identifier has work waiting.
func (d *Debouncer) Pending(identifier string) bool {
	_, ok := d.pending[identifier]
	return ok
}

func (d *Debouncer) Cancel(identifier string) {
	if h, ok := d.pending[identifier]; ok {
		d.sched.Cancel(h)
		delete(d.pending, identifier)
	}
}

// Stop cancels everything.
func (d *Debouncer) Stop() {
	for id, h := range d.pending {
		d.sched.Cancel(h)
		delete(d.pending, id)
	}
}
