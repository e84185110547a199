// Package schedule runs deferred work on the UI loop. Engine code only sees
// the Scheduler interface; the program uses Loop and tests use Manual.
package schedule

import (
	"sort"
	"time"
)

// Handle identifies a scheduled task. The zero Handle is never issued.
type Handle uint64

type Scheduler interface {
	// Schedule runs fn once after delay. A zero delay means "on the next
	// turn of the loop", never synchronously.
	Schedule(delay time.Duration, fn func()) Handle
	// Cancel drops a task that has not run yet. Unknown handles are ignored.
	Cancel(h Handle)
}

// Manual is a virtual clock for tests. Nothing runs until Advance or Flush.
type Manual struct {
	now   time.Duration
	next  Handle
	tasks []manualTask
}

type manualTask struct {
	handle Handle
	at     time.Duration
	fn     func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Schedule(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	m.next++
	m.tasks = append(m.tasks, manualTask{handle: m.next, at: m.now + delay, fn: fn})
	return m.next
}

func (m *Manual) Cancel(h Handle) {
	for i, t := range m.tasks {
		if t.handle == h {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

// Now returns the virtual time elapsed since the Manual was created.
func (m *Manual) Now() time.Duration { return m.now }

// Pending returns the number of tasks waiting to run.
func (m *Manual) Pending() int { return len(m.tasks) }

// Advance moves the clock forward by d and runs every task that became due,
// in due order. Tasks scheduled while advancing run too if they fall inside
// the window.
func (m *Manual) Advance(d time.Duration) int {
	until := m.now + d
	ran := 0
	for {
		t, ok := m.popDue(until)
		if !ok {
			break
		}
		if t.at > m.now {
			m.now = t.at
		}
		t.fn()
		ran++
	}
	m.now = until
	return ran
}

// Flush runs tasks until none is due at the current time.
func (m *Manual) Flush() int {
	return m.Advance(0)
}

func (m *Manual) popDue(until time.Duration) (manualTask, bool) {
	if len(m.tasks) == 0 {
		return manualTask{}, false
	}
	sort.SliceStable(m.tasks, func(i, j int) bool { return m.tasks[i].at < m.tasks[j].at })
	t := m.tasks[0]
	if t.at > until {
		return manualTask{}, false
	}
	m.tasks = m.tasks[1:]
	return t, true
}
