package schedule

import (
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
)

// TaskMsg is delivered to the bubbletea program when a task is due. The
// root model passes it back to Loop.Run so the task executes on the Update
// goroutine like every other state change.
type TaskMsg struct {
	Handle Handle
}

// Loop schedules tasks with real timers and runs them through the program's
// message queue.
type Loop struct {
	mu     sync.Mutex
	send   func(tea.Msg)
	next   Handle
	tasks  map[Handle]func()
	timers map[Handle]*time.Timer
}

func NewLoop() *Loop {
	return &Loop{
		tasks:  make(map[Handle]func()),
		timers: make(map[Handle]*time.Timer),
	}
}

// Attach sets the function used to deliver TaskMsg, normally Program.Send.
func (l *Loop) Attach(send func(tea.Msg)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.send = send
}

func (l *Loop) Schedule(delay time.Duration, fn func()) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	h := l.next
	l.tasks[h] = fn
	l.timers[h] = time.AfterFunc(delay, func() {
		l.mu.Lock()
		send := l.send
		_, live := l.tasks[h]
		delete(l.timers, h)
		l.mu.Unlock()
		if live && send != nil {
			send(TaskMsg{Handle: h})
		}
	})
	return h
}

func (l *Loop) Cancel(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.timers[h]; ok {
		t.Stop()
		delete(l.timers, h)
	}
	delete(l.tasks, h)
}

// Run executes the task carried by msg unless it was cancelled in the
// meantime.
func (l *Loop) Run(msg TaskMsg) {
	l.mu.Lock()
	fn, ok := l.tasks[msg.Handle]
	delete(l.tasks, msg.Handle)
	l.mu.Unlock()
	if ok {
		fn()
	}
}

// Stop cancels every outstanding task.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for h, t := range l.timers {
		t.Stop()
		delete(l.timers, h)
	}
	clear(l.tasks)
}
