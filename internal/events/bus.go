// Package events is the application event bus custom nodes and mounts
// subscribe to ("post:refresh", "composer:opened", ...).
package events

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/idursun/threadview/internal/logger"
)

// Handler receives the payload passed to Trigger.
type Handler func(payload any)

type subscription struct {
	token   uuid.UUID
	handler Handler
}

// Bus delivers events synchronously in subscription order. It is used from
// the UI loop only.
type Bus struct {
	subs map[string][]subscription
	log  *slog.Logger
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]subscription),
		log:  logger.ComponentLogger("events"),
	}
}

// Subscribe registers h for name and returns the function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(name string, h Handler) func() {
	token := uuid.New()
	b.subs[name] = append(b.subs[name], subscription{token: token, handler: h})
	b.log.Debug("subscribed", "event", name, "token", token)
	return func() { b.unsubscribe(name, token) }
}

func (b *Bus) unsubscribe(name string, token uuid.UUID) {
	subs := b.subs[name]
	for i, s := range subs {
		if s.token == token {
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			if len(b.subs[name]) == 0 {
				delete(b.subs, name)
			}
			return
		}
	}
}

// Trigger calls every handler subscribed to name. Handlers added or removed
// during delivery take effect for the next Trigger.
func (b *Bus) Trigger(name string, payload any) {
	subs := b.subs[name]
	if len(subs) == 0 {
		return
	}
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	for _, s := range snapshot {
		s.handler(payload)
	}
}

// Subscribers returns how many handlers are listening to name.
func (b *Bus) Subscribers(name string) int {
	return len(b.subs[name])
}
