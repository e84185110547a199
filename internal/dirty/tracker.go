// Package dirty records which named parts of a render tree changed since the
// last render pass.
package dirty

import "sort"

// All is the wildcard key. RenderedKey(All) clears every key and the
// force-all flag.
const All = "*"

// Options carries the optional refresh action recorded with a dirty key.
type Options struct {
	OnRefresh  func(arg any)
	RefreshArg any
}

type refresh struct {
	action func(arg any)
	arg    any
}

// Tracker is bound to a single mount. It is not safe for concurrent use; all
// calls happen on the UI loop.
type Tracker struct {
	keys     map[string]uint64
	refresh  map[string]refresh
	allDirty bool
	gen      uint64
}

func New() *Tracker {
	return &Tracker{
		keys:    make(map[string]uint64),
		refresh: make(map[string]refresh),
	}
}

// KeyDirty marks key dirty. The refresh action of the latest call wins.
func (t *Tracker) KeyDirty(key string, opts Options) {
	if key == All {
		t.ForceAll()
		return
	}
	t.gen++
	t.keys[key] = t.gen
	if opts.OnRefresh != nil {
		t.refresh[key] = refresh{action: opts.OnRefresh, arg: opts.RefreshArg}
	} else {
		delete(t.refresh, key)
	}
}

// ForceAll makes every key read as dirty until RenderedKey(All).
func (t *Tracker) ForceAll() {
	t.gen++
	t.allDirty = true
}

// IsDirty reports whether key must be recomputed on the next render.
func (t *Tracker) IsDirty(key string) bool {
	if t.allDirty {
		return true
	}
	_, ok := t.keys[key]
	return ok
}

// AllDirty reports the wildcard flag.
func (t *Tracker) AllDirty() bool {
	return t.allDirty
}

// Generation returns the change counter of key, 0 when it is clean.
func (t *Tracker) Generation(key string) uint64 {
	return t.keys[key]
}

// Version changes whenever a key is dirtied or ForceAll is called.
func (t *Tracker) Version() uint64 {
	return t.gen
}

// RenderedKey clears key after a successful render.
func (t *Tracker) RenderedKey(key string) {
	if key == All {
		t.allDirty = false
		clear(t.keys)
		clear(t.refresh)
		return
	}
	delete(t.keys, key)
	delete(t.refresh, key)
}

// Snapshot freezes the current state for one render pass.
func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		keys:     make(map[string]uint64, len(t.keys)),
		refresh:  make(map[string]refresh, len(t.refresh)),
		allDirty: t.allDirty,
		version:  t.gen,
	}
	for k, g := range t.keys {
		s.keys[k] = g
	}
	for k, r := range t.refresh {
		s.refresh[k] = r
	}
	return s
}

// Snapshot is the dirty state as of the start of a render pass. Changes made
// to the Tracker afterwards are not visible through it.
type Snapshot struct {
	keys     map[string]uint64
	refresh  map[string]refresh
	allDirty bool
	version  uint64
}

func (s Snapshot) IsDirty(key string) bool {
	if s.allDirty {
		return true
	}
	_, ok := s.keys[key]
	return ok
}

func (s Snapshot) AllDirty() bool { return s.allDirty }

func (s Snapshot) Empty() bool { return !s.allDirty && len(s.keys) == 0 }

// Keys returns the explicitly dirtied keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Generation returns the generation key had when the snapshot was taken.
func (s Snapshot) Generation(key string) uint64 {
	return s.keys[key]
}

// Version returns the tracker version the snapshot was taken at.
func (s Snapshot) Version() uint64 { return s.version }

// RunRefreshActions invokes the recorded refresh actions in key order.
func (s Snapshot) RunRefreshActions() {
	for _, k := range s.Keys() {
		if r, ok := s.refresh[k]; ok {
			r.action(r.arg)
		}
	}
}
