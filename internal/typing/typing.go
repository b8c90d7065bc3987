// Package typing holds the ephemeral "someone is composing" signal. Entries
// live in process memory with a sliding TTL and are pruned lazily on every
// touch of a thread; nothing is persisted and no sweeper goroutine runs.
package typing

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 5 * time.Second

type State struct {
	IsTyping bool   `json:"is_typing"`
	Label    string `json:"label,omitempty"`
}

type Presence interface {
	Set(ctx context.Context, threadID, userID int64, isTyping bool, label string) error
	Get(ctx context.Context, threadID, viewerID int64) (State, error)
}

type entry struct {
	label     string
	expiresAt time.Time
}

// Cache is a constructed instance, not a package singleton, so tests can
// inject a clock and several isolated instances can coexist.
type Cache struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	threads map[int64]map[int64]entry
}

type Option func(*Cache)

// WithClock replaces the time source; tests use it to step past the TTL.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func NewCache(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		threads: make(map[int64]map[int64]entry),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Set refreshes or removes the caller's entry. A refresh always overwrites
// the previous expiry, so the TTL slides while the user keeps signalling.
func (c *Cache) Set(_ context.Context, threadID, userID int64, isTyping bool, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(threadID)

	if !isTyping {
		if room, ok := c.threads[threadID]; ok {
			delete(room, userID)
			if len(room) == 0 {
				delete(c.threads, threadID)
			}
		}
		return nil
	}

	room := c.threads[threadID]
	if room == nil {
		room = make(map[int64]entry)
		c.threads[threadID] = room
	}

	room[userID] = entry{
		label:     label,
		expiresAt: c.now().Add(c.ttl),
	}

	return nil
}

// Get returns the first live entry belonging to someone other than the
// viewer. Several simultaneous typers collapse into one indicator; which
// one wins follows map iteration order and is deliberately unspecified.
func (c *Cache) Get(_ context.Context, threadID, viewerID int64) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(threadID)

	for userID, e := range c.threads[threadID] {
		if userID == viewerID {
			continue
		}
		return State{IsTyping: true, Label: e.label}, nil
	}

	return State{}, nil
}

// pruneLocked drops expired entries for one thread only; the cost of a call
// is bounded by that thread's concurrent typers.
func (c *Cache) pruneLocked(threadID int64) {
	room, ok := c.threads[threadID]
	if !ok {
		return
	}

	now := c.now()
	for userID, e := range room {
		if !e.expiresAt.After(now) {
			delete(room, userID)
		}
	}

	if len(room) == 0 {
		delete(c.threads, threadID)
	}
}
