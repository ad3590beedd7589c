package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wishx/internal/shared"
)

// Fetcher loads the current value for a key. It runs on the cache's own context,
// not on the context of whoever triggered it, because its result is shared.
type Fetcher func(ctx context.Context) (any, error)

// Snapshot is the observable state of one key.
//
// Data is the last successful value and survives later failures; Err is the last
// failure and survives until the next success or [Cache.Clear].
type Snapshot struct {
	Key       string
	Data      any
	Err       error
	IsLoading bool
}

// Idle reports a snapshot with nothing loaded, loading or failed.
func (s Snapshot) Idle() bool {
	return s.Data == nil && s.Err == nil && !s.IsLoading
}

type call struct {
	done chan struct{}
}

type entry struct {
	data     any
	err      error
	fetch    Fetcher
	call     *call
	trailing bool
	gen      uint64
	subs     map[int]chan Snapshot
}

// Cache maps request keys to their latest known values with at most one fetch in
// flight per key. Nothing is refreshed on a timer: values change only when a
// caller mounts a key, revalidates it or clears it.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextSub int
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *log.Logger
}

// New creates an empty [Cache].
func New(logger *log.Logger) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
		logger:  shared.WithLogger(logger, "component", "cache"),
	}
}

// Use returns the current snapshot for key and starts a fetch unless one is
// already in flight. An empty key is idle and never fetches.
//
// fetch becomes the key's fetcher for later revalidations; a nil fetch keeps the
// previously registered one.
func (c *Cache) Use(key string, fetch Fetcher) Snapshot {
	if key == "" {
		return Snapshot{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Snapshot{Key: key, Err: shared.ErrCacheClosed}
	}

	e := c.entry(key, fetch)
	if e.call == nil && e.fetch != nil {
		c.start(key, e)
	}
	return e.snapshot(key)
}

// Load is [Cache.Use] that waits for the fetch it started or joined.
//
// The returned error reports only ctx expiry or a closed cache; fetch failures are
// in [Snapshot.Err].
func (c *Cache) Load(ctx context.Context, key string, fetch Fetcher) (Snapshot, error) {
	if key == "" {
		return Snapshot{}, nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{Key: key}, shared.ErrCacheClosed
	}

	e := c.entry(key, fetch)
	if e.call == nil {
		if e.fetch == nil {
			s := e.snapshot(key)
			c.mu.Unlock()
			return s, nil
		}
		c.start(key, e)
	}
	cl := e.call
	c.mu.Unlock()

	select {
	case <-cl.done:
	case <-ctx.Done():
		return c.Peek(key), ctx.Err()
	}
	return c.Peek(key), nil
}

// Get loads key and returns its value as T.
func Get[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	snap, err := c.Load(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	if snap.Err != nil {
		return zero, snap.Err
	}
	return Value[T](snap)
}

// Value extracts a snapshot's data as T.
func Value[T any](s Snapshot) (T, error) {
	var zero T
	if s.Data == nil {
		return zero, fmt.Errorf("cache entry %q has no data", s.Key)
	}
	v, ok := s.Data.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry %q holds %T", s.Key, s.Data)
	}
	return v, nil
}

// Peek returns the current snapshot for key without fetching.
func (c *Cache) Peek(key string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key}
	}
	return e.snapshot(key)
}

// Revalidate refetches key with its registered fetcher. If a fetch is in flight,
// exactly one more fetch runs after it so the result reflects state at or after
// this call. Unknown keys are ignored.
func (c *Cache) Revalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if c.closed || !ok || e.fetch == nil {
		return
	}
	if e.call != nil {
		e.trailing = true
		return
	}
	c.start(key, e)
}

// Wait blocks until key has no fetch in flight, including a coalesced trailing one.
func (c *Cache) Wait(ctx context.Context, key string) (Snapshot, error) {
	for {
		c.mu.Lock()
		e, ok := c.entries[key]
		if !ok || e.call == nil {
			var s Snapshot
			if ok {
				s = e.snapshot(key)
			} else {
				s = Snapshot{Key: key}
			}
			c.mu.Unlock()
			return s, nil
		}
		cl := e.call
		c.mu.Unlock()

		select {
		case <-cl.done:
		case <-ctx.Done():
			return c.Peek(key), ctx.Err()
		}
	}
}

// Clear drops the data and error of key. A fetch in flight finishes but its
// result is discarded. Subscribers stay registered.
func (c *Cache) Clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.data, e.err, e.trailing = nil, nil, false
	e.gen++
	c.publish(key, e)
}

// Reset clears every key.
func (c *Cache) Reset() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.Clear(key)
	}
}

// Subscribe delivers snapshots of key as they change. Delivery is latest-wins: a
// slow reader sees the newest snapshot, never a backlog. The channel is closed by
// the returned cancel func or by [Cache.Close].
func (c *Cache) Subscribe(key string) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}

	e := c.entry(key, nil)
	id := c.nextSub
	c.nextSub++
	e.subs[id] = ch
	ch <- e.snapshot(key)
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(sub)
			}
		})
	}
}

// Close cancels fetches in flight, waits for them to return and closes all
// subscriptions.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		for id, ch := range e.subs {
			delete(e.subs, id)
			close(ch)
		}
	}
}

// entry returns the entry for key, creating it. Callers hold c.mu.
func (c *Cache) entry(key string, fetch Fetcher) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{subs: make(map[int]chan Snapshot)}
		c.entries[key] = e
	}
	if fetch != nil {
		e.fetch = fetch
	}
	return e
}

// start launches a fetch for key. Callers hold c.mu and have checked e.call is nil.
func (c *Cache) start(key string, e *entry) {
	cl := &call{done: make(chan struct{})}
	e.call = cl
	fetch, gen := e.fetch, e.gen

	c.wg.Add(1)
	go c.run(key, e, cl, fetch, gen)

	c.logger.Debug("fetch started", "key", key)
	c.publish(key, e)
}

func (c *Cache) run(key string, e *entry, cl *call, fetch Fetcher, gen uint64) {
	defer c.wg.Done()

	data, err := fetch(c.ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e.gen == gen {
		if err != nil {
			e.err = err
			c.logger.Debug("fetch failed", "key", key, "error", err)
		} else {
			e.data, e.err = data, nil
		}
	}

	e.call = nil
	close(cl.done)

	if e.trailing && !c.closed {
		e.trailing = false
		c.start(key, e)
		return
	}
	c.publish(key, e)
}

// publish sends the current snapshot to subscribers without blocking. Callers hold c.mu.
func (c *Cache) publish(key string, e *entry) {
	s := e.snapshot(key)
	for _, ch := range e.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

func (e *entry) snapshot(key string) Snapshot {
	return Snapshot{Key: key, Data: e.data, Err: e.err, IsLoading: e.call != nil}
}
