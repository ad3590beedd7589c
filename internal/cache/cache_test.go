package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/wishx/internal/shared"
)

// gatedFetcher counts calls and blocks each one until released.
type gatedFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	values  []any
	errs    []error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{release: make(chan struct{}, 16)}
}

func (g *gatedFetcher) fetch(ctx context.Context) (any, error) {
	n := int(g.calls.Add(1)) - 1
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var v any = n
	if n < len(g.values) {
		v = g.values[n]
	}
	if n < len(g.errs) && g.errs[n] != nil {
		return nil, g.errs[n]
	}
	return v, nil
}

func (g *gatedFetcher) open(n int) {
	for range n {
		g.release <- struct{}{}
	}
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Key Is Idle", func(t *testing.T) {
		c := New(nil)
		defer c.Close()

		called := false
		snap := c.Use("", func(context.Context) (any, error) {
			called = true
			return nil, nil
		})
		if !snap.Idle() {
			t.Errorf("expected idle snapshot, got %+v", snap)
		}
		if s, err := c.Load(ctx, "", nil); err != nil || !s.Idle() {
			t.Errorf("expected idle load, got %+v (%v)", s, err)
		}
		time.Sleep(10 * time.Millisecond)
		if called {
			t.Error("fetch must not run for an empty key")
		}
	})

	t.Run("Concurrent Loads Share One Fetch", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		g := newGatedFetcher()
		g.values = []any{"wishlist"}

		var wg sync.WaitGroup
		var entered atomic.Int32
		results := make([]Snapshot, 2)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				entered.Add(1)
				s, err := c.Load(ctx, "/wishlists/public/a", g.fetch)
				if err != nil {
					t.Errorf("load: %v", err)
				}
				results[i] = s
			}(i)
		}

		waitFor(t, func() bool { return entered.Load() == 2 && c.Peek("/wishlists/public/a").IsLoading })
		time.Sleep(20 * time.Millisecond)
		g.open(1)
		wg.Wait()

		if g.calls.Load() != 1 {
			t.Errorf("expected exactly one fetch, got %d", g.calls.Load())
		}
		for _, s := range results {
			if s.Data != "wishlist" || s.IsLoading {
				t.Errorf("unexpected snapshot %+v", s)
			}
		}
	})

	t.Run("Use Returns Stale Data While Revalidating", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		g := newGatedFetcher()
		g.values = []any{"v1", "v2"}

		g.open(1)
		if s, _ := c.Load(ctx, "k", g.fetch); s.Data != "v1" {
			t.Fatalf("expected v1, got %+v", s)
		}

		s := c.Use("k", g.fetch)
		if s.Data != "v1" || !s.IsLoading {
			t.Errorf("expected stale v1 while loading, got %+v", s)
		}

		g.open(1)
		if s, _ := c.Wait(ctx, "k"); s.Data != "v2" || s.IsLoading {
			t.Errorf("expected v2, got %+v", s)
		}
	})

	t.Run("Use Does Not Duplicate In Flight Fetch", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		g := newGatedFetcher()

		c.Use("k", g.fetch)
		c.Use("k", g.fetch)
		c.Use("k", g.fetch)
		g.open(1)
		c.Wait(ctx, "k")

		if g.calls.Load() != 1 {
			t.Errorf("expected one fetch, got %d", g.calls.Load())
		}
	})

	t.Run("Errors Are Sticky", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		g := newGatedFetcher()
		boom := errors.New("boom")
		g.values = []any{"v1", nil, "v3"}
		g.errs = []error{nil, boom, nil}

		g.open(3)
		c.Load(ctx, "k", g.fetch)

		c.Revalidate("k")
		s, _ := c.Wait(ctx, "k")
		if !errors.Is(s.Err, boom) || s.Data != "v1" {
			t.Errorf("expected error alongside last good data, got %+v", s)
		}

		time.Sleep(20 * time.Millisecond)
		if g.calls.Load() != 2 || !errors.Is(c.Peek("k").Err, boom) {
			t.Error("errors must not trigger an automatic retry")
		}

		c.Revalidate("k")
		s, _ = c.Wait(ctx, "k")
		if s.Err != nil || s.Data != "v3" {
			t.Errorf("expected success to clear error, got %+v", s)
		}
	})

	t.Run("Clear Drops Error And Data", func(t *testing.T) {
		c := New(nil)
		defer c.Close()

		c.Load(ctx, "k", func(context.Context) (any, error) { return nil, errors.New("nope") })
		c.Clear("k")
		if s := c.Peek("k"); s.Err != nil || s.Data != nil {
			t.Errorf("expected cleared entry, got %+v", s)
		}
	})

	t.Run("Clear Discards In Flight Result", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		g := newGatedFetcher()
		g.values = []any{"stale"}

		c.Use("k", g.fetch)
		c.Clear("k")
		g.open(1)
		if s, _ := c.Wait(ctx, "k"); s.Data != nil {
			t.Errorf("expected discarded result, got %+v", s)
		}
	})

	t.Run("Revalidate During Fetch Coalesces One Trailing Fetch", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		g := newGatedFetcher()
		g.values = []any{"pre", "post"}

		c.Use("k", g.fetch)
		c.Revalidate("k")
		c.Revalidate("k")
		c.Revalidate("k")

		g.open(2)
		s, _ := c.Wait(ctx, "k")
		if g.calls.Load() != 2 {
			t.Errorf("expected fetch plus one trailing fetch, got %d", g.calls.Load())
		}
		if s.Data != "post" {
			t.Errorf("expected post-mutation data, got %+v", s)
		}
	})

	t.Run("Revalidate Unknown Key Is Ignored", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		c.Revalidate("never-used")
		if s := c.Peek("never-used"); !s.Idle() {
			t.Errorf("expected idle, got %+v", s)
		}
	})

	t.Run("Revalidate Touches Only Its Key", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		var a, b atomic.Int32

		c.Load(ctx, "a", func(context.Context) (any, error) { return a.Add(1), nil })
		c.Load(ctx, "b", func(context.Context) (any, error) { return b.Add(1), nil })

		c.Revalidate("a")
		c.Wait(ctx, "a")
		if a.Load() != 2 || b.Load() != 1 {
			t.Errorf("expected a=2 b=1, got a=%d b=%d", a.Load(), b.Load())
		}
	})

	t.Run("Get Typed", func(t *testing.T) {
		c := New(nil)
		defer c.Close()

		n, err := Get(ctx, c, "k", func(context.Context) (int, error) { return 42, nil })
		if err != nil || n != 42 {
			t.Errorf("expected 42, got %d (%v)", n, err)
		}

		_, err = Get(ctx, c, "bad", func(context.Context) (int, error) { return 0, shared.ErrAPIRequest })
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected fetch error, got %v", err)
		}
	})

	t.Run("Load Honors Caller Context", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		g := newGatedFetcher()

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		if _, err := c.Load(short, "k", g.fetch); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline, got %v", err)
		}

		g.open(1)
		if s, _ := c.Wait(ctx, "k"); s.Data == nil {
			t.Error("shared fetch should finish even though one caller gave up")
		}
	})

	t.Run("Subscribe", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		g := newGatedFetcher()
		g.values = []any{"v1"}

		ch, cancel := c.Subscribe("k")
		defer cancel()

		if s := <-ch; !s.Idle() {
			t.Errorf("expected initial idle snapshot, got %+v", s)
		}

		c.Use("k", g.fetch)
		g.open(1)
		c.Wait(ctx, "k")

		var last Snapshot
		deadline := time.After(time.Second)
		for last.Data != "v1" {
			select {
			case last = <-ch:
			case <-deadline:
				t.Fatalf("no snapshot with data, last %+v", last)
			}
		}
		if last.IsLoading {
			t.Error("final snapshot should not be loading")
		}
	})

	t.Run("Slow Subscriber Sees Latest", func(t *testing.T) {
		c := New(nil)
		defer c.Close()
		var n atomic.Int32

		ch, cancel := c.Subscribe("k")
		defer cancel()

		fetch := func(context.Context) (any, error) { return n.Add(1), nil }
		for range 5 {
			c.Load(ctx, "k", fetch)
		}

		s := <-ch
		if s.Data != int32(5) {
			t.Errorf("expected only the latest snapshot to be buffered, got %+v", s)
		}
	})

	t.Run("Close", func(t *testing.T) {
		c := New(nil)
		g := newGatedFetcher()

		ch, _ := c.Subscribe("k")
		c.Use("k", g.fetch)
		c.Close()

		if g.calls.Load() != 1 {
			t.Errorf("expected in-flight fetch to have run, got %d", g.calls.Load())
		}
		for range ch {
		}

		if _, err := c.Load(ctx, "k", g.fetch); !errors.Is(err, shared.ErrCacheClosed) {
			t.Errorf("expected ErrCacheClosed, got %v", err)
		}
		c.Revalidate("k")
		c.Close()
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}
