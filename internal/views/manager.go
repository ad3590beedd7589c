package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wishx/internal/cache"
	"github.com/desertthunder/wishx/internal/live"
	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/services"
	"github.com/desertthunder/wishx/internal/shared"
	"github.com/gorilla/websocket"
)

// Kind tells the two wishlist projections apart.
type Kind int

const (
	KindPublic Kind = iota
	KindOwner
)

func (k Kind) String() string {
	if k == KindOwner {
		return "owner"
	}
	return "public"
}

// Loader fetches wishlists. [services.Client] satisfies it.
type Loader interface {
	PublicWishlist(ctx context.Context, slug, anonymousToken string) (*models.Wishlist, error)
	Wishlist(ctx context.Context, id string) (*models.Wishlist, error)
}

// Identity supplies the anonymous identity sent with public reads.
type Identity interface {
	GetOrCreateAnonymousIdentity() string
}

// Event is an update of the mounted view.
type Event struct {
	Kind     Kind
	Slug     string
	Key      string
	Wishlist *models.Wishlist
	Err      error
	Loading  bool
	// Live reports whether push updates are still arriving.
	Live bool
}

// Options configures a [Manager].
type Options struct {
	Cache  *cache.Cache
	Loader Loader
	IDs    Identity
	// LiveURL is the push origin. Empty disables live updates.
	LiveURL string
	Dialer  *websocket.Dialer
	Logger  *log.Logger
}

type view struct {
	kind    Kind
	slug    string
	key     string
	channel *live.Channel
	sub     <-chan cache.Snapshot
	cancel  func()
	done    chan struct{}
}

// Manager keeps one wishlist view mounted at a time, with its cache entry and at
// most one live channel. Events are sent without blocking; a full channel drops
// them.
type Manager struct {
	cache   *cache.Cache
	loader  Loader
	ids     Identity
	liveURL string
	dialer  *websocket.Dialer
	logger  *log.Logger
	events  chan<- Event

	mu   sync.Mutex
	view *view

	// bumped by Unmount so a mount still dialing does not outlive it
	epoch uint64
}

// NewManager creates a [Manager]. events may be nil.
func NewManager(opts Options, events chan<- Event) *Manager {
	return &Manager{
		cache:   opts.Cache,
		loader:  opts.Loader,
		ids:     opts.IDs,
		liveURL: opts.LiveURL,
		dialer:  opts.Dialer,
		logger:  shared.WithLogger(opts.Logger, "component", "views"),
		events:  events,
	}
}

// MountPublic shows the public wishlist at slug. Mounting the slug already shown
// keeps its live channel; any other slug replaces it.
func (m *Manager) MountPublic(ctx context.Context, slug string) (*models.Wishlist, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: slug", shared.ErrMissingArgument)
	}
	anon := m.ids.GetOrCreateAnonymousIdentity()
	key := services.PublicWishlistKey(slug, anon)

	w, err := cache.Get(ctx, m.cache, key, func(ctx context.Context) (*models.Wishlist, error) {
		return m.loader.PublicWishlist(ctx, slug, anon)
	})
	if err != nil {
		return nil, err
	}
	m.attach(ctx, KindPublic, slug, key)
	return w, nil
}

// MountOwner shows the owner projection of wishlist id, following the wishlist's
// slug for live updates.
func (m *Manager) MountOwner(ctx context.Context, id string) (*models.Wishlist, error) {
	key := services.WishlistKey(id)
	if key == "" {
		return nil, fmt.Errorf("%w: wishlist id", shared.ErrMissingArgument)
	}

	w, err := cache.Get(ctx, m.cache, key, func(ctx context.Context) (*models.Wishlist, error) {
		return m.loader.Wishlist(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	m.attach(ctx, KindOwner, w.Slug, key)
	return w, nil
}

// Current returns the mounted view as an event. ok is false when nothing is mounted.
func (m *Manager) Current() (Event, bool) {
	m.mu.Lock()
	v := m.view
	m.mu.Unlock()

	if v == nil {
		return Event{}, false
	}
	return v.event(m.cache.Peek(v.key)), true
}

// Refresh revalidates the mounted view.
func (m *Manager) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view != nil {
		m.cache.Revalidate(m.view.key)
	}
}

// Unmount closes the live channel and stops events. When it returns no further
// revalidation is triggered by the view.
func (m *Manager) Unmount() {
	m.mu.Lock()
	v := m.view
	m.view = nil
	m.epoch++
	m.mu.Unlock()

	m.teardown(v)
}

// attach makes (slug, key) the mounted view, reusing it when unchanged.
//
// The live channel is dialed without holding the lock; if another mount of the
// same key or an Unmount got in first the new channel is discarded.
func (m *Manager) attach(ctx context.Context, kind Kind, slug, key string) {
	m.mu.Lock()
	if v := m.view; v != nil && v.key == key {
		m.mu.Unlock()
		return
	}
	epoch := m.epoch
	m.mu.Unlock()

	v := &view{kind: kind, slug: slug, key: key, done: make(chan struct{})}
	if m.liveURL != "" && slug != "" {
		ch, err := live.Open(ctx, live.Options{
			BaseURL: m.liveURL,
			Slug:    slug,
			Key:     key,
			Target:  m.cache,
			Dialer:  m.dialer,
			Logger:  m.logger,
		})
		if err != nil {
			m.logger.Warn("live updates unavailable", "slug", slug, "error", err)
		} else {
			v.channel = ch
		}
	}

	m.mu.Lock()
	if cur := m.view; m.epoch != epoch || (cur != nil && cur.key == key) {
		m.mu.Unlock()
		m.logger.Debug("discarding superseded mount", "slug", slug)
		if v.channel != nil {
			v.channel.Close()
		}
		return
	}
	old := m.view
	v.sub, v.cancel = m.cache.Subscribe(key)
	m.view = v
	go m.forward(v)
	m.mu.Unlock()

	m.teardown(old)
	m.logger.Debug("view mounted", "kind", kind, "slug", slug, "live", v.channel != nil)
}

func (m *Manager) teardown(v *view) {
	if v == nil {
		return
	}
	if v.channel != nil {
		if err := v.channel.Close(); err != nil {
			m.logger.Debug("live channel close", "error", err)
		}
	}
	v.cancel()
	<-v.done
}

func (m *Manager) forward(v *view) {
	defer close(v.done)

	var lost <-chan struct{}
	if v.channel != nil {
		lost = v.channel.Done()
	}

	for {
		select {
		case snap, ok := <-v.sub:
			if !ok {
				return
			}
			m.emit(v.event(snap))
		case <-lost:
			lost = nil
			m.emit(v.event(m.cache.Peek(v.key)))
		}
	}
}

// emit sends ev without blocking.
func (m *Manager) emit(ev Event) {
	if m.events == nil {
		return
	}
	select {
	case m.events <- ev:
	default:
	}
}

func (v *view) event(snap cache.Snapshot) Event {
	ev := Event{Kind: v.kind, Slug: v.slug, Key: v.key, Err: snap.Err, Loading: snap.IsLoading}
	if w, err := cache.Value[*models.Wishlist](snap); err == nil {
		ev.Wishlist = w
	}
	if v.channel != nil {
		select {
		case <-v.channel.Done():
		default:
			ev.Live = true
		}
	}
	return ev
}

// Item finds an item in the mounted view's current data.
func (m *Manager) Item(id string) (models.Item, error) {
	ev, ok := m.Current()
	if !ok || ev.Wishlist == nil {
		return models.Item{}, errors.New("no wishlist mounted")
	}
	item, ok := ev.Wishlist.Item(id)
	if !ok {
		return models.Item{}, fmt.Errorf("%w: %s", shared.ErrItemNotFound, id)
	}
	return *item, nil
}
