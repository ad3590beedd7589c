package live

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wishx/internal/shared"
	"github.com/gorilla/websocket"
)

// CloseWishlistNotFound is the close code the backend uses for an unknown slug.
const CloseWishlistNotFound = 4004

const (
	handshakeTimeout = 10 * time.Second
	closeGrace       = time.Second
)

// Revalidator is told to refetch a cache key. [cache.Cache] satisfies it.
type Revalidator interface {
	Revalidate(key string)
}

// Options configures [Open].
type Options struct {
	// BaseURL is the push origin, e.g. ws://localhost:8000.
	BaseURL string
	Slug    string
	// Key is the cache key revalidated for each message.
	Key    string
	Target Revalidator
	Dialer *websocket.Dialer
	Logger *log.Logger
}

// Channel is one open push subscription for a wishlist slug. Message bodies are
// never parsed: every message means "something changed".
type Channel struct {
	conn   *websocket.Conn
	slug   string
	key    string
	target Revalidator
	logger *log.Logger

	mu       sync.Mutex
	closed   bool
	err      error
	done     chan struct{}
	received atomic.Int64
}

// Endpoint returns the push URL for slug under base.
func Endpoint(base, slug string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasPrefix(base, "http") {
		base = "ws" + strings.TrimPrefix(base, "http")
	}
	return base + "/ws/wishlist/" + url.PathEscape(slug)
}

// Open connects to the push endpoint for opts.Slug and starts reading. The
// channel is never reconnected: after an error it stays closed and views keep
// their last data.
func Open(ctx context.Context, opts Options) (*Channel, error) {
	if opts.Slug == "" {
		return nil, fmt.Errorf("%w: slug", shared.ErrMissingArgument)
	}
	if opts.Target == nil {
		return nil, fmt.Errorf("%w: revalidation target", shared.ErrMissingArgument)
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	}

	endpoint := Endpoint(opts.BaseURL, opts.Slug)
	logger := shared.WithLogger(opts.Logger, "component", "live", "slug", opts.Slug)

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: live updates for %q: %w", shared.ErrServiceUnavailable, opts.Slug, err)
	}

	c := &Channel{
		conn:   conn,
		slug:   opts.Slug,
		key:    opts.Key,
		target: opts.Target,
		logger: logger,
		done:   make(chan struct{}),
	}
	go c.read()

	logger.Debug("live channel open", "url", endpoint)
	return c, nil
}

// Slug returns the wishlist slug the channel follows.
func (c *Channel) Slug() string { return c.slug }

// Received reports how many messages triggered a revalidation.
func (c *Channel) Received() int64 { return c.received.Load() }

// Done is closed once the reader has stopped.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Err returns the error that ended the channel. It is nil while the channel is
// open and after a [Channel.Close].
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close ends the subscription and waits for the reader to stop. No revalidation
// happens after Close returns. It is safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.done
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace)); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Debug("close frame not sent", "error", err)
	}
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Channel) read() {
	defer close(c.done)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.fail(err)
			return
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.received.Add(1)
		c.target.Revalidate(c.key)
		c.mu.Unlock()
	}
}

func (c *Channel) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()

	switch {
	case websocket.IsCloseError(err, CloseWishlistNotFound):
		c.err = fmt.Errorf("%w: %s", shared.ErrWishlistNotFound, c.slug)
		c.logger.Warn("live updates refused, wishlist not found")
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		c.err = err
		c.logger.Info("live channel closed by server")
	default:
		c.err = err
		c.logger.Warn("live channel lost", "error", err)
	}
}
