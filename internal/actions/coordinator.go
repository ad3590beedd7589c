package actions

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/services"
	"github.com/desertthunder/wishx/internal/shared"
)

// Policy decides whether a reserved item still accepts contributions.
type Policy int

const (
	// PolicyStrict refuses contributions to reserved items.
	PolicyStrict Policy = iota
	// PolicyLenient only looks at the target and progress.
	PolicyLenient
)

func (p Policy) String() string {
	if p == PolicyLenient {
		return "lenient"
	}
	return "strict"
}

// ParsePolicy maps a config value onto a [Policy]. Empty means strict.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "strict":
		return PolicyStrict, nil
	case "lenient":
		return PolicyLenient, nil
	}
	return PolicyStrict, fmt.Errorf("%w: contribution policy %q", shared.ErrInvalidConfig, s)
}

// API is the backend surface for public actions.
type API interface {
	Reserve(ctx context.Context, slug, itemID, anonymousToken string) error
	Unreserve(ctx context.Context, slug, itemID, anonymousToken string) error
	Contribute(ctx context.Context, slug, itemID string, amount models.Amount, anonymousToken string) error
}

// Identity resolves who is acting.
type Identity interface {
	GetCredential() (string, bool)
	GetOrCreateAnonymousIdentity() string
}

// Revalidator refetches a cache key.
type Revalidator interface {
	Revalidate(key string)
}

// Actor is who an action is attributed to.
type Actor struct {
	Authenticated bool
	// AnonymousToken is set only for anonymous actors.
	AnonymousToken string
}

// Coordinator performs reserve, unreserve and contribute on public wishlists.
// Guards are checked against the item as currently displayed; the backend has
// the final word. Success never patches local data, it revalidates the wishlist.
type Coordinator struct {
	api    API
	ids    Identity
	cache  Revalidator
	policy Policy
	logger *log.Logger
}

// NewCoordinator creates a [Coordinator]. cache may be nil when nothing is displayed.
func NewCoordinator(api API, ids Identity, cache Revalidator, policy Policy, logger *log.Logger) *Coordinator {
	return &Coordinator{
		api:    api,
		ids:    ids,
		cache:  cache,
		policy: policy,
		logger: shared.WithLogger(logger, "component", "actions"),
	}
}

// Policy returns the contribution policy in effect.
func (c *Coordinator) Policy() Policy { return c.policy }

// Actor resolves the current actor. An anonymous identity is created on first use.
func (c *Coordinator) Actor() Actor {
	if _, ok := c.ids.GetCredential(); ok {
		return Actor{Authenticated: true}
	}
	return Actor{AnonymousToken: c.ids.GetOrCreateAnonymousIdentity()}
}

// PublicKey is the cache key of the public wishlist as this profile reads it.
// The anonymous identity is always sent on reads so reserved_by_me stays
// accurate for reservations made before signing in.
func (c *Coordinator) PublicKey(slug string) string {
	return services.PublicWishlistKey(slug, c.ids.GetOrCreateAnonymousIdentity())
}

// CanReserve reports whether item can be reserved by anyone right now.
func CanReserve(item models.Item) bool {
	return !item.Reserved && !item.ReservedByMe
}

// CanUnreserve reports whether the current actor holds item's reservation.
func CanUnreserve(item models.Item) bool {
	return item.ReservedByMe
}

// CanContribute reports whether item accepts contributions under policy.
func CanContribute(item models.Item, policy Policy) bool {
	if !item.HasTarget() || item.DisplayProgress() >= 1 {
		return false
	}
	return policy == PolicyLenient || !item.Reserved
}

// ValidateAmount checks a contribution against the item's remaining headroom.
func ValidateAmount(item models.Item, amount models.Amount) error {
	if amount.Cents() <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", shared.ErrInvalidAmount)
	}
	if rest := item.Remaining(); amount.Cents() > rest.Cents() {
		return fmt.Errorf("%w: amount exceeds the remaining %s", shared.ErrInvalidAmount, rest.Fixed())
	}
	return nil
}

// Reserve reserves item on the wishlist at slug.
func (c *Coordinator) Reserve(ctx context.Context, slug string, item models.Item) error {
	if !CanReserve(item) {
		return fmt.Errorf("%w: %q is already reserved", shared.ErrActionNotAllowed, item.Name)
	}
	actor := c.Actor()
	if err := c.api.Reserve(ctx, slug, item.ID, actor.AnonymousToken); err != nil {
		return err
	}
	c.done(slug, "reserve", item.ID, actor)
	return nil
}

// Unreserve releases the current actor's reservation of item.
func (c *Coordinator) Unreserve(ctx context.Context, slug string, item models.Item) error {
	if !CanUnreserve(item) {
		return fmt.Errorf("%w: %q is not reserved by you", shared.ErrActionNotAllowed, item.Name)
	}
	actor := c.Actor()
	if err := c.api.Unreserve(ctx, slug, item.ID, actor.AnonymousToken); err != nil {
		return err
	}
	c.done(slug, "unreserve", item.ID, actor)
	return nil
}

// Contribute adds amount towards item's target.
func (c *Coordinator) Contribute(ctx context.Context, slug string, item models.Item, amount models.Amount) error {
	if !CanContribute(item, c.policy) {
		return fmt.Errorf("%w: %q does not accept contributions", shared.ErrActionNotAllowed, item.Name)
	}
	if err := ValidateAmount(item, amount); err != nil {
		return err
	}
	actor := c.Actor()
	if err := c.api.Contribute(ctx, slug, item.ID, amount, actor.AnonymousToken); err != nil {
		return err
	}
	c.done(slug, "contribute", item.ID, actor)
	return nil
}

func (c *Coordinator) done(slug, action, itemID string, actor Actor) {
	c.logger.Info(action, "slug", slug, "item", itemID, "authenticated", actor.Authenticated)
	if c.cache != nil {
		c.cache.Revalidate(c.PublicKey(slug))
	}
}
