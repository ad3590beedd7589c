package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/shared"
)

type actorRequest struct {
	AnonymousToken string `json:"anonymous_token,omitempty"`
}

type contributeRequest struct {
	Amount         models.Amount `json:"amount"`
	AnonymousToken string        `json:"anonymous_token,omitempty"`
}

type metaRequest struct {
	URL string `json:"url"`
}

// RequestKey builds the stable cache key for a GET of path with query: the path
// followed by the query encoded in name order. Empty values are dropped.
func RequestKey(path string, query url.Values) string {
	clean := url.Values{}
	for name, values := range query {
		for _, v := range values {
			if v != "" {
				clean.Add(name, v)
			}
		}
	}
	if len(clean) == 0 {
		return path
	}
	return path + "?" + clean.Encode()
}

// MyWishlistsKey is the cache key of the dashboard list.
func MyWishlistsKey() string { return "/wishlists/my" }

// WishlistKey is the cache key of an owner view.
func WishlistKey(id string) string {
	if id == "" {
		return ""
	}
	return "/wishlists/" + url.PathEscape(id)
}

// PublicWishlistKey is the cache key of a public view for the given viewer.
// Authenticated viewers pass an empty anonymous token.
func PublicWishlistKey(slug, anonymousToken string) string {
	if slug == "" {
		return ""
	}
	return RequestKey("/wishlists/public/"+url.PathEscape(slug), url.Values{"anonymous_token": {anonymousToken}})
}

// MyWishlists lists the owner's wishlists with item counts.
func (c *Client) MyWishlists(ctx context.Context) ([]models.WishlistSummary, error) {
	var lists []models.WishlistSummary
	if err := c.Get(ctx, MyWishlistsKey(), &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// CreateWishlist creates an empty wishlist.
func (c *Client) CreateWishlist(ctx context.Context, in models.WishlistInput) (*models.Wishlist, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var w models.Wishlist
	if err := c.Post(ctx, "/wishlists", in, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Wishlist fetches the owner view of a wishlist.
func (c *Client) Wishlist(ctx context.Context, id string) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := c.Get(ctx, WishlistKey(id), &w); err != nil {
		return nil, notFound(err, shared.ErrWishlistNotFound)
	}
	return &w, nil
}

// UpdateWishlist renames a wishlist or changes its occasion.
func (c *Client) UpdateWishlist(ctx context.Context, id string, in models.WishlistInput) (*models.Wishlist, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var w models.Wishlist
	if err := c.Patch(ctx, WishlistKey(id), in, &w); err != nil {
		return nil, notFound(err, shared.ErrWishlistNotFound)
	}
	return &w, nil
}

// DeleteWishlist removes a wishlist and its items.
func (c *Client) DeleteWishlist(ctx context.Context, id string) error {
	if err := c.Delete(ctx, WishlistKey(id), nil, nil); err != nil {
		return notFound(err, shared.ErrWishlistNotFound)
	}
	return nil
}

// AddItem appends an item to a wishlist.
func (c *Client) AddItem(ctx context.Context, wishlistID string, in models.ItemInput) (*models.Item, error) {
	if err := in.Validate(false); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var item models.Item
	if err := c.Post(ctx, itemsPath(wishlistID, ""), in, &item); err != nil {
		return nil, notFound(err, shared.ErrWishlistNotFound)
	}
	return &item, nil
}

// UpdateItem patches the non-nil fields of in.
func (c *Client) UpdateItem(ctx context.Context, wishlistID, itemID string, in models.ItemInput) (*models.Item, error) {
	if err := in.Validate(true); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var item models.Item
	if err := c.Patch(ctx, itemsPath(wishlistID, itemID), in, &item); err != nil {
		return nil, notFound(err, shared.ErrItemNotFound)
	}
	return &item, nil
}

// DeleteItem removes an item. The backend refuses items that already have contributions.
func (c *Client) DeleteItem(ctx context.Context, wishlistID, itemID string) error {
	if err := c.Delete(ctx, itemsPath(wishlistID, itemID), nil, nil); err != nil {
		return notFound(err, shared.ErrItemNotFound)
	}
	return nil
}

// PublicWishlist fetches the public view of a wishlist as seen by the given actor.
func (c *Client) PublicWishlist(ctx context.Context, slug, anonymousToken string) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := c.Get(ctx, PublicWishlistKey(slug, anonymousToken), &w); err != nil {
		return nil, notFound(err, shared.ErrWishlistNotFound)
	}
	return &w, nil
}

// Reserve reserves an item on a public wishlist.
func (c *Client) Reserve(ctx context.Context, slug, itemID, anonymousToken string) error {
	return c.Post(ctx, publicItemPath(slug, itemID, "reserve"), actorRequest{AnonymousToken: anonymousToken}, nil)
}

// Unreserve releases the actor's reservation.
func (c *Client) Unreserve(ctx context.Context, slug, itemID, anonymousToken string) error {
	return c.Delete(ctx, publicItemPath(slug, itemID, "reserve"), actorRequest{AnonymousToken: anonymousToken}, nil)
}

// Contribute adds amount towards an item's target.
func (c *Client) Contribute(ctx context.Context, slug, itemID string, amount models.Amount, anonymousToken string) error {
	body := contributeRequest{Amount: amount, AnonymousToken: anonymousToken}
	return c.Post(ctx, publicItemPath(slug, itemID, "contribute"), body, nil)
}

// FetchMeta asks the backend to scrape title, image and price from a product page.
func (c *Client) FetchMeta(ctx context.Context, productURL string) (*models.ProductMeta, error) {
	if u, err := url.ParseRequestURI(strings.TrimSpace(productURL)); err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: url %q", shared.ErrInvalidArgument, productURL)
	}

	var meta models.ProductMeta
	if err := c.Post(ctx, "/meta/fetch", metaRequest{URL: strings.TrimSpace(productURL)}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func itemsPath(wishlistID, itemID string) string {
	p := WishlistKey(wishlistID) + "/items"
	if itemID != "" {
		p += "/" + url.PathEscape(itemID)
	}
	return p
}

func publicItemPath(slug, itemID, action string) string {
	return fmt.Sprintf("/wishlists/public/%s/items/%s/%s", url.PathEscape(slug), url.PathEscape(itemID), action)
}

// notFound tags a bare 404 with a domain sentinel while keeping the [*APIError].
func notFound(err error, sentinel error) error {
	if apiErr, ok := err.(*APIError); ok && apiErr.Status == 404 {
		return fmt.Errorf("%w: %w", sentinel, apiErr)
	}
	return err
}
