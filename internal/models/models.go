package models

import (
	"fmt"
	"net/url"
	"strings"
)

// User is the authenticated account as returned by /auth/me.
type User struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// DisplayName returns the user's name, falling back to the email.
func (u User) DisplayName() string {
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return *u.Name
	}
	return u.Email
}

// AuthResponse is returned by login, register and the OAuth code exchange.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// WishlistSummary is a dashboard row from /wishlists/my.
type WishlistSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Occasion  string `json:"occasion"`
	Slug      string `json:"slug"`
	ItemCount int    `json:"item_count"`
}

// Wishlist is either projection of a wishlist: the owner view (/wishlists/{id})
// or the public view (/wishlists/public/{slug}).
type Wishlist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Occasion string `json:"occasion"`
	Slug     string `json:"slug"`
	Items    []Item `json:"items"`
}

// Item finds an item by ID.
func (w *Wishlist) Item(id string) (*Item, bool) {
	for i := range w.Items {
		if w.Items[i].ID == id {
			return &w.Items[i], true
		}
	}
	return nil, false
}

// Item is a wishlist entry. Viewer-specific fields (ReservedByMe, ContributedByMe)
// are only populated in the public projection.
type Item struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	URL              string  `json:"url"`
	Price            Amount  `json:"price"`
	ImageURL         *string `json:"image_url"`
	TargetAmount     *Amount `json:"target_amount"`
	Reserved         bool    `json:"reserved"`
	ReservedByMe     bool    `json:"reserved_by_me"`
	TotalContributed Amount  `json:"total_contributed"`
	ContributedByMe  Amount  `json:"contributed_by_me"`
	Progress         float64 `json:"progress"`
}

// HasTarget reports whether the item is open to crowd-funding.
func (i Item) HasTarget() bool {
	return i.TargetAmount != nil && *i.TargetAmount > 0
}

// Target returns the crowd-funding target, zero when absent.
func (i Item) Target() Amount {
	if i.TargetAmount == nil {
		return 0
	}
	return *i.TargetAmount
}

// Remaining returns the contribution headroom in whole cents, never negative.
func (i Item) Remaining() Amount {
	if !i.HasTarget() {
		return 0
	}
	rest := i.Target().Cents() - i.TotalContributed.Cents()
	if rest < 0 {
		return 0
	}
	return FromCents(rest)
}

// DisplayProgress is total contributed over target clamped to [0,1].
// Without a target the server-reported progress is clamped instead.
func (i Item) DisplayProgress() float64 {
	p := i.Progress
	if i.HasTarget() {
		p = float64(i.TotalContributed) / float64(i.Target())
	}
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// ReservedByOther reports a reservation held by someone other than the viewer.
func (i Item) ReservedByOther() bool {
	return i.Reserved && !i.ReservedByMe
}

// WishlistInput is the body for creating or renaming a wishlist.
type WishlistInput struct {
	Name     string `json:"name"`
	Occasion string `json:"occasion"`
}

// Validate checks the required fields.
func (in WishlistInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(in.Occasion) == "" {
		return fmt.Errorf("occasion is required")
	}
	return nil
}

// ItemInput is the body for adding an item; nil fields are omitted so the same
// type serves as a PATCH body.
type ItemInput struct {
	Name         *string `json:"name,omitempty"`
	URL          *string `json:"url,omitempty"`
	Price        *Amount `json:"price,omitempty"`
	ImageURL     *string `json:"image_url,omitempty"`
	TargetAmount *Amount `json:"target_amount,omitempty"`
}

// Validate checks an item for creation. Partial updates skip missing fields.
func (in ItemInput) Validate(partial bool) error {
	if !partial {
		if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
			return fmt.Errorf("name is required")
		}
		if in.URL == nil || strings.TrimSpace(*in.URL) == "" {
			return fmt.Errorf("url is required")
		}
	}
	if in.URL != nil {
		if u, err := url.ParseRequestURI(*in.URL); err != nil || u.Host == "" {
			return fmt.Errorf("url %q is not absolute", *in.URL)
		}
	}
	if in.Price != nil && *in.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if in.TargetAmount != nil && *in.TargetAmount < 0 {
		return fmt.Errorf("target amount must not be negative")
	}
	return nil
}

// ProductMeta is what /meta/fetch scrapes from a product page.
type ProductMeta struct {
	Title    string  `json:"title"`
	ImageURL *string `json:"image_url"`
	Price    *Amount `json:"price"`
}

// Ptr returns a pointer to v, for building [ItemInput] values.
func Ptr[T any](v T) *T {
	return &v
}
