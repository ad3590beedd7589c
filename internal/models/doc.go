// Package models defines the entities exchanged with the wishlist backend.
//
// The client never treats these values as authoritative: they are snapshots of
// server state, refreshed through the cache after every mutation.
//
//   - [User] and [AuthResponse] : session identity returned by the auth endpoints
//   - [WishlistSummary] : dashboard rows with item counts
//   - [Wishlist] and [Item] : owner and public projections of a wishlist
//   - [WishlistInput], [ItemInput] : request bodies with local validation
//   - [Amount] : money values that decode from JSON numbers or decimal strings
//
// [Item.DisplayProgress] clamps crowd-funding progress to [0,1]; [Item.Remaining]
// is the headroom the contribution guard checks before any network call.
package models
