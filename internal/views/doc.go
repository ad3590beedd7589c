// Package views mounts a single wishlist view on top of the shared cache and
// keeps it current through the wishlist's live channel.
//
// A view is either the public projection (by slug) or the owner projection (by
// id). Changing the slug closes the old channel before the new one opens, so at
// most one channel is ever open per [Manager].
package views
