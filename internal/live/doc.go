// Package live follows a wishlist's push endpoint and turns every message into a
// cache revalidation.
//
// Messages are treated as a dirty bit; their content is ignored. A lost channel
// is logged and left closed, and the data already on screen stays valid.
package live
