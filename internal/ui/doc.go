// Package ui implements a live terminal viewer for a public wishlist using
// bubbletea's Elm architecture.
//
// The [Model] mounts the wishlist through a [Viewer] and redraws whenever the
// viewer publishes a [views.Event], which happens after every live push and
// every action. From the item list:
//
//   - r : reserve the highlighted item
//   - u : release your reservation
//   - c : contribute, with the amount typed into a text input
//   - g : refresh
//
// Guards run before any request so a disallowed action only updates the status
// line. Backend rejections show the server's message.
package ui
