// Package server provides the loopback HTTP server used for "Sign in with Google".
//
// # Router Infrastructure
//
// [BasicRouter] wraps [http.ServeMux] with method filtering and [Middleware],
// which runs in the order it was added (first added executes first). A
// [Handler] registers itself on every path it lists.
//
// # OAuth Callback Handler
//
// [OAuthHandler] accepts the redirect Google sends after consent. It checks the
// state parameter the CLI added with [WithState], takes the single-use code and
// sends it through a channel. Only the first callback is processed.
//
// The handler never talks to the backend. The CLI trades the code for a
// credential through the auth session.
//
// # Loopback Flow
//
// [Loopback.WaitForCode] binds the callback address (127.0.0.1:3000 by default,
// matching the backend's redirect URI), serves the handler and shuts the server
// down once a code, an error or the timeout arrives.
package server
