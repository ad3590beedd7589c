// Package auth manages the signed-in user for a profile.
//
// A [Session] starts in [StateUnknown] and moves to [StateAuthenticated] or
// [StateAnonymous]:
//
//	unknown --Init, no credential------------> anonymous
//	unknown --Init, /auth/me ok--------------> authenticated
//	unknown --Init, /auth/me failed----------> anonymous (credential cleared)
//	*       --Login/Register/ExchangeOAuthCode-> authenticated
//	*       --Logout-------------------------> anonymous
//
// A resolution that finishes after a login or logout is discarded, so it never
// overwrites the newer state.
package auth
