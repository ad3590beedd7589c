// Package actions reserves, unreserves and contributes to items on public
// wishlists on behalf of either the signed-in user or the profile's anonymous
// identity.
//
// Actions a displayed item does not allow fail with [shared.ErrActionNotAllowed]
// and invalid amounts with [shared.ErrInvalidAmount], both without a request.
// Backend rejections are returned as [*services.APIError] with the server's message.
package actions
