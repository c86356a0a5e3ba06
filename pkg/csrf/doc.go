// Package csrf caches the anti-forgery token attached to mutating
// requests.
//
// The token has its own lifecycle, separate from the session bearer
// token: it is fetched lazily on the first mutating request, cached in
// memory only, refreshed once after a CSRF-flavored 403, and discarded
// on any fetch failure rather than blocking the request.
package csrf
