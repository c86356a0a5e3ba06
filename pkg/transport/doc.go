// Package transport is the authenticated HTTP layer under every domain
// API module.
//
// A Transport decorates each outgoing request (bearer token from
// persistent storage, CSRF token on mutating verbs), sends it through
// an explicit middleware chain, and classifies every failure response
// in one place: session expiry on 401, a single silent CSRF retry on
// token-flavored 403s, and user-facing notices for everything else.
// After its side effect runs, the classifier re-returns the original
// failure so call sites keep their own error handling.
package transport
