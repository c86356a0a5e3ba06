// Package authstate caches the authenticated user's identity,
// permissions and roles, and answers capability checks for UI gating.
//
// It is the second place, besides the transport's 401 handling, where
// an invalid persisted token is actively purged.
package authstate
