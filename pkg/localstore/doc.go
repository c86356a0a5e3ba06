// Package localstore persists small client-side state between runs:
// the session bearer token, the threat-intel lookup history, and the
// policy viewer's shift tracking maps.
//
// Everything lives in one JSON document on disk. Writes go through a
// temp-file rename and token writes are idempotent (delete-if-present,
// set-once), so concurrent writers cannot leave the token torn.
package localstore
