// Package login implements the login page's state machine: field
// validation on blur and submit, the credential exchange, lockout
// countdown presentation, and the offline development fallback.
package login
