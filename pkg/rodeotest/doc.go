// Package rodeotest provides an in-process stub of the RODEO backend
// for tests: real CSRF issuance and enforcement, login attempt
// accounting with lockout, bearer-session checks and representative
// resource endpoints. Tests run the whole client stack against it
// without a platform deployment.
package rodeotest
