// Package notify delivers user-facing notifications from the SDK to the
// host application.
//
// The transport's failure classifier and the login flow both report
// through a Notifier. Hosts provide an implementation that fits their
// surface; tests use Capture to assert on what was shown.
package notify
