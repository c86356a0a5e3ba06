// Package middleware provides optional transport middleware for the
// API client: Prometheus request metrics and OpenTelemetry client
// spans. Both are plain transport.Middleware values and compose with
// any other middleware in transport.Config.
package middleware
