// Package api exposes one typed service per backend resource. Every
// service is a thin verb+path+body mapping through the transport; all
// protocol behavior (tokens, CSRF, failure classification) lives in
// pkg/transport.
package api
