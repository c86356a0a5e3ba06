package transport

import "context"

// Handler executes one API request. The transport's core handler is a
// Handler; middleware wrap it.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Middleware wraps a Handler with cross-cutting behavior (metrics,
// tracing, logging). Middleware run in the order given: the first one
// in the chain sees the request first and the response last.
//
// The interceptor hooks of a particular HTTP client library are
// deliberately not used; the chain is a plain ordered function list so
// each link is testable on its own.
type Middleware func(next Handler) Handler

// Chain composes middleware around a terminal handler.
func Chain(terminal Handler, mws ...Middleware) Handler {
	h := terminal
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
