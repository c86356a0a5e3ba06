package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/notify"
)

// DefaultTimeout is the fixed overall per-request timeout.
const DefaultTimeout = 30 * time.Second

// CSRFHeader carries the anti-forgery token on mutating requests.
const CSRFHeader = "X-CSRF-Token"

// sessionExpiredDelay is how long the transport waits after surfacing
// the session-expired notice before invoking the session-expiry
// callback, so the notice is visible before the host navigates away.
const sessionExpiredDelay = 1500 * time.Millisecond

// TokenStore is the persistent bearer-token storage the transport
// reads on every request and purges on 401.
type TokenStore interface {
	Token() string
	ClearToken() error
}

// CSRFSource supplies and invalidates the cached anti-forgery token.
type CSRFSource interface {
	Get(ctx context.Context) string
	Invalidate()
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is JSON-encoded when non-nil.
	Body any

	// Header holds extra per-request headers.
	Header http.Header

	// SkipAuthInvalidation disables the shared 401 handling (token
	// purge, session-expired notice, expiry callback) for this request.
	// The login call sets it: a 401 there means bad credentials, not a
	// dead session.
	SkipAuthInvalidation bool

	// csrfRetried marks that this request already went through one
	// CSRF refresh-and-resend cycle. At most one retry per original
	// request, ever.
	csrfRetried bool

	// csrfToken pins the anti-forgery token for the resend after a
	// CSRF refresh, so the retry provably carries the token that was
	// just fetched rather than whatever the cache returns next.
	csrfToken string
}

// Response is a successful (status < 400) API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into out.
func (r *Response) Decode(out any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("transport: decode response: %w", err)
	}
	return nil
}

// Config configures a Transport.
type Config struct {
	// BaseURL is the API origin, e.g. "https://rodeo.example.com".
	BaseURL string

	// Timeout is the overall per-request timeout. Default 30s.
	Timeout time.Duration

	// DefaultHeader is applied to every request before per-request
	// headers.
	DefaultHeader http.Header

	// Tokens is the persistent bearer-token store. Read per-request,
	// never cached by the transport.
	Tokens TokenStore

	// CSRF is the token cache consulted for mutating verbs. Optional;
	// when nil no CSRF header is attached.
	CSRF CSRFSource

	// Notifier receives the classifier's user-facing notices.
	Notifier notify.Notifier

	// Logger is used for transport-level logging. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// OnSessionExpired is invoked (after a short delay) when a 401
	// hard-invalidates the session; hosts navigate to their login
	// surface here.
	OnSessionExpired func()

	// SessionExpiredDelay overrides the delay before OnSessionExpired.
	// Zero means the default; tests set a negative value for "no delay".
	SessionExpiredDelay time.Duration

	// APINamespaces are the path prefixes whose 404s are user-visible.
	// 404s outside these prefixes (incidental asset lookups) stay
	// silent. Defaults to /api/, /arsenal/ and /auth/.
	APINamespaces []string

	// Middleware wrap the core handler, first entry outermost.
	Middleware []Middleware

	// HTTPClient overrides the underlying client. The configured
	// timeout is applied to it.
	HTTPClient *http.Client
}

// Transport issues authenticated, CSRF-protected requests against the
// RODEO backend. All domain API modules go through one Transport.
type Transport struct {
	baseURL       string
	header        http.Header
	client        *http.Client
	tokens        TokenStore
	csrf          CSRFSource
	notifier      notify.Notifier
	logger        *slog.Logger
	onExpired     func()
	expiredDelay  time.Duration
	apiNamespaces []string
	handler       Handler
}

// New creates a Transport from cfg.
func New(cfg Config) *Transport {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client.Timeout = timeout

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	delay := cfg.SessionExpiredDelay
	switch {
	case delay == 0:
		delay = sessionExpiredDelay
	case delay < 0:
		delay = 0
	}

	namespaces := cfg.APINamespaces
	if namespaces == nil {
		namespaces = []string{"/api/", "/arsenal/", "/auth/"}
	}

	t := &Transport{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		header:        cfg.DefaultHeader,
		client:        client,
		tokens:        cfg.Tokens,
		csrf:          cfg.CSRF,
		notifier:      cfg.Notifier,
		logger:        logger,
		onExpired:     cfg.OnSessionExpired,
		expiredDelay:  delay,
		apiNamespaces: namespaces,
	}
	t.handler = Chain(t.roundTrip, cfg.Middleware...)
	return t
}

// Do executes req through the middleware chain and the classifier.
// On failure the returned error is always a classified *Error; the
// classifier's side effects (notices, token purge, CSRF retry) have
// already run by the time Do returns.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	return t.handler(ctx, req)
}

// Get issues a GET and decodes the JSON response into out (when non-nil).
func (t *Transport) Get(ctx context.Context, path string, query url.Values, out any) error {
	return t.doJSON(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body.
func (t *Transport) Post(ctx context.Context, path string, body, out any) error {
	return t.doJSON(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT with a JSON body.
func (t *Transport) Put(ctx context.Context, path string, body, out any) error {
	return t.doJSON(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch issues a PATCH with a JSON body.
func (t *Transport) Patch(ctx context.Context, path string, body, out any) error {
	return t.doJSON(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE.
func (t *Transport) Delete(ctx context.Context, path string) error {
	return t.doJSON(ctx, &Request{Method: http.MethodDelete, Path: path}, nil)
}

func (t *Transport) doJSON(ctx context.Context, req *Request, out any) error {
	res, err := t.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Decode(out)
}

// roundTrip is the terminal handler: decorate, send, classify.
func (t *Transport) roundTrip(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpRes, err := t.client.Do(httpReq)
	if err != nil {
		apiErr := t.classifyNetwork(err)
		t.notifyNetwork(apiErr)
		return nil, apiErr
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		apiErr := t.classifyNetwork(err)
		t.notifyNetwork(apiErr)
		return nil, apiErr
	}

	if httpRes.StatusCode < 400 {
		return &Response{
			StatusCode: httpRes.StatusCode,
			Header:     httpRes.Header,
			Body:       body,
		}, nil
	}

	return t.handleFailure(ctx, req, httpRes.StatusCode, httpRes.Header, body)
}

// buildRequest assembles the outgoing HTTP request: URL, JSON body,
// default headers, bearer token and (for mutating verbs) CSRF token.
// Missing tokens never block the request; the server enforces policy.
func (t *Transport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u := t.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("transport: encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}

	for k, vs := range t.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Bearer token is read from persistent storage on every request so
	// a purge elsewhere (401 handling, logout) takes effect immediately.
	if t.tokens != nil {
		if tok := t.tokens.Token(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	if isMutating(req.Method) {
		tok := req.csrfToken
		if tok == "" && t.csrf != nil {
			tok = t.csrf.Get(ctx)
		}
		if tok != "" {
			httpReq.Header.Set(CSRFHeader, tok)
		}
	}

	return httpReq, nil
}

func isMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}
