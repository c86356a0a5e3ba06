package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rodeo-sec/rodeo-go/internal/notices"
	"github.com/rodeo-sec/rodeo-go/pkg/notify"
)

// serverDetail is the failure body shape the backend uses.
type serverDetail struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func parseDetail(body []byte) string {
	var d serverDetail
	if err := json.Unmarshal(body, &d); err != nil {
		return ""
	}
	if d.Detail != "" {
		return d.Detail
	}
	return d.Message
}

// classifyNetwork distinguishes a timeout from a connectivity failure.
// Neither is retried.
func (t *Transport) classifyNetwork(err error) *Error {
	timeout := false
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timeout") {
		timeout = true
	}

	code := notices.CodeConnectivity
	if timeout {
		code = notices.CodeTimeout
	}
	return &Error{Code: code, Timeout: timeout, Err: err}
}

func (t *Transport) notifyNetwork(apiErr *Error) {
	tmpl := notices.Get(apiErr.Code)
	notify.WithTitle(t.notifier, notify.LevelError, tmpl.Title, tmpl.Message)
}

// handleFailure classifies a failure response and performs the shared
// side effect for its status, then returns the classified error so the
// caller's own handling still runs. The one exception is a successful
// CSRF retry, whose (possibly successful) resend result replaces the
// original failure.
func (t *Transport) handleFailure(ctx context.Context, req *Request, status int, header http.Header, body []byte) (*Response, error) {
	detail := parseDetail(body)
	apiErr := &Error{StatusCode: status, Detail: detail, Header: header}

	switch {
	case status == http.StatusUnauthorized && req.SkipAuthInvalidation:
		// Credential failure on the login endpoint itself; the login
		// flow owns the user-facing handling.
		apiErr.Code = notices.CodeSessionExpired

	case status == http.StatusUnauthorized:
		apiErr.Code = notices.CodeSessionExpired
		t.expireSession()

	case status == http.StatusForbidden && isCSRFFlavored(detail):
		if res, retried, err := t.retryCSRF(ctx, req); retried {
			return res, err
		}
		apiErr.Code = notices.CodeCSRFExpired
		tmpl := notices.Get(apiErr.Code)
		notify.WithTitle(t.notifier, notify.LevelError, tmpl.Title, tmpl.Message)

	case status == http.StatusForbidden:
		apiErr.Code = notices.CodeForbidden
		tmpl := notices.Get(apiErr.Code)
		notify.WithTitle(t.notifier, notify.LevelError, tmpl.Title, tmpl.Message)

	case status == http.StatusNotFound:
		apiErr.Code = notices.CodeNotFound
		if t.inAPINamespace(req.Path) {
			tmpl := notices.Get(apiErr.Code)
			notify.WithTitle(t.notifier, notify.LevelWarning, tmpl.Title, tmpl.Message)
		}

	case status == http.StatusUnprocessableEntity:
		apiErr.Code = notices.CodeValidation
		tmpl := notices.Get(apiErr.Code)
		notify.WithTitle(t.notifier, notify.LevelWarning, tmpl.Title, notices.WithDetail(apiErr.Code, detail))

	case status == http.StatusTooManyRequests:
		apiErr.Code = notices.CodeRateLimited
		tmpl := notices.Get(apiErr.Code)
		msg := tmpl.Message
		if wait := header.Get("Retry-After"); wait != "" {
			msg = fmt.Sprintf("%s Try again in %s seconds.", tmpl.Message, wait)
		}
		notify.WithTitle(t.notifier, notify.LevelWarning, tmpl.Title, msg)

	case status >= 500 && status <= 504:
		apiErr.Code = notices.CodeServerError
		tmpl := notices.Get(apiErr.Code)
		notify.WithAction(t.notifier, notify.LevelError, tmpl.Title, tmpl.Message, "Report issue", "report-issue")

	default:
		apiErr.Code = notices.CodeGeneric
		tmpl := notices.Get(apiErr.Code)
		notify.WithTitle(t.notifier, notify.LevelError, tmpl.Title,
			fmt.Sprintf("%s (status %d)", tmpl.Message, status))
	}

	t.logger.Warn("request failed",
		"method", req.Method, "path", req.Path,
		"status", status, "code", apiErr.Code)

	return nil, apiErr
}

// expireSession hard-invalidates the current session: the persisted
// bearer token is purged, the user is told, and after a short delay the
// host's session-expiry callback runs. Never retried.
func (t *Transport) expireSession() {
	if t.tokens != nil {
		if err := t.tokens.ClearToken(); err != nil {
			t.logger.Warn("failed to clear session token", "error", err)
		}
	}
	tmpl := notices.Get(notices.CodeSessionExpired)
	notify.WithTitle(t.notifier, notify.LevelError, tmpl.Title, tmpl.Message)

	if t.onExpired != nil {
		if t.expiredDelay > 0 {
			time.AfterFunc(t.expiredDelay, t.onExpired)
		} else {
			t.onExpired()
		}
	}
}

// retryCSRF refreshes the anti-forgery token and resends the request,
// at most once per original request. Returns retried=false when no
// retry was possible (no cache, no fresh token, or already retried).
func (t *Transport) retryCSRF(ctx context.Context, req *Request) (*Response, bool, error) {
	if req.csrfRetried || t.csrf == nil {
		return nil, false, nil
	}
	t.csrf.Invalidate()
	fresh := t.csrf.Get(ctx)
	if fresh == "" {
		return nil, false, nil
	}
	req.csrfRetried = true
	req.csrfToken = fresh
	t.logger.Debug("retrying request with refreshed csrf token",
		"method", req.Method, "path", req.Path)
	// Resend through the full chain so middleware (metrics, tracing)
	// observes the retried attempt too.
	res, err := t.handler(ctx, req)
	return res, true, err
}

// isCSRFFlavored reports whether a 403 body names the anti-forgery
// token rather than a plain permission denial.
func isCSRFFlavored(detail string) bool {
	return strings.Contains(strings.ToLower(detail), "csrf")
}

func (t *Transport) inAPINamespace(path string) bool {
	for _, ns := range t.apiNamespaces {
		if strings.HasPrefix(path, ns) {
			return true
		}
	}
	return false
}
