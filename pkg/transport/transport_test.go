package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/csrf"
	"github.com/rodeo-sec/rodeo-go/pkg/localstore"
	"github.com/rodeo-sec/rodeo-go/pkg/notify"
	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// fakeCSRF is a CSRFSource with scripted tokens.
type fakeCSRF struct {
	tokens      []string
	idx         atomic.Int64
	invalidated atomic.Int64
}

func (f *fakeCSRF) Get(ctx context.Context) string {
	i := int(f.idx.Add(1)) - 1
	if i >= len(f.tokens) {
		return ""
	}
	return f.tokens[i]
}

func (f *fakeCSRF) Invalidate() { f.invalidated.Add(1) }

func newTransport(t *testing.T, baseURL string, opts func(*transport.Config)) (*transport.Transport, *localstore.Store, *notify.Capture) {
	t.Helper()
	store := localstore.NewMemory()
	capture := &notify.Capture{}
	cfg := transport.Config{
		BaseURL:             baseURL,
		Tokens:              store,
		Notifier:            capture,
		SessionExpiredDelay: -1,
	}
	if opts != nil {
		opts(&cfg)
	}
	return transport.New(cfg), store, capture
}

func TestBearerAttachedFromStore(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tr, store, _ := newTransport(t, srv.URL, nil)
	store.SetToken("test-token-123")

	if err := tr.Get(context.Background(), "/api/users/me", nil, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer test-token-123" {
		t.Errorf("Authorization: got %q, want Bearer test-token-123", gotAuth)
	}
}

func TestCSRFOnlyOnMutatingVerbs(t *testing.T) {
	headers := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers[r.Method] = r.Header.Get(transport.CSRFHeader)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	source := &fakeCSRF{tokens: []string{"c1", "c2", "c3", "c4"}}
	tr, _, _ := newTransport(t, srv.URL, func(cfg *transport.Config) {
		cfg.CSRF = source
	})

	ctx := context.Background()
	tr.Get(ctx, "/api/samples", nil, nil)
	tr.Post(ctx, "/api/samples", map[string]string{"name": "x"}, nil)
	tr.Delete(ctx, "/api/samples/1")

	if headers[http.MethodGet] != "" {
		t.Errorf("GET carried CSRF header %q", headers[http.MethodGet])
	}
	if headers[http.MethodPost] == "" {
		t.Error("POST missing CSRF header")
	}
	if headers[http.MethodDelete] == "" {
		t.Error("DELETE missing CSRF header")
	}
}

func TestCSRF403RetriedExactlyOnce(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get(transport.CSRFHeader) == "fresh" {
			w.Write([]byte(`{"ok":true}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"CSRF token invalid"}`))
	}))
	defer srv.Close()

	source := &fakeCSRF{tokens: []string{"stale", "fresh"}}
	tr, _, _ := newTransport(t, srv.URL, func(cfg *transport.Config) {
		cfg.CSRF = source
	})

	if err := tr.Post(context.Background(), "/api/policy", map[string]string{}, nil); err != nil {
		t.Fatalf("Post after retry: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("server calls: got %d, want 2 (original + one retry)", n)
	}
	if n := source.invalidated.Load(); n != 1 {
		t.Errorf("cache invalidations: got %d, want 1", n)
	}
}

func TestCSRFRetryPassesThroughMiddleware(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(transport.CSRFHeader) == "fresh" {
			w.Write([]byte(`{"ok":true}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"CSRF token invalid"}`))
	}))
	defer srv.Close()

	var attempts atomic.Int64
	counting := func(next transport.Handler) transport.Handler {
		return func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			attempts.Add(1)
			return next(ctx, req)
		}
	}

	source := &fakeCSRF{tokens: []string{"stale", "fresh"}}
	tr, _, _ := newTransport(t, srv.URL, func(cfg *transport.Config) {
		cfg.CSRF = source
		cfg.Middleware = []transport.Middleware{counting}
	})

	if err := tr.Post(context.Background(), "/api/policy", map[string]string{}, nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("middleware saw %d attempts, want 2 (original + retry)", n)
	}
}

func TestSecondCSRF403Surfaces(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"CSRF token invalid"}`))
	}))
	defer srv.Close()

	source := &fakeCSRF{tokens: []string{"one", "two", "three"}}
	tr, _, capture := newTransport(t, srv.URL, func(cfg *transport.Config) {
		cfg.CSRF = source
	})

	err := tr.Post(context.Background(), "/api/policy", map[string]string{}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("server calls: got %d, want 2 (never a second retry)", n)
	}
	last := capture.Last()
	if last.Title != "Security Token Expired" {
		t.Errorf("notice title: got %q, want Security Token Expired", last.Title)
	}
}

func TestPlain403IsPermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"missing role: admin"}`))
	}))
	defer srv.Close()

	source := &fakeCSRF{tokens: []string{"a", "b"}}
	tr, _, capture := newTransport(t, srv.URL, func(cfg *transport.Config) {
		cfg.CSRF = source
	})

	err := tr.Post(context.Background(), "/api/users", map[string]string{}, nil)
	if transport.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", transport.StatusOf(err))
	}
	if n := source.invalidated.Load(); n != 0 {
		t.Errorf("plain 403 invalidated the CSRF cache %d times", n)
	}
	if got := capture.Last().Title; got != "Permission Denied" {
		t.Errorf("notice title: got %q, want Permission Denied", got)
	}
}

func TestUnauthorizedPurgesTokenAndNotifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var expired atomic.Bool
	tr, store, capture := newTransport(t, srv.URL, func(cfg *transport.Config) {
		cfg.OnSessionExpired = func() { expired.Store(true) }
	})
	store.SetToken("stale-token")

	err := tr.Get(context.Background(), "/api/users/me", nil, nil)
	if transport.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", transport.StatusOf(err))
	}
	if got := store.Token(); got != "" {
		t.Errorf("token after 401: got %q, want purged", got)
	}
	if got := capture.Last().Title; got != "Session Expired" {
		t.Errorf("notice title: got %q", got)
	}
	if !expired.Load() {
		t.Error("session-expiry callback not invoked")
	}
}

func TestNotFoundNoticeGatedByNamespace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tr, _, capture := newTransport(t, srv.URL, nil)
	ctx := context.Background()

	tr.Get(ctx, "/static/logo.svg", nil, nil)
	if n := len(capture.Notices()); n != 0 {
		t.Errorf("non-API 404 produced %d notices, want 0", n)
	}

	tr.Get(ctx, "/api/watchers/99", nil, nil)
	if got := capture.Last().Title; got != "Not Found" {
		t.Errorf("API 404 notice: got %q, want Not Found", got)
	}
}

func TestRateLimitIncludesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr, _, capture := newTransport(t, srv.URL, nil)
	tr.Get(context.Background(), "/api/intel/lookup", nil, nil)

	msg := capture.Last().Message
	if !strings.Contains(msg, "30 seconds") {
		t.Errorf("rate-limit notice %q does not include wait time", msg)
	}
}

func TestServerErrorCarriesReportAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr, _, capture := newTransport(t, srv.URL, nil)
	tr.Get(context.Background(), "/api/patches", nil, nil)

	last := capture.Last()
	if last.ActionLabel != "Report issue" {
		t.Errorf("5xx notice action: got %q, want Report issue", last.ActionLabel)
	}
}

func TestValidationNoticeUsesServerDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"name must not be empty"}`))
	}))
	defer srv.Close()

	tr, _, capture := newTransport(t, srv.URL, nil)
	err := tr.Post(context.Background(), "/api/playbooks", map[string]string{}, nil)

	apiErr, ok := transport.AsError(err)
	if !ok || apiErr.Detail != "name must not be empty" {
		t.Fatalf("error detail: got %+v", err)
	}
	if !strings.Contains(capture.Last().Message, "name must not be empty") {
		t.Errorf("422 notice %q missing server detail", capture.Last().Message)
	}
}

func TestNetworkFailureClassifiedAsConnectivity(t *testing.T) {
	// Point at a closed port.
	tr, _, capture := newTransport(t, "http://127.0.0.1:1", nil)

	err := tr.Get(context.Background(), "/api/users/me", nil, nil)
	apiErr, ok := transport.AsError(err)
	if !ok || !apiErr.IsNetwork() {
		t.Fatalf("expected network error, got %v", err)
	}
	if apiErr.Timeout {
		t.Error("connection refused misclassified as timeout")
	}
	if got := capture.Last().Title; got != "Connection Failed" {
		t.Errorf("notice title: got %q, want Connection Failed", got)
	}
}

func TestTimeoutClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	tr, _, capture := newTransport(t, srv.URL, func(cfg *transport.Config) {
		cfg.Timeout = 20 * time.Millisecond
	})

	err := tr.Get(context.Background(), "/api/samples", nil, nil)
	apiErr, ok := transport.AsError(err)
	if !ok || !apiErr.Timeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if got := capture.Last().Title; got != "Request Timed Out" {
		t.Errorf("notice title: got %q, want Request Timed Out", got)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var order []string
	mk := func(name string) transport.Middleware {
		return func(next transport.Handler) transport.Handler {
			return func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
				order = append(order, name+":before")
				res, err := next(ctx, req)
				order = append(order, name+":after")
				return res, err
			}
		}
	}

	tr, _, _ := newTransport(t, srv.URL, func(cfg *transport.Config) {
		cfg.Middleware = []transport.Middleware{mk("outer"), mk("inner")}
	})
	tr.Get(context.Background(), "/api/edr/agents", nil, nil)

	want := []string{"outer:before", "inner:before", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("order: got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order: got %v, want %v", order, want)
		}
	}
}

func TestConcurrentMutationsShareOneCSRFFetch(t *testing.T) {
	var tokenFetches atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		tokenFetches.Add(1)
		time.Sleep(30 * time.Millisecond)
		w.Write([]byte(`{"csrf_token":"shared"}`))
	})
	mux.HandleFunc("/api/feedback", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cache := csrf.New(func(ctx context.Context) (string, time.Duration, error) {
		res, err := http.Get(srv.URL + "/auth/csrf-token")
		if err != nil {
			return "", 0, err
		}
		defer res.Body.Close()
		var body struct {
			Token string `json:"csrf_token"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return "", 0, err
		}
		return body.Token, time.Hour, nil
	})

	tr, _, _ := newTransport(t, srv.URL, func(cfg *transport.Config) {
		cfg.CSRF = cache
	})

	const n = 8
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			done <- tr.Post(context.Background(), "/api/feedback", map[string]string{"text": "hi"}, nil)
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-done; err != nil {
			t.Fatalf("Post %d: %v", i, err)
		}
	}
	if got := tokenFetches.Load(); got != 1 {
		t.Errorf("csrf fetches: got %d, want 1", got)
	}
}
