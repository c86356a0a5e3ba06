package rodeotest_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/api"
	"github.com/rodeo-sec/rodeo-go/pkg/csrf"
	"github.com/rodeo-sec/rodeo-go/pkg/localstore"
	"github.com/rodeo-sec/rodeo-go/pkg/notify"
	"github.com/rodeo-sec/rodeo-go/pkg/rodeotest"
	"github.com/rodeo-sec/rodeo-go/pkg/stream"
	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// newClient wires the full client stack against the stub.
func newClient(t *testing.T, baseURL string) (*api.Client, *localstore.Store, *notify.Capture) {
	t.Helper()
	store := localstore.NewMemory()
	capture := &notify.Capture{}

	var tr *transport.Transport
	cache := csrf.New(func(ctx context.Context) (string, time.Duration, error) {
		return api.New(tr).Auth.CSRFToken(ctx)
	})
	tr = transport.New(transport.Config{
		BaseURL:             baseURL,
		Tokens:              store,
		CSRF:                cache,
		Notifier:            capture,
		SessionExpiredDelay: -1,
	})
	return api.New(tr), store, capture
}

func TestLoginAttemptAccounting(t *testing.T) {
	_, ts := rodeotest.Start(t, rodeotest.Config{})
	client, _, _ := newClient(t, ts.URL)
	ctx := context.Background()

	// First two failures count down the remaining attempts.
	for i, wantRemaining := range []string{"2", "1"} {
		_, err := client.Auth.Login(ctx, api.LoginRequest{Username: "analyst1", Password: "nope"})
		apiErr, ok := transport.AsError(err)
		if !ok || apiErr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: got %v, want 401", i+1, err)
		}
		if got := apiErr.Header.Get(api.HeaderAttemptsRemaining); got != wantRemaining {
			t.Errorf("attempt %d: X-Attempts-Remaining = %q, want %q", i+1, got, wantRemaining)
		}
	}

	// Third failure locks the account.
	_, err := client.Auth.Login(ctx, api.LoginRequest{Username: "analyst1", Password: "nope"})
	apiErr, ok := transport.AsError(err)
	if !ok || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("third attempt: got %v, want 429", err)
	}
	if got := apiErr.Header.Get(api.HeaderLockoutSeconds); got != "300" {
		t.Errorf("X-Lockout-Seconds = %q, want 300", got)
	}

	// Correct credentials are refused while locked.
	_, err = client.Auth.Login(ctx, api.LoginRequest{Username: "analyst1", Password: "secret99"})
	if transport.StatusOf(err) != http.StatusTooManyRequests {
		t.Errorf("login during lockout: got %v, want 429", err)
	}
}

func TestLoginAndAuthenticatedRequests(t *testing.T) {
	_, ts := rodeotest.Start(t, rodeotest.Config{})
	client, store, _ := newClient(t, ts.URL)
	ctx := context.Background()

	res, err := client.Auth.Login(ctx, api.LoginRequest{Username: "analyst1", Password: "secret99"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := store.SetToken(res.AccessToken); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	me, err := client.Auth.Me(ctx)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Username != "analyst1" {
		t.Errorf("Me: got %q", me.Username)
	}

	catalog, err := client.Auth.PermissionCatalog(ctx)
	if err != nil {
		t.Fatalf("PermissionCatalog: %v", err)
	}
	if len(catalog) == 0 {
		t.Error("empty permission catalog")
	}

	samples, err := client.Samples.List(ctx, api.SampleFilter{})
	if err != nil {
		t.Fatalf("Samples.List: %v", err)
	}
	if len(samples) != 2 {
		t.Errorf("samples: got %d, want 2", len(samples))
	}
}

func TestSampleSubmitAndReclassify(t *testing.T) {
	srv, ts := rodeotest.Start(t, rodeotest.Config{})
	client, store, _ := newClient(t, ts.URL)
	ctx := context.Background()

	store.SetToken(srv.IssueToken("analyst1"))

	created, err := client.Samples.Submit(ctx, api.Sample{Filename: "payload.dll", Verdict: "suspicious"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if created.ID == "" {
		t.Fatal("submitted sample has no ID")
	}
	if created.SubmittedAt.IsZero() {
		t.Error("submitted sample has no timestamp")
	}

	if err := client.Samples.Reclassify(ctx, created.ID, "malicious"); err != nil {
		t.Fatalf("Reclassify: %v", err)
	}
	got, err := client.Samples.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Verdict != "malicious" {
		t.Errorf("verdict after reclassify: got %q, want malicious", got.Verdict)
	}

	err = client.Samples.Reclassify(ctx, "smp-missing", "benign")
	if transport.StatusOf(err) != http.StatusNotFound {
		t.Errorf("reclassify unknown sample: got %v, want 404", err)
	}
}

func TestCSRFRefreshAndRetry(t *testing.T) {
	srv, ts := rodeotest.Start(t, rodeotest.Config{})
	client, store, capture := newClient(t, ts.URL)
	ctx := context.Background()

	store.SetToken(srv.IssueToken("analyst1"))

	// First mutating call fetches a CSRF token and succeeds.
	if _, err := client.Samples.Submit(ctx, api.Sample{ID: "smp-9", Filename: "new.bin"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Server-side expiry: the cached token is now stale. The transport
	// must refresh and retry transparently, without surfacing a notice.
	srv.ExpireCSRFTokens()
	if _, err := client.Samples.Submit(ctx, api.Sample{ID: "smp-10", Filename: "other.bin"}); err != nil {
		t.Fatalf("Submit after CSRF expiry: %v", err)
	}
	if n := len(capture.Notices()); n != 0 {
		t.Errorf("transparent CSRF retry surfaced %d notices: %+v", n, capture.Notices())
	}
}

func TestSessionRevocationPurgesToken(t *testing.T) {
	srv, ts := rodeotest.Start(t, rodeotest.Config{})
	client, store, capture := newClient(t, ts.URL)
	ctx := context.Background()

	store.SetToken(srv.IssueToken("analyst1"))
	srv.RevokeSessions()

	_, err := client.Samples.List(ctx, api.SampleFilter{})
	if transport.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401", err)
	}
	if store.Token() != "" {
		t.Error("revoked session's token still stored")
	}
	if last := capture.Last(); last.Title != "Session Expired" {
		t.Errorf("notice: got %+v, want Session Expired", last)
	}
}

func TestAlertFeed(t *testing.T) {
	srv, ts := rodeotest.Start(t, rodeotest.Config{})
	store := localstore.NewMemory()
	store.SetToken(srv.IssueToken("analyst1"))

	conn, err := stream.Dial(context.Background(), stream.Config{
		BaseURL: ts.URL,
		Tokens:  store,
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	srv.PushAlert(stream.Alert{ID: "al-7", Severity: "critical", Title: "C2 beacon observed"})

	select {
	case alert := <-conn.Events():
		if alert.ID != "al-7" || alert.Severity != "critical" {
			t.Errorf("alert: got %+v", alert)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
	}
}
