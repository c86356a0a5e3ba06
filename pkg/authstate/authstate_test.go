package authstate

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rodeo-sec/rodeo-go/pkg/api"
	"github.com/rodeo-sec/rodeo-go/pkg/localstore"
	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// fakeSource scripts the current-user endpoint.
type fakeSource struct {
	user         *api.User
	meErr        error
	catalog      []string
	catalogErr   error
	meCalls      int
	catalogCalls int
}

func (f *fakeSource) Me(ctx context.Context) (*api.User, error) {
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.user, nil
}

func (f *fakeSource) PermissionCatalog(ctx context.Context) ([]string, error) {
	f.catalogCalls++
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalog, nil
}

func TestLoadWithoutTokenSkipsNetwork(t *testing.T) {
	source := &fakeSource{}
	store := localstore.NewMemory()
	p := New(source, store, nil)

	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.IsAuthenticated() {
		t.Error("logged out provider reports authenticated")
	}
	if source.meCalls != 0 {
		t.Errorf("Me called %d times without a token, want 0", source.meCalls)
	}
}

func TestLoadCachesIdentity(t *testing.T) {
	source := &fakeSource{user: &api.User{
		Username:    "analyst1",
		Permissions: []string{"samples:read", "intel:lookup"},
		Roles:       []string{"analyst"},
	}}
	store := localstore.NewMemory()
	store.SetToken("tok")
	p := New(source, store, nil)

	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !p.IsAuthenticated() {
		t.Fatal("not authenticated after Load")
	}
	if !p.HasPermission("samples:read") {
		t.Error("HasPermission(samples:read) = false")
	}
	if p.HasPermission("users:write") {
		t.Error("HasPermission(users:write) = true")
	}
	if !p.HasAnyPermission("nope", "intel:lookup") {
		t.Error("HasAnyPermission = false")
	}
	if p.HasAllPermissions("samples:read", "users:write") {
		t.Error("HasAllPermissions over-grants")
	}
	if !p.HasRole("analyst") || p.HasRole("admin") {
		t.Error("role membership wrong")
	}
}

func TestLoadUnauthorizedPurgesToken(t *testing.T) {
	source := &fakeSource{meErr: &transport.Error{StatusCode: http.StatusUnauthorized}}
	store := localstore.NewMemory()
	store.SetToken("stale")
	p := New(source, store, nil)

	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load resolved to error, want logged-out: %v", err)
	}
	if p.IsAuthenticated() {
		t.Error("authenticated after 401")
	}
	if store.Token() != "" {
		t.Error("token not purged after 401")
	}

	// Fetch-on-mount after the purge: logged out with zero calls.
	before := source.meCalls
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if source.meCalls != before {
		t.Error("Load made a network call without a token")
	}
}

func TestLoadTransientErrorKeepsState(t *testing.T) {
	source := &fakeSource{user: &api.User{Username: "analyst1"}}
	store := localstore.NewMemory()
	store.SetToken("tok")
	p := New(source, store, nil)
	p.Load(context.Background())

	source.meErr = errors.New("gateway sneezed")
	if err := p.Load(context.Background()); err == nil {
		t.Fatal("expected error for non-auth failure")
	}
	if !p.IsAuthenticated() {
		t.Error("transient failure dropped the cached user")
	}
	if store.Token() == "" {
		t.Error("transient failure purged the token")
	}
}

func TestIsAdmin(t *testing.T) {
	ctx := context.Background()
	catalog := []string{"samples:read", "samples:write", "users:admin"}

	t.Run("AdminRole", func(t *testing.T) {
		source := &fakeSource{user: &api.User{Roles: []string{"admin"}}}
		store := localstore.NewMemory()
		store.SetToken("tok")
		p := New(source, store, nil)
		p.Load(ctx)

		if !p.IsAdmin(ctx) {
			t.Error("admin role not honored")
		}
		if source.catalogCalls != 0 {
			t.Error("catalog fetched despite admin role")
		}
	})

	t.Run("FullCatalog", func(t *testing.T) {
		source := &fakeSource{
			user:    &api.User{Roles: []string{"analyst"}, Permissions: catalog},
			catalog: catalog,
		}
		store := localstore.NewMemory()
		store.SetToken("tok")
		p := New(source, store, nil)
		p.Load(ctx)

		if !p.IsAdmin(ctx) {
			t.Error("full permission catalog not honored")
		}
		// Catalog is cached across checks.
		p.IsAdmin(ctx)
		if source.catalogCalls != 1 {
			t.Errorf("catalog fetched %d times, want 1", source.catalogCalls)
		}
	})

	t.Run("PartialCatalog", func(t *testing.T) {
		source := &fakeSource{
			user:    &api.User{Roles: []string{"analyst"}, Permissions: catalog[:2]},
			catalog: catalog,
		}
		store := localstore.NewMemory()
		store.SetToken("tok")
		p := New(source, store, nil)
		p.Load(ctx)

		if p.IsAdmin(ctx) {
			t.Error("partial permission set treated as admin")
		}
	})

	t.Run("CatalogUnavailable", func(t *testing.T) {
		source := &fakeSource{
			user:       &api.User{Roles: []string{"analyst"}, Permissions: catalog},
			catalogErr: errors.New("unavailable"),
		}
		store := localstore.NewMemory()
		store.SetToken("tok")
		p := New(source, store, nil)
		p.Load(ctx)

		if p.IsAdmin(ctx) {
			t.Error("admin granted with unverifiable catalog")
		}
	})
}

func TestClear(t *testing.T) {
	source := &fakeSource{user: &api.User{Username: "analyst1", Roles: []string{"admin"}}}
	store := localstore.NewMemory()
	store.SetToken("tok")
	p := New(source, store, nil)
	p.Load(context.Background())

	p.Clear()
	if p.IsAuthenticated() || p.HasRole("admin") {
		t.Error("Clear left identity state behind")
	}
}
