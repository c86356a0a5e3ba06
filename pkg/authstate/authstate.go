package authstate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/rodeo-sec/rodeo-go/pkg/api"
	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// AdminRole is the coarse role that grants everything.
const AdminRole = "admin"

// UserSource supplies the current user and the permission catalog.
// *api.AuthService satisfies it.
type UserSource interface {
	Me(ctx context.Context) (*api.User, error)
	PermissionCatalog(ctx context.Context) ([]string, error)
}

// TokenStore is the persisted bearer-token storage the provider
// consults before deciding whether to call the backend at all.
type TokenStore interface {
	Token() string
	ClearToken() error
}

// Provider is the single source of truth for "who is the current user
// and what can they do". One Provider is shared across the host
// application; all capability checks go through it.
type Provider struct {
	source UserSource
	tokens TokenStore
	logger *slog.Logger

	mu      sync.RWMutex
	user    *api.User
	perms   map[string]struct{}
	roles   map[string]struct{}
	catalog []string
}

// New creates a Provider. Call Load before the first capability check.
func New(source UserSource, tokens TokenStore, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{source: source, tokens: tokens, logger: logger}
}

// Load resolves the current identity. Without a persisted token it
// resolves to logged-out immediately, with no network call. A 401 or
// 403 from the current-user endpoint purges the persisted token and
// resolves to logged-out; any other failure is returned as an error
// with the previous state intact.
func (p *Provider) Load(ctx context.Context) error {
	if p.tokens.Token() == "" {
		p.Clear()
		return nil
	}

	user, err := p.source.Me(ctx)
	if err != nil {
		status := transport.StatusOf(err)
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			if clearErr := p.tokens.ClearToken(); clearErr != nil {
				p.logger.Warn("failed to purge invalid token", "error", clearErr)
			}
			p.Clear()
			return nil
		}
		return fmt.Errorf("authstate: load current user: %w", err)
	}

	p.mu.Lock()
	p.user = user
	p.perms = toSet(user.Permissions)
	p.roles = toSet(user.Roles)
	p.mu.Unlock()
	return nil
}

// Refresh re-fetches the current user. Used after role or permission
// mutations elsewhere in the app.
func (p *Provider) Refresh(ctx context.Context) error {
	return p.Load(ctx)
}

// Clear resets all cached identity state. Used on explicit logout.
func (p *Provider) Clear() {
	p.mu.Lock()
	p.user = nil
	p.perms = nil
	p.roles = nil
	p.mu.Unlock()
}

// IsAuthenticated reports whether a user is loaded.
func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user != nil
}

// User returns the cached current user, or nil when logged out.
func (p *Provider) User() *api.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user
}

// HasPermission reports whether the user holds permission perm.
func (p *Provider) HasPermission(perm string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.perms[perm]
	return ok
}

// HasAnyPermission reports whether the user holds at least one of perms.
func (p *Provider) HasAnyPermission(perms ...string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, perm := range perms {
		if _, ok := p.perms[perm]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the user holds every one of perms.
func (p *Provider) HasAllPermissions(perms ...string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, perm := range perms {
		if _, ok := p.perms[perm]; !ok {
			return false
		}
	}
	return true
}

// HasRole reports whether the user holds role r.
func (p *Provider) HasRole(r string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.roles[r]
	return ok
}

// IsAdmin reports whether the user holds the admin role, or failing
// that, a permission set covering the platform's full permission
// catalog. The catalog is fetched once and cached; when it cannot be
// fetched the role check alone decides.
func (p *Provider) IsAdmin(ctx context.Context) bool {
	if p.HasRole(AdminRole) {
		return true
	}
	if !p.IsAuthenticated() {
		return false
	}

	catalog, err := p.permissionCatalog(ctx)
	if err != nil {
		p.logger.Warn("permission catalog unavailable", "error", err)
		return false
	}
	if len(catalog) == 0 {
		return false
	}
	return p.HasAllPermissions(catalog...)
}

func (p *Provider) permissionCatalog(ctx context.Context) ([]string, error) {
	p.mu.RLock()
	cached := p.catalog
	p.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	catalog, err := p.source.PermissionCatalog(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.catalog = catalog
	p.mu.Unlock()
	return catalog, nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
