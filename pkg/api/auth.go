package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// AuthService covers the unauthenticated auth endpoints and the
// current-user lookup.
type AuthService struct {
	t *transport.Transport
}

// User is the authenticated identity with its capability strings.
// Permissions are fine-grained checks; roles are coarse bundles.
type User struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

// LoginRequest carries the login credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session bearer token. The token is opaque;
// the client never parses it.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type csrfTokenResponse struct {
	CSRFToken string `json:"csrf_token"`
	ExpiresIn int    `json:"expires_in"`
}

// CSRFToken fetches a fresh anti-forgery token and its server-stated
// lifetime (zero when the server does not state one). This is the
// fetcher behind the csrf.Cache; request flow never calls it directly.
func (s *AuthService) CSRFToken(ctx context.Context) (string, time.Duration, error) {
	var res csrfTokenResponse
	if err := s.t.Get(ctx, "/auth/csrf-token", nil, &res); err != nil {
		return "", 0, err
	}
	return res.CSRFToken, time.Duration(res.ExpiresIn) * time.Second, nil
}

// Login exchanges credentials for a bearer token. Failure statuses:
// 401 bad credentials (X-Attempts-Remaining header), 429 locked out
// (X-Lockout-Seconds header). The shared 401 session handling is
// suppressed for this call; the login flow owns failure presentation.
func (s *AuthService) Login(ctx context.Context, creds LoginRequest) (*LoginResponse, error) {
	req := &transport.Request{
		Method:               http.MethodPost,
		Path:                 "/auth/login",
		Body:                 creds,
		SkipAuthInvalidation: true,
	}
	res, err := s.t.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	var out LoginResponse
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the session server-side.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.t.Post(ctx, "/auth/logout", nil, nil)
}

// Me fetches the current user with permissions and roles.
func (s *AuthService) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.t.Get(ctx, "/api/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// PermissionCatalog returns every permission string the platform
// defines. Used by the admin check to compare a user's permission set
// against the full catalog.
func (s *AuthService) PermissionCatalog(ctx context.Context) ([]string, error) {
	var out struct {
		Permissions []string `json:"permissions"`
	}
	if err := s.t.Get(ctx, "/api/permissions", nil, &out); err != nil {
		return nil, err
	}
	return out.Permissions, nil
}
