package api

import (
	"context"
	"net/url"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// UsersService manages users and their role assignments.
type UsersService struct {
	t *transport.Transport
}

// Role is a named permission bundle.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// List returns all users.
func (s *UsersService) List(ctx context.Context) ([]User, error) {
	var users []User
	err := s.t.Get(ctx, "/api/users", nil, &users)
	return users, err
}

// Get returns one user by ID.
func (s *UsersService) Get(ctx context.Context, id string) (*User, error) {
	var u User
	if err := s.t.Get(ctx, "/api/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create adds a user.
func (s *UsersService) Create(ctx context.Context, u User) (*User, error) {
	var created User
	if err := s.t.Post(ctx, "/api/users", u, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces a user's mutable fields.
func (s *UsersService) Update(ctx context.Context, id string, u User) error {
	return s.t.Put(ctx, "/api/users/"+url.PathEscape(id), u, nil)
}

// Delete removes a user.
func (s *UsersService) Delete(ctx context.Context, id string) error {
	return s.t.Delete(ctx, "/api/users/"+url.PathEscape(id))
}

// Roles returns the role catalog.
func (s *UsersService) Roles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := s.t.Get(ctx, "/api/roles", nil, &roles)
	return roles, err
}

// AssignRole grants a role to a user.
func (s *UsersService) AssignRole(ctx context.Context, userID, roleID string) error {
	body := map[string]string{"role_id": roleID}
	return s.t.Post(ctx, "/api/users/"+url.PathEscape(userID)+"/roles", body, nil)
}

// RevokeRole removes a role from a user.
func (s *UsersService) RevokeRole(ctx context.Context, userID, roleID string) error {
	return s.t.Delete(ctx, "/api/users/"+url.PathEscape(userID)+"/roles/"+url.PathEscape(roleID))
}
