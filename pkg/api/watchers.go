package api

import (
	"context"
	"net/url"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// WatchersService covers saved alert watchers.
type WatchersService struct {
	t *transport.Transport
}

// Watcher is a saved query that raises alerts on match.
type Watcher struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Query   string `json:"query"`
	Enabled bool   `json:"enabled"`
}

// List returns the current user's watchers.
func (s *WatchersService) List(ctx context.Context) ([]Watcher, error) {
	var watchers []Watcher
	err := s.t.Get(ctx, "/api/watchers", nil, &watchers)
	return watchers, err
}

// Create adds a watcher.
func (s *WatchersService) Create(ctx context.Context, w Watcher) (*Watcher, error) {
	var created Watcher
	if err := s.t.Post(ctx, "/api/watchers", w, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Delete removes a watcher.
func (s *WatchersService) Delete(ctx context.Context, id string) error {
	return s.t.Delete(ctx, "/api/watchers/"+url.PathEscape(id))
}
