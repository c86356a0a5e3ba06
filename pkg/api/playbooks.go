package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// PlaybooksService covers incident-response playbooks.
type PlaybooksService struct {
	t *transport.Transport
}

// Playbook is a named response procedure.
type Playbook struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Steps []string `json:"steps"`
}

// List returns all playbooks.
func (s *PlaybooksService) List(ctx context.Context) ([]Playbook, error) {
	var playbooks []Playbook
	err := s.t.Get(ctx, "/api/playbooks", nil, &playbooks)
	return playbooks, err
}

// Run triggers a playbook against a target.
func (s *PlaybooksService) Run(ctx context.Context, id, target string) error {
	body := map[string]string{"target": target}
	return s.t.Post(ctx, "/api/playbooks/"+url.PathEscape(id)+"/run", body, nil)
}
