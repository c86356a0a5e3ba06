package api

import (
	"context"
	"net/url"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// PolicyService covers the security policy viewer.
type PolicyService struct {
	t *transport.Transport
}

// PolicySection is one section of the active policy document.
type PolicySection struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Actions []PolicyAction `json:"actions"`
}

// PolicyAction is a follow-up item attached to a policy section.
// Completion, assignee and notes for actions are tracked client-side
// (localstore), not on the server.
type PolicyAction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Sections returns the active policy document.
func (s *PolicyService) Sections(ctx context.Context) ([]PolicySection, error) {
	var sections []PolicySection
	err := s.t.Get(ctx, "/api/policy/sections", nil, &sections)
	return sections, err
}

// Acknowledge records that the current user has read a section.
func (s *PolicyService) Acknowledge(ctx context.Context, sectionID string) error {
	return s.t.Post(ctx, "/api/policy/sections/"+url.PathEscape(sectionID)+"/ack", nil, nil)
}
