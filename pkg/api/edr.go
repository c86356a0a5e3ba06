package api

import (
	"context"
	"net/url"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// EDRService covers endpoint detection and response agents.
type EDRService struct {
	t *transport.Transport
}

// Agent is one managed endpoint.
type Agent struct {
	ID       string    `json:"id"`
	Hostname string    `json:"hostname"`
	OS       string    `json:"os"`
	Status   string    `json:"status"`
	Isolated bool      `json:"isolated"`
	LastSeen time.Time `json:"last_seen"`
}

// Agents returns all managed endpoints.
func (s *EDRService) Agents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	err := s.t.Get(ctx, "/api/edr/agents", nil, &agents)
	return agents, err
}

// Isolate cuts an endpoint off from the network.
func (s *EDRService) Isolate(ctx context.Context, agentID string) error {
	return s.t.Post(ctx, "/api/edr/agents/"+url.PathEscape(agentID)+"/isolate", nil, nil)
}

// Release lifts an endpoint's isolation.
func (s *EDRService) Release(ctx context.Context, agentID string) error {
	return s.t.Post(ctx, "/api/edr/agents/"+url.PathEscape(agentID)+"/release", nil, nil)
}
