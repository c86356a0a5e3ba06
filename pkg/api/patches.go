package api

import (
	"context"
	"net/url"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// PatchesService covers patch deployment tracking.
type PatchesService struct {
	t *transport.Transport
}

// Patch is an available update for a tracked product.
type Patch struct {
	ID          string    `json:"id"`
	Product     string    `json:"product"`
	Version     string    `json:"version"`
	Criticality string    `json:"criticality"`
	Released    time.Time `json:"released"`
}

// Deployment tracks the rollout of a patch.
type Deployment struct {
	ID        string    `json:"id"`
	PatchID   string    `json:"patch_id"`
	Status    string    `json:"status"`
	Progress  float64   `json:"progress"`
	StartedAt time.Time `json:"started_at"`
}

// List returns available patches.
func (s *PatchesService) List(ctx context.Context) ([]Patch, error) {
	var patches []Patch
	err := s.t.Get(ctx, "/api/patches", nil, &patches)
	return patches, err
}

// Deployments returns rollout status for a patch.
func (s *PatchesService) Deployments(ctx context.Context, patchID string) ([]Deployment, error) {
	var deployments []Deployment
	err := s.t.Get(ctx, "/api/patches/"+url.PathEscape(patchID)+"/deployments", nil, &deployments)
	return deployments, err
}

// Deploy starts a rollout of a patch to a host group.
func (s *PatchesService) Deploy(ctx context.Context, patchID, hostGroup string) (*Deployment, error) {
	body := map[string]string{"host_group": hostGroup}
	var d Deployment
	if err := s.t.Post(ctx, "/api/patches/"+url.PathEscape(patchID)+"/deployments", body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
