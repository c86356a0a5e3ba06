package api

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

func itoa(n int) string { return strconv.Itoa(n) }

// VulnerabilitiesService covers the vulnerability dashboard endpoints.
type VulnerabilitiesService struct {
	t *transport.Transport
}

// Vulnerability is one tracked finding.
type Vulnerability struct {
	ID         string    `json:"id"`
	CVE        string    `json:"cve"`
	Severity   string    `json:"severity"`
	CVSS       float64   `json:"cvss"`
	Status     string    `json:"status"`
	AssetCount int       `json:"asset_count"`
	FirstSeen  time.Time `json:"first_seen"`
}

// List returns vulnerabilities, optionally filtered by severity.
func (s *VulnerabilitiesService) List(ctx context.Context, severity string) ([]Vulnerability, error) {
	var q url.Values
	if severity != "" {
		q = url.Values{"severity": {severity}}
	}
	var vulns []Vulnerability
	err := s.t.Get(ctx, "/api/vulnerabilities", q, &vulns)
	return vulns, err
}

// Get returns one vulnerability.
func (s *VulnerabilitiesService) Get(ctx context.Context, id string) (*Vulnerability, error) {
	var v Vulnerability
	if err := s.t.Get(ctx, "/api/vulnerabilities/"+url.PathEscape(id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateStatus moves a vulnerability through triage.
func (s *VulnerabilitiesService) UpdateStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"status": status}
	return s.t.Patch(ctx, "/api/vulnerabilities/"+url.PathEscape(id), body, nil)
}
