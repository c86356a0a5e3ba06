package api

import (
	"context"
	"net/url"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// IntelService covers threat-intelligence lookups and feeds.
type IntelService struct {
	t *transport.Transport
}

// IntelReport is the enrichment result for one indicator.
type IntelReport struct {
	Indicator string   `json:"indicator"`
	Type      string   `json:"type"`
	Score     int      `json:"score"`
	Tags      []string `json:"tags"`
	Sources   []string `json:"sources"`
	FirstSeen string   `json:"first_seen"`
	LastSeen  string   `json:"last_seen"`
}

// Lookup enriches an indicator (IP, domain, hash, URL).
func (s *IntelService) Lookup(ctx context.Context, indicator string) (*IntelReport, error) {
	q := url.Values{"indicator": {indicator}}
	var report IntelReport
	if err := s.t.Get(ctx, "/api/intel/lookup", q, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Feeds returns the configured intel feed names.
func (s *IntelService) Feeds(ctx context.Context) ([]string, error) {
	var out struct {
		Feeds []string `json:"feeds"`
	}
	err := s.t.Get(ctx, "/api/intel/feeds", nil, &out)
	return out.Feeds, err
}
