package api

import (
	"context"
	"net/url"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// SamplesService covers the malware sample arsenal.
type SamplesService struct {
	t *transport.Transport
}

// Sample is a submitted malware sample.
type Sample struct {
	ID          string    `json:"id"`
	SHA256      string    `json:"sha256"`
	Filename    string    `json:"filename"`
	Family      string    `json:"family"`
	Verdict     string    `json:"verdict"`
	SubmittedAt time.Time `json:"submitted_at"`
	Artifact    *Artifact `json:"artifact,omitempty"`
}

// Artifact locates a sample's quarantined blob in object storage.
// The blob itself is fetched through pkg/artifacts, not the REST API.
type Artifact struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
}

// SampleFilter narrows List results.
type SampleFilter struct {
	Family  string
	Verdict string
	Limit   int
}

func (f SampleFilter) query() url.Values {
	q := url.Values{}
	if f.Family != "" {
		q.Set("family", f.Family)
	}
	if f.Verdict != "" {
		q.Set("verdict", f.Verdict)
	}
	if f.Limit > 0 {
		q.Set("limit", itoa(f.Limit))
	}
	return q
}

// List returns samples matching the filter.
func (s *SamplesService) List(ctx context.Context, filter SampleFilter) ([]Sample, error) {
	var samples []Sample
	err := s.t.Get(ctx, "/arsenal/samples", filter.query(), &samples)
	return samples, err
}

// Get returns one sample.
func (s *SamplesService) Get(ctx context.Context, id string) (*Sample, error) {
	var sample Sample
	if err := s.t.Get(ctx, "/arsenal/samples/"+url.PathEscape(id), nil, &sample); err != nil {
		return nil, err
	}
	return &sample, nil
}

// Submit registers sample metadata; the blob is uploaded out of band.
func (s *SamplesService) Submit(ctx context.Context, sample Sample) (*Sample, error) {
	var created Sample
	if err := s.t.Post(ctx, "/arsenal/samples", sample, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Reclassify updates a sample's verdict.
func (s *SamplesService) Reclassify(ctx context.Context, id, verdict string) error {
	body := map[string]string{"verdict": verdict}
	return s.t.Patch(ctx, "/arsenal/samples/"+url.PathEscape(id), body, nil)
}
