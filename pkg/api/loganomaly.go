package api

import (
	"context"
	"net/url"
	"time"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// LogAnomalyService covers the log-anomaly analysis endpoints.
type LogAnomalyService struct {
	t *transport.Transport
}

// Anomaly is one flagged log pattern.
type Anomaly struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Pattern    string    `json:"pattern"`
	Score      float64   `json:"score"`
	DetectedAt time.Time `json:"detected_at"`
}

// List returns anomalies above the given score.
func (s *LogAnomalyService) List(ctx context.Context, minScore float64) ([]Anomaly, error) {
	var q url.Values
	if minScore > 0 {
		q = url.Values{"min_score": {formatFloat(minScore)}}
	}
	var anomalies []Anomaly
	err := s.t.Get(ctx, "/api/loganomaly/anomalies", q, &anomalies)
	return anomalies, err
}

// MarkFalsePositive records analyst feedback on a detection.
func (s *LogAnomalyService) MarkFalsePositive(ctx context.Context, id string) error {
	body := map[string]bool{"false_positive": true}
	return s.t.Patch(ctx, "/api/loganomaly/anomalies/"+url.PathEscape(id), body, nil)
}
