package api

import (
	"context"

	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// FeedbackService covers in-app issue reports.
type FeedbackService struct {
	t *transport.Transport
}

// Report is a user-submitted issue report, typically raised from the
// "Report issue" affordance on a server-error notice.
type Report struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Page    string `json:"page"`
}

// Submit files a report.
func (s *FeedbackService) Submit(ctx context.Context, r Report) error {
	return s.t.Post(ctx, "/api/feedback", r, nil)
}
