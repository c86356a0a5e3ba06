package api

import (
	"github.com/rodeo-sec/rodeo-go/pkg/transport"
)

// Response header contracts the backend relies on.
const (
	HeaderAttemptsRemaining = "X-Attempts-Remaining"
	HeaderLockoutSeconds    = "X-Lockout-Seconds"
	HeaderRetryAfter        = "Retry-After"
)

// Client bundles every domain service over one transport.
type Client struct {
	Auth            *AuthService
	Users           *UsersService
	Samples         *SamplesService
	Vulnerabilities *VulnerabilitiesService
	Patches         *PatchesService
	Policy          *PolicyService
	EDR             *EDRService
	Intel           *IntelService
	LogAnomaly      *LogAnomalyService
	Playbooks       *PlaybooksService
	Watchers        *WatchersService
	Feedback        *FeedbackService
	KnowledgeBase   *KnowledgeBaseService
}

// New creates a Client over t.
func New(t *transport.Transport) *Client {
	return &Client{
		Auth:            &AuthService{t: t},
		Users:           &UsersService{t: t},
		Samples:         &SamplesService{t: t},
		Vulnerabilities: &VulnerabilitiesService{t: t},
		Patches:         &PatchesService{t: t},
		Policy:          &PolicyService{t: t},
		EDR:             &EDRService{t: t},
		Intel:           &IntelService{t: t},
		LogAnomaly:      &LogAnomalyService{t: t},
		Playbooks:       &PlaybooksService{t: t},
		Watchers:        &WatchersService{t: t},
		Feedback:        &FeedbackService{t: t},
		KnowledgeBase:   &KnowledgeBaseService{t: t},
	}
}
