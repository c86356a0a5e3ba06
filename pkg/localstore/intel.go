package localstore

import "time"

// MaxIntelHistory caps the threat-intel lookup history. When the cap is
// reached the oldest entries are pruned.
const MaxIntelHistory = 50

// IntelLookup is one recorded threat-intel lookup.
type IntelLookup struct {
	Indicator string    `json:"indicator"`
	Type      string    `json:"type"`
	LookedUp  time.Time `json:"looked_up"`
}

// IntelHistory returns the recorded lookups, oldest first.
func (s *Store) IntelHistory() []IntelLookup {
	var history []IntelLookup
	s.GetJSON(IntelHistoryKey, &history)
	return history
}

// AppendIntelLookup records a lookup, pruning oldest entries past the cap.
func (s *Store) AppendIntelLookup(l IntelLookup) error {
	history := append(s.IntelHistory(), l)
	if len(history) > MaxIntelHistory {
		history = history[len(history)-MaxIntelHistory:]
	}
	return s.Set(IntelHistoryKey, history)
}
