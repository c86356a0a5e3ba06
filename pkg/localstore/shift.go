package localstore

// Shift/follow-up tracking for the policy viewer: three independent
// maps keyed by action ID, each persisted under its own key.

// ShiftCompletion returns the action-completion flags.
func (s *Store) ShiftCompletion() map[string]bool {
	m := make(map[string]bool)
	s.GetJSON(ShiftCompletionKey, &m)
	return m
}

// SetShiftCompletion records whether an action is complete.
func (s *Store) SetShiftCompletion(actionID string, done bool) error {
	m := s.ShiftCompletion()
	m[actionID] = done
	return s.Set(ShiftCompletionKey, m)
}

// ShiftAssignees returns the per-action assignee strings.
func (s *Store) ShiftAssignees() map[string]string {
	m := make(map[string]string)
	s.GetJSON(ShiftAssigneesKey, &m)
	return m
}

// SetShiftAssignee records the assignee for an action.
func (s *Store) SetShiftAssignee(actionID, assignee string) error {
	m := s.ShiftAssignees()
	m[actionID] = assignee
	return s.Set(ShiftAssigneesKey, m)
}

// ShiftNotes returns the per-action free-text notes.
func (s *Store) ShiftNotes() map[string]string {
	m := make(map[string]string)
	s.GetJSON(ShiftNotesKey, &m)
	return m
}

// SetShiftNote records a note for an action.
func (s *Store) SetShiftNote(actionID, note string) error {
	m := s.ShiftNotes()
	m[actionID] = note
	return s.Set(ShiftNotesKey, m)
}
