package localstore

// Token returns the persisted session bearer token, or "" when logged
// out. The transport reads this on every request so a purge elsewhere
// takes effect immediately.
func (s *Store) Token() string {
	var tok string
	s.GetJSON(TokenKey, &tok)
	return tok
}

// SetToken persists the session bearer token.
func (s *Store) SetToken(token string) error {
	return s.Set(TokenKey, token)
}

// ClearToken removes the persisted bearer token. Idempotent.
func (s *Store) ClearToken() error {
	return s.Delete(TokenKey)
}
