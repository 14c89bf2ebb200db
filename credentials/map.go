package credentials

// MapStore resolves credentials from an in-memory map.
// Suitable for configuration file-based account storage.
type MapStore struct {
	creds map[string]Credential
}

// NewMapStore creates a map-based store keyed by username.
func NewMapStore(creds map[string]Credential) *MapStore {
	return &MapStore{creds: creds}
}

// Lookup retrieves the credential for the given username.
func (s *MapStore) Lookup(username string) (Credential, bool) {
	c, ok := s.creds[username]
	return c, ok
}

// Empty reports whether the store has no accounts at all, which the HTTP
// layer treats as public access.
func (s *MapStore) Empty() bool {
	return len(s.creds) == 0
}
