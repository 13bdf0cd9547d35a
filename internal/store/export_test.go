package store

import "context"

// SetStatfs replaces the free-space probe for tests.
func (s *Store) SetStatfs(fn func(path string) (uint64, error)) {
	s.statfs = fn
}

// SetMinFree overrides the free-space floor for tests.
func (s *Store) SetMinFree(n uint64) {
	s.minFree = n
}

// ExecRaw runs a raw statement for tests that corrupt state.
func (s *Store) ExecRaw(query string) error {
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}
