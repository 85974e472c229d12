package pebblestore

import (
	"context"
	"sync"
)

// Shared hands out one DB per data directory, reference counted, so that
// multiple queues in the same process can share a single Pebble instance.
// The store is opened on the first Acquire for a directory and closed when
// the last holder calls Release.
type Shared struct {
	mu     sync.Mutex
	stores map[string]*sharedStore
}

type sharedStore struct {
	db   *DB
	refs int
}

// NewShared creates an empty shared-store registry.
func NewShared() *Shared {
	return &Shared{stores: make(map[string]*sharedStore)}
}

// DefaultShared is the process-wide registry used when callers do not supply
// their own.
var DefaultShared = NewShared()

// Acquire opens (or reuses) the store for opts.DataDir and increments its
// reference count. Options other than DataDir only take effect on the first
// open of a directory.
func (s *Shared) Acquire(opts Options) (*DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.stores[opts.DataDir]; ok {
		st.refs++
		return st.db, nil
	}
	db, err := Open(opts)
	if err != nil {
		return nil, err
	}
	s.stores[opts.DataDir] = &sharedStore{db: db, refs: 1}
	return db, nil
}

// Release decrements the reference count for dataDir. When it reaches zero
// the store is compacted over the full keyspace and closed. Releasing a
// directory that is not held is a no-op.
func (s *Shared) Release(ctx context.Context, dataDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stores[dataDir]
	if !ok {
		return nil
	}
	st.refs--
	if st.refs > 0 {
		return nil
	}
	delete(s.stores, dataDir)

	// Final checkpoint before close so a cold restart starts from a compact
	// store, mirroring a shutdown-compact on an embedded SQL engine.
	if err := st.db.CompactRange([]byte{0x00}, []byte{0xff}); err != nil {
		_ = st.db.Close()
		return err
	}
	return st.db.Close()
}

// Refs reports the current reference count for dataDir (0 if not open).
func (s *Shared) Refs(dataDir string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[dataDir]; ok {
		return st.refs
	}
	return 0
}
