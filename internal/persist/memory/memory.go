// Package memory is an in-process persist.KV used in tests and with
// DATA_BACKEND=memory. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"wallet/internal/persist"
)

type Store struct {
	mu     sync.Mutex
	values map[string][]byte
	writes int
}

var _ persist.KV = (*Store)(nil)

func New() *Store {
	return &Store{values: map[string][]byte{}}
}

// NewSnapshotStore returns a persist.Store backed by a fresh memory KV.
func NewSnapshotStore() (*persist.KVStore, *Store) {
	kv := New()
	return persist.NewKVStore(kv), kv
}

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, persist.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// PutAll stores every entry under one lock.
func (s *Store) PutAll(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.values[k] = append([]byte(nil), v...)
	}
	s.writes++
	return nil
}

// Set stores a single raw value, e.g. to seed corrupt data in tests.
func (s *Store) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
}

// Keys lists stored keys in order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Writes counts successful PutAll calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
