package session

import (
	"context"
	"sync"
)

// MemoryStore keeps session state in process memory. Used by tests and
// ephemeral runs where durability across restarts is not wanted.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *MemoryStore) set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStore) clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func (s *MemoryStore) ActiveOrderID(context.Context) (string, error) {
	return s.get(keyActiveOrderID), nil
}

func (s *MemoryStore) SetActiveOrderID(_ context.Context, id string) error {
	s.set(keyActiveOrderID, id)
	return nil
}

func (s *MemoryStore) ClearActiveOrderID(context.Context) error {
	s.clear(keyActiveOrderID)
	return nil
}

func (s *MemoryStore) Token(context.Context) (string, error) {
	return s.get(keyAccessToken), nil
}

func (s *MemoryStore) SetToken(_ context.Context, token string) error {
	s.set(keyAccessToken, token)
	return nil
}

func (s *MemoryStore) ClearToken(context.Context) error {
	s.clear(keyAccessToken)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
