package testutil

import (
	"fmt"
	"sync"

	"dose-go/internal/dose"
	"dose-go/internal/store"
)

// NewTestStore creates a new in-memory store for testing.
func NewTestStore() *store.MemoryStore {
	return store.NewMemoryStore()
}

// FailingStore wraps a store and fails reads or writes for selected keys.
type FailingStore struct {
	dose.Store

	mu       sync.Mutex
	failGet  map[string]bool
	failSet  map[string]bool
	setCount map[string]int
}

func NewFailingStore(inner dose.Store) *FailingStore {
	return &FailingStore{
		Store:    inner,
		failGet:  make(map[string]bool),
		failSet:  make(map[string]bool),
		setCount: make(map[string]int),
	}
}

func (s *FailingStore) FailGet(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet[key] = true
}

func (s *FailingStore) FailSet(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet[key] = true
}

// SetCount returns how many writes were attempted for key.
func (s *FailingStore) SetCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCount[key]
}

func (s *FailingStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	fail := s.failGet[key]
	s.mu.Unlock()
	if fail {
		return "", false, fmt.Errorf("stub read failure for %s", key)
	}
	return s.Store.Get(key)
}

func (s *FailingStore) Set(key, value string) error {
	s.mu.Lock()
	s.setCount[key]++
	fail := s.failSet[key]
	s.mu.Unlock()
	if fail {
		return fmt.Errorf("stub write failure for %s", key)
	}
	return s.Store.Set(key, value)
}
