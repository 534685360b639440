// Package store keeps scan results for later reference. The orchestrator
// takes the Store interface so it can be tested without process-wide
// state; MemoryStore is the default, SQLiteStore persists across runs.
package store

import (
	"errors"
	"sync"

	"github.com/dupesweep/dupesweep/internal/scanner"
)

// ErrNotFound is returned when no scan result exists under an id.
var ErrNotFound = errors.New("scan result not found")

// Store holds scan results keyed by scan id.
type Store interface {
	Put(id string, result *scanner.ScanResult) error
	Get(id string) (*scanner.ScanResult, error)
	// List returns stored scan ids, oldest first.
	List() ([]string, error)
	Close() error
}

// MemoryStore is an in-process Store. A non-zero cap bounds the history:
// the oldest result is evicted when the cap is exceeded. Cap zero keeps
// everything for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*scanner.ScanResult
	order   []string
	cap     int
}

// NewMemoryStore creates a MemoryStore with the given retention cap.
func NewMemoryStore(cap int) *MemoryStore {
	return &MemoryStore{
		results: make(map[string]*scanner.ScanResult),
		cap:     cap,
	}
}

// Put stores a result, evicting the oldest entry when over cap.
func (s *MemoryStore) Put(id string, result *scanner.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[id]; !exists {
		s.order = append(s.order, id)
	}
	s.results[id] = result

	if s.cap > 0 && len(s.order) > s.cap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.results, oldest)
	}

	return nil
}

// Get returns the result stored under id.
func (s *MemoryStore) Get(id string) (*scanner.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	return result, nil
}

// List returns stored ids, oldest first.
func (s *MemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
