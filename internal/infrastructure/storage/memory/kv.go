package memory

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"ledgersync/internal/application/port"
)

// ErrQuotaExceeded is returned by SetItem when the store is full.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is a simple in-memory key-value store for tests and demos.
// MaxBytes, when positive, caps total stored bytes so quota-exhaustion
// behavior can be exercised without a real device.
type Store struct {
	mu       sync.RWMutex
	items    map[string]string
	MaxBytes int
}

func New() *Store {
	return &Store{items: make(map[string]string)}
}

func (s *Store) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Store) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MaxBytes > 0 {
		total := len(key) + len(value)
		for k, v := range s.items {
			if k == key {
				continue
			}
			total += len(k) + len(v)
		}
		if total > s.MaxBytes {
			return ErrQuotaExceeded
		}
	}
	s.items[key] = value
	return nil
}

func (s *Store) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *Store) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Close() error { return nil }

var _ port.KV = (*Store)(nil)
