package advisorycache

import (
	"context"
	"sync"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
)

// MemoryStore keeps the encoded snapshot in process memory for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	key     string
	entries map[string][]byte
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore(key string) *MemoryStore {
	return &MemoryStore{
		key:     normalizeKey(key),
		entries: make(map[string][]byte),
	}
}

// Get implements advisory.Cache.
func (s *MemoryStore) Get(_ context.Context) (advisory.CacheEntry, bool, error) {
	s.mu.RLock()
	payload, ok := s.entries[s.key]
	s.mu.RUnlock()
	if !ok {
		return advisory.CacheEntry{}, false, nil
	}
	entry, err := decodeEntry(payload)
	if err != nil {
		return advisory.CacheEntry{}, false, err
	}
	return entry, true, nil
}

// Set implements advisory.Cache. The previous snapshot is overwritten.
func (s *MemoryStore) Set(_ context.Context, entry advisory.CacheEntry) error {
	payload, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.key] = payload
	return nil
}

// SetRaw stores an already encoded payload verbatim.
func (s *MemoryStore) SetRaw(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.key] = append([]byte(nil), payload...)
}

var _ advisory.Cache = (*MemoryStore)(nil)
