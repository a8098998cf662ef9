package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is the in-process fallback used when redis is unavailable,
// and the store handler tests run against.
type MemoryStore struct {
	values *gocache.Cache

	mu   sync.Mutex
	sets map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: gocache.New(gocache.NoExpiration, 5*time.Minute),
		sets:   make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := s.values.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	s.values.Set(key, value, ttl)
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) {
	for _, key := range keys {
		s.values.Delete(key)
	}
}

func (s *MemoryStore) AddToSet(ctx context.Context, set string, member string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.sets[set]
	if !ok {
		members = make(map[string]struct{})
		s.sets[set] = members
	}
	members[member] = struct{}{}
}

func (s *MemoryStore) DeleteSet(ctx context.Context, set string) {
	s.mu.Lock()
	members := s.sets[set]
	delete(s.sets, set)
	s.mu.Unlock()

	for member := range members {
		s.values.Delete(member)
	}
}
