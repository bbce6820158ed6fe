package kvstore

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore keeps entries in-process. Suitable for a single server
// instance; cache contents are lost on restart, which only costs a refetch.
type MemoryStore struct {
	cache *ttlcache.Cache[string, string]
	mu    sync.Mutex // serializes read-modify-write in Increment
}

func NewMemoryStore() *MemoryStore {
	cache := ttlcache.New[string, string](
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()
	return &MemoryStore{cache: cache}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	item := s.cache.Get(key)
	if item == nil {
		return "", false, nil
	}
	return item.Value(), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.cache.Set(key, value, ttlcache.NoTTL)
	return nil
}

func (s *MemoryStore) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
	return nil
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	if item := s.cache.Get(key); item != nil {
		count, _ = strconv.ParseInt(item.Value(), 10, 64)
	}
	count++
	s.cache.Set(key, strconv.FormatInt(count, 10), window)
	return count, nil
}

// Stop terminates the expiration loop. Only needed when a store is
// created and discarded repeatedly, e.g. in tests.
func (s *MemoryStore) Stop() {
	s.cache.Stop()
}
