package kvstore

import (
	"context"
	"errors"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

type MetricsSnapshot struct {
	Hits         uint64
	Misses       uint64
	OriginReads  uint64
	OriginWrites uint64
}

// CachedStore serves repeated loads from an LRU cache in front of origin.
// Writes go through to origin first and update the cache only on success.
type CachedStore struct {
	origin Store
	cache  *lru.Cache[string, []byte]

	hits         atomic.Uint64
	misses       atomic.Uint64
	originReads  atomic.Uint64
	originWrites atomic.Uint64
}

func NewCachedStore(origin Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{origin: origin, cache: cache}, nil
}

func (s *CachedStore) Save(ctx context.Context, key string, value []byte) error {
	key, err := checkKey(key)
	if err != nil {
		return err
	}
	s.originWrites.Add(1)
	if err := s.origin.Save(ctx, key, value); err != nil {
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, append([]byte(nil), value...))
	return nil
}

func (s *CachedStore) Load(ctx context.Context, key string) ([]byte, error) {
	key, err := checkKey(key)
	if err != nil {
		return nil, err
	}
	if raw, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.misses.Add(1)
	s.originReads.Add(1)
	raw, err := s.origin.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.cache.Remove(key)
		}
		return nil, err
	}
	s.cache.Add(key, append([]byte(nil), raw...))
	return raw, nil
}

func (s *CachedStore) Delete(ctx context.Context, key string) error {
	key, err := checkKey(key)
	if err != nil {
		return err
	}
	s.cache.Remove(key)
	return s.origin.Delete(ctx, key)
}

func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.origin.Close()
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
		OriginReads:  s.originReads.Load(),
		OriginWrites: s.originWrites.Load(),
	}
}
