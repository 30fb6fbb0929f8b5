package cache

import (
	"context"
	"fmt"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is an in-process store whose eviction follows Options.Policy.
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryStore builds a store for the given policy. A zero size or TTL
// disables that limit.
func NewMemoryStore(opts Options) (*MemoryStore, error) {
	var size int
	var ttl = opts.TTL
	switch opts.Policy {
	case PolicyNone, "":
		size, ttl = 0, 0
	case PolicyLRU:
		if opts.Size <= 0 {
			return nil, fmt.Errorf("lru cache needs a positive size, got %d", opts.Size)
		}
		size, ttl = opts.Size, 0
	case PolicyTTL:
		if opts.TTL <= 0 {
			return nil, fmt.Errorf("ttl cache needs a positive ttl, got %s", opts.TTL)
		}
		size = max(opts.Size, 0)
	default:
		return nil, fmt.Errorf("unknown cache policy %q", opts.Policy)
	}
	return &MemoryStore{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.lru.Add(key, value)
	return nil
}

// Len reports the number of live entries.
func (m *MemoryStore) Len() int { return m.lru.Len() }
