package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/viccon/sturdyc"
)

// Sturdyc implements Store on in-process sturdyc clients. sturdyc fixes
// the TTL at client construction, so entries are sharded into one client
// per distinct TTL; the handful of namespaces in use (search 300s,
// featured 600s) keeps that set tiny.
type Sturdyc struct {
	capacity int

	mu      sync.RWMutex
	clients map[time.Duration]*sturdyc.Client[[]byte]
}

const (
	numShards          = 64
	evictionPercentage = 10
)

// NewSturdyc creates a cache store holding up to capacity entries per TTL
// shard.
func NewSturdyc(capacity int) *Sturdyc {
	if capacity < 1 {
		capacity = 10000
	}
	return &Sturdyc{
		capacity: capacity,
		clients:  make(map[time.Duration]*sturdyc.Client[[]byte]),
	}
}

func (s *Sturdyc) client(ttl time.Duration) *sturdyc.Client[[]byte] {
	s.mu.RLock()
	c, ok := s.clients[ttl]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[ttl]; ok {
		return c
	}
	c = sturdyc.New[[]byte](s.capacity, numShards, ttl, evictionPercentage)
	s.clients[ttl] = c
	return c
}

func (s *Sturdyc) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if value, ok := c.Get(key); ok {
			return value, true, nil
		}
	}
	return nil, false, nil
}

func (s *Sturdyc) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.client(ttl).Set(key, value)
	return nil
}

func (s *Sturdyc) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		for _, key := range c.ScanKeys() {
			if strings.HasPrefix(key, prefix) {
				c.Delete(key)
			}
		}
	}
	return nil
}
