// Package runstore keeps import runs between operator steps.
package runstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/aggregates/importrun"
)

type SafeMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		m: make(map[K]V),
	}
}

func (s *SafeMap[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *SafeMap[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, found := s.m[key]
	return val, found
}

func (s *SafeMap[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

func (s *SafeMap[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

type memoryEntry struct {
	run       importrun.Run
	expiresAt time.Time
}

// Memory is a process-local run store. Runs expire ttl after their last save.
type Memory struct {
	storage *SafeMap[uuid.UUID, memoryEntry]
	locks   sync.Map
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		storage: NewSafeMap[uuid.UUID, memoryEntry](),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Save(ctx context.Context, run importrun.Run) error {
	var exp time.Time
	if m.ttl > 0 {
		exp = m.now().Add(m.ttl)
	}
	m.storage.Set(run.ID(), memoryEntry{run: run, expiresAt: exp})
	return nil
}

func (m *Memory) Get(ctx context.Context, id uuid.UUID) (importrun.Run, error) {
	e, ok := m.storage.Get(id)
	if !ok {
		return importrun.Run{}, importrun.ErrNotFound
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.storage.Delete(id)
		return importrun.Run{}, importrun.ErrNotFound
	}
	return e.run, nil
}

func (m *Memory) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	if _, held := m.locks.LoadOrStore(id, struct{}{}); held {
		return nil, importrun.ErrRunBusy
	}
	return func() { m.locks.Delete(id) }, nil
}
