package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a concurrency-safe in-memory Store implementation. It backs
// tests and local development runs without a database.
type MemoryStore struct {
	mu sync.RWMutex

	subs map[uuid.UUID]Subscription

	// insertion order, so listings stay deterministic
	order []uuid.UUID

	// now is swappable in tests
	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs: make(map[uuid.UUID]Subscription),
		now:  time.Now,
	}
}

// SetClock overrides the store's notion of "today". Test helper.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Insert(_ context.Context, sub *Subscription) error {
	sub.ID = uuid.New()
	sub.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs[sub.ID] = *sub
	s.order = append(s.order, sub.ID)
	return nil
}

func (s *MemoryStore) ListUpcoming(_ context.Context) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := DateOnly(s.now().UTC())

	var result []Subscription
	for _, id := range s.order {
		sub := s.subs[id]
		if sub.DateFrom.Before(today) {
			continue
		}
		result = append(result, sub)
	}
	return result, nil
}

func (s *MemoryStore) UpdateSnapshot(_ context.Context, id uuid.UUID, temperature int, conditions string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return ErrNotFound
	}
	sub.Temperature = temperature
	sub.Conditions = conditions
	s.subs[id] = sub
	return nil
}
