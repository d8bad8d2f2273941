package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"veilpay/internal/event"
)

// InMemory is the log used by unit tests and DSN-less deployments. Append
// order is commit order: callers append while holding the account store's
// lock, so sequence numbers agree with the serialization of transfers.
type InMemory struct {
	mu        sync.RWMutex
	events    []*event.Event
	nextSeq   uint64
	published map[uuid.UUID]bool
}

func NewInMemory() *InMemory {
	return &InMemory{published: make(map[uuid.UUID]bool)}
}

func (s *InMemory) Append(_ context.Context, ev *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	ev.Seq = s.nextSeq
	stored := *ev
	s.events = append(s.events, &stored)
	return nil
}

// ListRecent returns up to limit events, newest first.
func (s *InMemory) ListRecent(_ context.Context, limit int) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]*event.Event, 0, limit)
	for i := len(s.events) - 1; i >= len(s.events)-limit; i-- {
		c := *s.events[i]
		out = append(out, &c)
	}
	return out, nil
}

// Unpublished returns up to limit committed events not yet relayed, oldest first.
func (s *InMemory) Unpublished(_ context.Context, limit int) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*event.Event, 0, limit)
	for _, ev := range s.events {
		if s.published[ev.ID] {
			continue
		}
		c := *ev
		out = append(out, &c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkPublished records that the relay delivered the given events.
func (s *InMemory) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.published[id] = true
	}
	return nil
}
