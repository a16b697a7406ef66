// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pantrio/courier"
	"github.com/pantrio/courier/deadletter"
	"github.com/pantrio/courier/id"
	courierstore "github.com/pantrio/courier/store"
	"github.com/pantrio/courier/subscription"
)

// compile-time interface check.
var _ courierstore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store for testing.
type Store struct {
	mu sync.RWMutex

	subs        map[string]*subscription.Subscription // keyed by ID string
	subsByPair  map[string]string                     // "owner|eventType" -> ID string
	subOrder    []string                              // sub IDs in creation order
	deadLetters map[string]*deadletter.Record         // keyed by ID string
	letterOrder []string                              // record IDs in creation order

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		subs:        make(map[string]*subscription.Subscription),
		subsByPair:  make(map[string]string),
		deadLetters: make(map[string]*deadletter.Record),
	}
}

func pairKey(ownerID, eventType string) string {
	return ownerID + "|" + eventType
}

// --- subscriptions ---

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return courier.ErrStoreClosed
	}

	key := pairKey(sub.OwnerID, sub.EventType)
	if _, exists := s.subsByPair[key]; exists {
		return courier.ErrDuplicateSubscription
	}

	cp := *sub
	s.subs[sub.ID.String()] = &cp
	s.subsByPair[key] = sub.ID.String()
	s.subOrder = append(s.subOrder, sub.ID.String())
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.ID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, courier.ErrStoreClosed
	}

	sub, ok := s.subs[subID.String()]
	if !ok {
		return nil, courier.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return courier.ErrStoreClosed
	}

	existing, ok := s.subs[sub.ID.String()]
	if !ok {
		return courier.ErrSubscriptionNotFound
	}

	cp := *sub
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	s.subs[sub.ID.String()] = &cp
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, subID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return courier.ErrStoreClosed
	}

	sub, ok := s.subs[subID.String()]
	if !ok {
		return courier.ErrSubscriptionNotFound
	}

	delete(s.subs, subID.String())
	delete(s.subsByPair, pairKey(sub.OwnerID, sub.EventType))
	s.subOrder = removeID(s.subOrder, subID.String())
	return nil
}

func (s *Store) ListSubscriptions(ctx context.Context, ownerID string, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, courier.ErrStoreClosed
	}

	var matched []*subscription.Subscription
	for _, subID := range s.subOrder {
		sub := s.subs[subID]
		if sub.OwnerID != ownerID {
			continue
		}
		if opts.Active != nil && sub.Active != *opts.Active {
			continue
		}
		cp := *sub
		matched = append(matched, &cp)
	}

	return applyPagination(matched, opts.Offset, opts.Limit), nil
}

func (s *Store) FindActive(ctx context.Context, ownerID, eventType string) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, courier.ErrStoreClosed
	}

	var matched []*subscription.Subscription
	for _, subID := range s.subOrder {
		sub := s.subs[subID]
		if sub.OwnerID != ownerID || sub.EventType != eventType || !sub.Active {
			continue
		}
		cp := *sub
		matched = append(matched, &cp)
	}
	return matched, nil
}

func (s *Store) SetActive(ctx context.Context, subID id.ID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return courier.ErrStoreClosed
	}

	sub, ok := s.subs[subID.String()]
	if !ok {
		return courier.ErrSubscriptionNotFound
	}
	sub.Active = active
	sub.UpdatedAt = time.Now().UTC()
	return nil
}

// --- dead letters ---

func (s *Store) PushDeadLetter(ctx context.Context, rec *deadletter.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return courier.ErrStoreClosed
	}

	s.deadLetters[rec.ID.String()] = cloneRecord(rec)
	s.letterOrder = append(s.letterOrder, rec.ID.String())
	return nil
}

func (s *Store) ListDeadLetters(ctx context.Context, opts deadletter.ListOpts) ([]*deadletter.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, courier.ErrStoreClosed
	}

	var matched []*deadletter.Record
	// Newest first.
	for i := len(s.letterOrder) - 1; i >= 0; i-- {
		rec := s.deadLetters[s.letterOrder[i]]
		if opts.OwnerID != "" && rec.OwnerID != opts.OwnerID {
			continue
		}
		if opts.EventType != "" && rec.EventType != opts.EventType {
			continue
		}
		if opts.From != nil && rec.FailedAt.Before(*opts.From) {
			continue
		}
		if opts.To != nil && rec.FailedAt.After(*opts.To) {
			continue
		}
		matched = append(matched, cloneRecord(rec))
	}

	return applyPagination(matched, opts.Offset, opts.Limit), nil
}

func (s *Store) GetDeadLetter(ctx context.Context, recID id.ID) (*deadletter.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, courier.ErrStoreClosed
	}

	rec, ok := s.deadLetters[recID.String()]
	if !ok {
		return nil, courier.ErrDeadLetterNotFound
	}
	return cloneRecord(rec), nil
}

func (s *Store) MarkReplayed(ctx context.Context, recID id.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return courier.ErrStoreClosed
	}

	rec, ok := s.deadLetters[recID.String()]
	if !ok {
		return courier.ErrDeadLetterNotFound
	}
	t := at
	rec.ReplayedAt = &t
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, courier.ErrStoreClosed
	}

	var purged int64
	kept := s.letterOrder[:0]
	for _, recID := range s.letterOrder {
		rec := s.deadLetters[recID]
		if rec.FailedAt.Before(before) {
			delete(s.deadLetters, recID)
			purged++
			continue
		}
		kept = append(kept, recID)
	}
	s.letterOrder = kept
	return purged, nil
}

func (s *Store) CountDeadLetters(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, courier.ErrStoreClosed
	}
	return int64(len(s.deadLetters)), nil
}

// --- lifecycle ---

func (s *Store) Migrate(ctx context.Context) error {
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return courier.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// --- helpers ---

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

func cloneRecord(rec *deadletter.Record) *deadletter.Record {
	cp := *rec
	if rec.Payload != nil {
		cp.Payload = append([]byte(nil), rec.Payload...)
	}
	if rec.ReplayedAt != nil {
		t := *rec.ReplayedAt
		cp.ReplayedAt = &t
	}
	return &cp
}

func applyPagination[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
