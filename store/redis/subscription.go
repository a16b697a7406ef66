package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pantrio/courier"
	"github.com/pantrio/courier/id"
	"github.com/pantrio/courier/internal/entity"
	"github.com/pantrio/courier/subscription"
)

// subscriptionModel is the JSON representation stored in Redis.
type subscriptionModel struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	EventType   string            `json:"event_type"`
	URL         string            `json:"url"`
	Description string            `json:"description"`
	Secret      string            `json:"secret"`
	Headers     map[string]string `json:"headers,omitempty"`
	Active      bool              `json:"active"`
	RateLimit   int               `json:"rate_limit"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toSubscriptionModel(sub *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:          sub.ID.String(),
		OwnerID:     sub.OwnerID,
		EventType:   sub.EventType,
		URL:         sub.URL,
		Description: sub.Description,
		Secret:      sub.Secret,
		Headers:     sub.Headers,
		Active:      sub.Active,
		RateLimit:   sub.RateLimit,
		CreatedAt:   sub.CreatedAt,
		UpdatedAt:   sub.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse subscription ID %q: %w", m.ID, err)
	}
	return &subscription.Subscription{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          subID,
		OwnerID:     m.OwnerID,
		EventType:   m.EventType,
		URL:         m.URL,
		Description: m.Description,
		Secret:      m.Secret,
		Headers:     m.Headers,
		Active:      m.Active,
		RateLimit:   m.RateLimit,
	}, nil
}

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)

	// SETNX on the pair key is the uniqueness guard.
	claimed, err := s.rdb.SetNX(ctx, pairIndexKey(m.OwnerID, m.EventType), m.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("courier/redis: claim subscription pair: %w", err)
	}
	if !claimed {
		return courier.ErrDuplicateSubscription
	}

	if err := s.setEntity(ctx, entityKey(prefixSub, m.ID), m); err != nil {
		return fmt.Errorf("courier/redis: create subscription: %w", err)
	}

	if err := s.rdb.ZAdd(ctx, zSubOwner+m.OwnerID, goredis.Z{
		Score:  scoreFromTime(m.CreatedAt),
		Member: m.ID,
	}).Err(); err != nil {
		return fmt.Errorf("courier/redis: index subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.ID) (*subscription.Subscription, error) {
	var m subscriptionModel
	if err := s.getEntity(ctx, entityKey(prefixSub, subID.String()), &m); err != nil {
		if isRedisNil(err) {
			return nil, courier.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("courier/redis: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	existing, err := s.GetSubscription(ctx, sub.ID)
	if err != nil {
		return err
	}

	sub.CreatedAt = existing.CreatedAt
	sub.UpdatedAt = time.Now().UTC()
	m := toSubscriptionModel(sub)

	if err := s.setEntity(ctx, entityKey(prefixSub, m.ID), m); err != nil {
		return fmt.Errorf("courier/redis: update subscription: %w", err)
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, subID id.ID) error {
	sub, err := s.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, entityKey(prefixSub, subID.String()))
	pipe.Del(ctx, pairIndexKey(sub.OwnerID, sub.EventType))
	pipe.ZRem(ctx, zSubOwner+sub.OwnerID, subID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("courier/redis: delete subscription: %w", err)
	}
	return nil
}

func (s *Store) ListSubscriptions(ctx context.Context, ownerID string, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	subs, err := s.ownerSubscriptions(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var matched []*subscription.Subscription
	for _, sub := range subs {
		if opts.Active != nil && sub.Active != *opts.Active {
			continue
		}
		matched = append(matched, sub)
	}
	return applyPagination(matched, opts.Offset, opts.Limit), nil
}

func (s *Store) FindActive(ctx context.Context, ownerID, eventType string) ([]*subscription.Subscription, error) {
	subs, err := s.ownerSubscriptions(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var matched []*subscription.Subscription
	for _, sub := range subs {
		if sub.EventType != eventType || !sub.Active {
			continue
		}
		matched = append(matched, sub)
	}
	return matched, nil
}

func (s *Store) SetActive(ctx context.Context, subID id.ID, active bool) error {
	sub, err := s.GetSubscription(ctx, subID)
	if err != nil {
		return err
	}

	sub.Active = active
	sub.UpdatedAt = time.Now().UTC()
	m := toSubscriptionModel(sub)

	if err := s.setEntity(ctx, entityKey(prefixSub, m.ID), m); err != nil {
		return fmt.Errorf("courier/redis: set subscription active: %w", err)
	}
	return nil
}

// ownerSubscriptions loads all of an owner's subscriptions in creation order.
func (s *Store) ownerSubscriptions(ctx context.Context, ownerID string) ([]*subscription.Subscription, error) {
	ids, err := s.rdb.ZRange(ctx, zSubOwner+ownerID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("courier/redis: list subscription index: %w", err)
	}

	subs := make([]*subscription.Subscription, 0, len(ids))
	for _, subIDStr := range ids {
		var m subscriptionModel
		if err := s.getEntity(ctx, entityKey(prefixSub, subIDStr), &m); err != nil {
			if isRedisNil(err) {
				// Index entry without an entity; skip the stray.
				continue
			}
			return nil, fmt.Errorf("courier/redis: load subscription %s: %w", subIDStr, err)
		}
		sub, err := fromSubscriptionModel(&m)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
