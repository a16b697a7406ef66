package subscription

import (
	"context"

	"github.com/pantrio/courier/id"
)

// Store defines the persistence contract for webhook subscriptions.
type Store interface {
	// CreateSubscription persists a new subscription. Implementations must
	// reject a second subscription for the same (owner, event type) pair
	// with courier.ErrDuplicateSubscription.
	CreateSubscription(ctx context.Context, sub *Subscription) error

	// GetSubscription returns a subscription by ID.
	GetSubscription(ctx context.Context, subID id.ID) (*Subscription, error)

	// UpdateSubscription modifies an existing subscription.
	UpdateSubscription(ctx context.Context, sub *Subscription) error

	// DeleteSubscription removes a subscription.
	DeleteSubscription(ctx context.Context, subID id.ID) error

	// ListSubscriptions returns subscriptions for an owner, optionally filtered.
	ListSubscriptions(ctx context.Context, ownerID string, opts ListOpts) ([]*Subscription, error)

	// FindActive returns the active subscriptions for an (owner, event type)
	// pair in creation order. This is the hot path, called on every dispatch.
	FindActive(ctx context.Context, ownerID, eventType string) ([]*Subscription, error)

	// SetActive toggles a subscription without deleting it.
	SetActive(ctx context.Context, subID id.ID, active bool) error
}
