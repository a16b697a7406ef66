package subscription

import (
	"github.com/pantrio/courier/id"
	"github.com/pantrio/courier/internal/entity"
)

// Subscription represents one owner's webhook registration for a single
// event type. At most one subscription may exist per (owner, event type)
// pair; the store enforces this at creation time.
type Subscription struct {
	entity.Entity

	// ID is the unique TypeID for this subscription.
	ID id.ID `json:"id"`

	// OwnerID identifies the household/user that owns this subscription.
	OwnerID string `json:"owner_id"`

	// EventType is the catalog event type this subscription receives.
	EventType string `json:"event_type"`

	// URL is the webhook delivery URL.
	URL string `json:"url"`

	// Description is a human-readable description of this subscription.
	Description string `json:"description"`

	// Secret is the shared secret sent with each delivery. Never serialized.
	Secret string `json:"-"`

	// Headers are custom HTTP headers sent with each delivery.
	Headers map[string]string `json:"headers,omitempty"`

	// Active indicates whether the subscription receives deliveries.
	Active bool `json:"active"`

	// RateLimit is the maximum deliveries per second. 0 means unlimited.
	RateLimit int `json:"rate_limit"`
}

// ListOpts configures filtering and pagination for subscription listing.
type ListOpts struct {
	Offset int
	Limit  int
	Active *bool
}
