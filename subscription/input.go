package subscription

// Input is the creation/update payload for subscriptions.
type Input struct {
	// OwnerID identifies the household/user that owns this subscription.
	OwnerID string `json:"owner_id"`

	// EventType is the catalog event type to subscribe to.
	EventType string `json:"event_type"`

	// URL is the webhook delivery URL.
	URL string `json:"url"`

	// Description is a human-readable description.
	Description string `json:"description"`

	// Secret is the shared delivery secret. Auto-generated if empty on create.
	Secret string `json:"secret"`

	// Headers are custom HTTP headers sent with each delivery.
	Headers map[string]string `json:"headers,omitempty"`

	// RateLimit is the maximum deliveries per second. 0 means unlimited.
	RateLimit int `json:"rate_limit"`
}
