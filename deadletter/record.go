// Package deadletter keeps an audit trail of permanently failed deliveries.
//
// Records support manual inspection and one-shot replay. This is not a
// retry queue: nothing here is redelivered automatically.
package deadletter

import (
	"encoding/json"
	"time"

	"github.com/pantrio/courier/id"
	"github.com/pantrio/courier/internal/entity"
)

// Record represents one permanently failed delivery.
type Record struct {
	entity.Entity

	// ID is the unique TypeID for this record.
	ID id.ID `json:"id"`

	// OwnerID identifies the owner of the originating event.
	OwnerID string `json:"owner_id"`

	// EventType is the event type name for filtering.
	EventType string `json:"event_type"`

	// Recipient is the recipient tag that failed (delivery.GlobalTag or a
	// subscription ID).
	Recipient string `json:"recipient"`

	// URL is the full endpoint URL at the time of failure. Kept for replay;
	// external surfaces should expose only the masked form.
	URL string `json:"url"`

	// Payload is the serialized envelope body that failed to deliver.
	Payload json.RawMessage `json:"payload"`

	// Error is the error message from the final attempt.
	Error string `json:"error"`

	// StatusCode is the HTTP status from the final attempt, if any.
	StatusCode int `json:"status_code,omitempty"`

	// Attempts is the total number of attempts made.
	Attempts int `json:"attempts"`

	// FailedAt is when the delivery permanently failed.
	FailedAt time.Time `json:"failed_at"`

	// ReplayedAt is set when the record has been successfully replayed.
	ReplayedAt *time.Time `json:"replayed_at,omitempty"`
}

// ListOpts configures filtering and pagination for record listing.
type ListOpts struct {
	Offset    int
	Limit     int
	OwnerID   string
	EventType string
	From      *time.Time
	To        *time.Time
}
