// Package envelope builds the immutable wire payload for one dispatch.
package envelope

import (
	"encoding/json"
	"time"

	"github.com/pantrio/courier/id"
)

// Envelope is the final payload delivered to every recipient of one
// dispatch. It is constructed once per dispatch call and never persisted.
type Envelope struct {
	// ID uniquely identifies this envelope. Consumers can use it to
	// deduplicate redeliveries.
	ID id.ID

	// EventType is the catalog event type name.
	EventType string

	// Timestamp is when the envelope was built, UTC.
	Timestamp time.Time

	// OwnerID identifies the owning household/user.
	OwnerID string

	// OwnerEmail is best-effort contact enrichment. Empty when unavailable.
	OwnerEmail string

	// Fields holds the event-specific payload supplied by the caller.
	Fields map[string]any

	// Test marks synthetic diagnostics traffic.
	Test bool
}

// MarshalJSON flattens the envelope into the wire shape: the payload
// fields at the top level with the common metadata keys merged in.
// Metadata keys win over colliding payload keys.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(e.Fields)+5)
	for k, v := range e.Fields {
		body[k] = v
	}

	body["eventType"] = e.EventType
	body["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339)
	body["ownerId"] = e.OwnerID
	if e.OwnerEmail != "" {
		body["ownerEmail"] = e.OwnerEmail
	}
	if e.Test {
		body["_test"] = true
	}

	return json.Marshal(body)
}
