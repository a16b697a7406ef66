package catalog

import "encoding/json"

// Priority ranks how urgently consumers should treat an event.
type Priority string

// Priority levels for catalog definitions.
const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Definition is the canonical description of one webhook event type.
// The set of definitions is fixed at construction time; the catalog
// holds no runtime state.
type Definition struct {
	// Name is the snake_case event type identifier, e.g. "stock_low".
	Name string `json:"name"`

	// Description is a human-readable explanation of when this event fires.
	Description string `json:"description"`

	// Category groups related event types for discovery (e.g. "inventory").
	Category string `json:"category"`

	// Priority ranks the event for consumer-side routing.
	Priority Priority `json:"priority"`

	// Schema is an optional JSON Schema (draft-07) describing the payload
	// shape. When set, dispatch validates the event payload against it.
	Schema json.RawMessage `json:"schema,omitempty"`

	// Sample is an example payload used by diagnostics test mode and docs.
	Sample map[string]any `json:"sample"`
}
