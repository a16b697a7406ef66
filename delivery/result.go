// Package delivery executes webhook deliveries with bounded retries.
package delivery

import (
	"net/url"
	"time"
)

// GlobalTag identifies the process-wide default sink recipient.
const GlobalTag = "global"

// Recipient is one delivery target resolved for a dispatch: either the
// process-wide default sink (Tag == GlobalTag) or one owner subscription
// (Tag == subscription ID).
type Recipient struct {
	// Tag identifies the recipient in results and audit records.
	Tag string

	// URL is the delivery URL. Results and logs only ever carry its host.
	URL string

	// Secret is the shared secret sent in the token header. May be empty.
	Secret string

	// Headers are extra HTTP headers sent with each delivery.
	Headers map[string]string

	// RateLimit is the maximum deliveries per second. 0 means unlimited.
	RateLimit int
}

// Result is the outcome of delivering one envelope to one recipient.
// It is ephemeral: one per (event, recipient) pair, never persisted here.
type Result struct {
	// EventType is the event type that was delivered.
	EventType string `json:"event_type"`

	// Recipient is the recipient tag (GlobalTag or a subscription ID).
	Recipient string `json:"recipient"`

	// Endpoint is the masked, host-only endpoint reference.
	Endpoint string `json:"endpoint"`

	// Success reports whether any attempt was accepted.
	Success bool `json:"success"`

	// StatusCode is the HTTP status of the final attempt, 0 on transport error.
	StatusCode int `json:"status_code,omitempty"`

	// Attempts is the number of attempts made.
	Attempts int `json:"attempts"`

	// Error is the final attempt's error message on failure.
	Error string `json:"error,omitempty"`

	// LatencyMs is the latency in milliseconds of the final attempt.
	LatencyMs int `json:"latency_ms,omitempty"`

	// CompletedAt is when the final attempt terminated, UTC.
	CompletedAt time.Time `json:"completed_at"`
}

// Summary aggregates all delivery results of one dispatch call. It is the
// only value returned to the caller; partial and total failure are both
// represented here, never as errors.
type Summary struct {
	// EventType is the dispatched event type.
	EventType string `json:"event_type"`

	// Total is the number of recipients attempted.
	Total int `json:"total"`

	// Succeeded is the number of successful deliveries.
	Succeeded int `json:"succeeded"`

	// Failed is the number of deliveries that exhausted their attempts.
	Failed int `json:"failed"`

	// Results holds one entry per recipient, in resolution order
	// (default sink first, then subscriptions in creation order).
	Results []Result `json:"results"`
}

// Summarize aggregates results into a summary, preserving order.
func Summarize(eventType string, results []Result) *Summary {
	s := &Summary{
		EventType: eventType,
		Total:     len(results),
		Results:   results,
	}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// MaskURL reduces a URL to its scheme and host so that path-embedded
// secrets never appear in results or logs.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid-url"
	}
	if u.Scheme == "" {
		return u.Host
	}
	return u.Scheme + "://" + u.Host
}
