package envelope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pantrio/courier/id"
	"github.com/pantrio/courier/identity"
)

// ErrInvalidPayload is returned when a payload cannot be merged into the
// flat wire shape (it must serialize to a JSON object).
var ErrInvalidPayload = errors.New("envelope: payload must serialize to a JSON object")

// Builder constructs envelopes, enriching them with owner contact info
// when a lookup is configured.
type Builder struct {
	contacts identity.Lookup
	logger   *slog.Logger
}

// NewBuilder creates a builder. The contact lookup may be nil, in which
// case enrichment is skipped entirely.
func NewBuilder(contacts identity.Lookup, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{contacts: contacts, logger: logger}
}

// Build merges the caller-supplied payload with the common metadata into
// one envelope. The payload is opaque except for one structural
// requirement: it must serialize to a JSON object so its fields can sit
// at the top level of the wire body. A nil payload yields an envelope
// with no event-specific fields.
//
// Contact enrichment is best effort: a failed lookup is logged and the
// envelope proceeds without the email field.
func (b *Builder) Build(ctx context.Context, eventType, ownerID string, payload any) (*Envelope, error) {
	fields, err := payloadFields(payload)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		ID:        id.NewEnvelopeID(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		OwnerID:   ownerID,
		Fields:    fields,
	}

	if b.contacts != nil {
		contact, lookupErr := b.contacts.GetContact(ctx, ownerID)
		if lookupErr != nil {
			b.logger.DebugContext(ctx, "contact enrichment skipped",
				"owner_id", ownerID, "error", lookupErr)
		} else {
			env.OwnerEmail = contact.Email
		}
	}

	return env, nil
}

// payloadFields converts an arbitrary serializable payload into a field map.
func payloadFields(payload any) (map[string]any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}

	// Fast path for callers that already hold a field map.
	if m, ok := payload.(map[string]any); ok {
		cp := make(map[string]any, len(m))
		for k, v := range m {
			cp[k] = v
		}
		return cp, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidPayload, previewJSON(raw))
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// previewJSON truncates raw JSON for error messages.
func previewJSON(raw []byte) string {
	const max = 64
	if len(raw) > max {
		return string(raw[:max]) + "…"
	}
	return string(raw)
}
