package courier

import (
	"errors"

	"github.com/pantrio/courier/catalog"
	"github.com/pantrio/courier/envelope"
)

// Sentinel errors returned by Courier operations.
var (
	// ErrNoStore is returned when a Courier is created without a store.
	ErrNoStore = errors.New("courier: store is required")

	// ErrEventTypeNotFound is returned when an event type is not in the catalog.
	ErrEventTypeNotFound = catalog.ErrUnknownType

	// ErrInvalidPayload is returned when a payload cannot be merged into the
	// flat wire shape.
	ErrInvalidPayload = envelope.ErrInvalidPayload

	// ErrPayloadValidationFailed is returned when event data fails the
	// catalog definition's JSON Schema.
	ErrPayloadValidationFailed = errors.New("courier: payload validation failed")

	// ErrNoRecipients is returned by Test when resolution yields no
	// recipients. A test fire with no destination is operator error;
	// normal dispatch tolerates zero recipients silently.
	ErrNoRecipients = errors.New("courier: no recipients resolved")

	// ErrSubscriptionNotFound is returned when a subscription cannot be found.
	ErrSubscriptionNotFound = errors.New("courier: subscription not found")

	// ErrDuplicateSubscription is returned when creating a second
	// subscription for the same (owner, event type) pair.
	ErrDuplicateSubscription = errors.New("courier: subscription already exists for owner and event type")

	// ErrDeadLetterNotFound is returned when a dead letter record cannot be found.
	ErrDeadLetterNotFound = errors.New("courier: dead letter record not found")

	// ErrStoreClosed is returned when a store operation is attempted after
	// the store is closed.
	ErrStoreClosed = errors.New("courier: store is closed")
)
