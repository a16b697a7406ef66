package deadletter

import (
	"context"
	"time"

	"github.com/pantrio/courier/id"
)

// Store defines the persistence contract for dead letter records.
type Store interface {
	// PushDeadLetter persists a new record.
	PushDeadLetter(ctx context.Context, rec *Record) error

	// ListDeadLetters returns records, optionally filtered.
	ListDeadLetters(ctx context.Context, opts ListOpts) ([]*Record, error)

	// GetDeadLetter returns a record by ID.
	GetDeadLetter(ctx context.Context, recID id.ID) (*Record, error)

	// MarkReplayed stamps a record's replay time.
	MarkReplayed(ctx context.Context, recID id.ID, at time.Time) error

	// PurgeDeadLetters deletes records created before the threshold,
	// returning the number removed.
	PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error)

	// CountDeadLetters returns the total number of records.
	CountDeadLetters(ctx context.Context) (int64, error)
}
