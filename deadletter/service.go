package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pantrio/courier/delivery"
	"github.com/pantrio/courier/envelope"
	"github.com/pantrio/courier/id"
	"github.com/pantrio/courier/internal/entity"
)

// Sender re-delivers an envelope to a recipient. Implemented by
// delivery.Executor.
type Sender interface {
	Send(ctx context.Context, rcpt delivery.Recipient, env *envelope.Envelope) delivery.Result
}

// Service manages the dead letter audit trail.
type Service struct {
	store  Store
	sender Sender
	logger *slog.Logger
}

// NewService creates a new dead letter service.
func NewService(store Store, sender Sender, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		sender: sender,
		logger: logger,
	}
}

// Record persists a failed delivery as a dead letter record.
func (svc *Service) Record(ctx context.Context, rcpt delivery.Recipient, env *envelope.Envelope, res delivery.Result) error {
	payload, marshalErr := json.Marshal(env)
	if marshalErr != nil {
		return fmt.Errorf("deadletter: marshal payload: %w", marshalErr)
	}

	rec := &Record{
		Entity:     entity.New(),
		ID:         id.NewDeadLetterID(),
		OwnerID:    env.OwnerID,
		EventType:  env.EventType,
		Recipient:  rcpt.Tag,
		URL:        rcpt.URL,
		Payload:    payload,
		Error:      res.Error,
		StatusCode: res.StatusCode,
		Attempts:   res.Attempts,
		FailedAt:   res.CompletedAt,
	}

	return svc.store.PushDeadLetter(ctx, rec)
}

// List returns records matching the given options.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Record, error) {
	return svc.store.ListDeadLetters(ctx, opts)
}

// Get returns a record by ID.
func (svc *Service) Get(ctx context.Context, recID id.ID) (*Record, error) {
	return svc.store.GetDeadLetter(ctx, recID)
}

// Replay re-sends a record's payload to its original URL once, through
// the normal delivery executor (same retry bound and masking). The record
// is marked replayed only when the re-send succeeds.
func (svc *Service) Replay(ctx context.Context, recID id.ID) (delivery.Result, error) {
	rec, err := svc.store.GetDeadLetter(ctx, recID)
	if err != nil {
		return delivery.Result{}, err
	}

	env, err := envelopeFromRecord(rec)
	if err != nil {
		return delivery.Result{}, err
	}

	rcpt := delivery.Recipient{
		Tag: rec.Recipient,
		URL: rec.URL,
	}

	res := svc.sender.Send(ctx, rcpt, env)
	if res.Success {
		if markErr := svc.store.MarkReplayed(ctx, recID, time.Now().UTC()); markErr != nil {
			svc.logger.ErrorContext(ctx, "mark replayed failed",
				"record_id", recID, "error", markErr)
		}
	}
	return res, nil
}

// Purge removes records created before the threshold.
func (svc *Service) Purge(ctx context.Context, before time.Time) (int64, error) {
	return svc.store.PurgeDeadLetters(ctx, before)
}

// Count returns the total number of records.
func (svc *Service) Count(ctx context.Context) (int64, error) {
	return svc.store.CountDeadLetters(ctx)
}

// envelopeFromRecord rebuilds a deliverable envelope from the stored
// flattened payload. The replayed envelope keeps the original timestamp
// and metadata but carries a fresh envelope ID.
func envelopeFromRecord(rec *Record) (*envelope.Envelope, error) {
	var body map[string]any
	if err := json.Unmarshal(rec.Payload, &body); err != nil {
		return nil, fmt.Errorf("deadletter: decode payload: %w", err)
	}

	env := &envelope.Envelope{
		ID:        id.NewEnvelopeID(),
		EventType: rec.EventType,
		OwnerID:   rec.OwnerID,
		Fields:    body,
	}

	if ts, ok := body["timestamp"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			env.Timestamp = parsed
		}
	}
	if env.Timestamp.IsZero() {
		env.Timestamp = rec.FailedAt
	}
	if email, ok := body["ownerEmail"].(string); ok {
		env.OwnerEmail = email
	}
	if test, ok := body["_test"].(bool); ok {
		env.Test = test
	}

	// Strip metadata keys; MarshalJSON re-adds them.
	for _, k := range []string{"eventType", "timestamp", "ownerId", "ownerEmail", "_test"} {
		delete(body, k)
	}

	return env, nil
}
