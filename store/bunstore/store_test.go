package bunstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pantrio/courier"
	"github.com/pantrio/courier/deadletter"
	"github.com/pantrio/courier/id"
	"github.com/pantrio/courier/internal/entity"
	"github.com/pantrio/courier/subscription"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func newSub(ownerID, eventType string) *subscription.Subscription {
	return &subscription.Subscription{
		Entity:    entity.New(),
		ID:        id.NewSubscriptionID(),
		OwnerID:   ownerID,
		EventType: eventType,
		URL:       "https://hooks.example.com/" + eventType,
		Secret:    "whsec_test",
		Headers:   map[string]string{"X-Team": "pantry"},
		Active:    true,
		RateLimit: 5,
	}
}

func TestSubscriptionRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	sub := newSub("owner-1", "stock_low")
	if err := s.CreateSubscription(ctx, sub); err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}

	got, err := s.GetSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubscription() error = %v", err)
	}
	if got.OwnerID != "owner-1" || got.EventType != "stock_low" {
		t.Errorf("got = %+v", got)
	}
	if got.Headers["X-Team"] != "pantry" {
		t.Errorf("Headers = %v", got.Headers)
	}
	if got.Secret != "whsec_test" {
		t.Errorf("Secret = %q", got.Secret)
	}
	if got.RateLimit != 5 {
		t.Errorf("RateLimit = %d", got.RateLimit)
	}
}

func TestUniquePairEnforced(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	if err := s.CreateSubscription(ctx, newSub("owner-1", "stock_low")); err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}

	err := s.CreateSubscription(ctx, newSub("owner-1", "stock_low"))
	if !errors.Is(err, courier.ErrDuplicateSubscription) {
		t.Fatalf("CreateSubscription(dup) error = %v, want ErrDuplicateSubscription", err)
	}

	// Different owner or type is fine.
	if err := s.CreateSubscription(ctx, newSub("owner-2", "stock_low")); err != nil {
		t.Fatalf("CreateSubscription(other owner) error = %v", err)
	}
	if err := s.CreateSubscription(ctx, newSub("owner-1", "budget_warning")); err != nil {
		t.Fatalf("CreateSubscription(other type) error = %v", err)
	}
}

func TestFindActiveCreationOrder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	first := newSub("owner-1", "stock_low")
	if err := s.CreateSubscription(ctx, first); err != nil {
		t.Fatalf("CreateSubscription() error = %v", err)
	}

	got, err := s.FindActive(ctx, "owner-1", "stock_low")
	if err != nil {
		t.Fatalf("FindActive() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != first.ID {
		t.Fatalf("FindActive() = %+v", got)
	}

	if err := s.SetActive(ctx, first.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	got, _ = s.FindActive(ctx, "owner-1", "stock_low")
	if len(got) != 0 {
		t.Fatalf("FindActive() after disable = %+v", got)
	}
}

func TestSubscriptionNotFound(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	missing := id.NewSubscriptionID()

	if _, err := s.GetSubscription(ctx, missing); !errors.Is(err, courier.ErrSubscriptionNotFound) {
		t.Errorf("GetSubscription() error = %v", err)
	}
	if err := s.DeleteSubscription(ctx, missing); !errors.Is(err, courier.ErrSubscriptionNotFound) {
		t.Errorf("DeleteSubscription() error = %v", err)
	}
	if err := s.SetActive(ctx, missing, true); !errors.Is(err, courier.ErrSubscriptionNotFound) {
		t.Errorf("SetActive() error = %v", err)
	}
}

func TestDeadLetterRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rec := &deadletter.Record{
		Entity:     entity.New(),
		ID:         id.NewDeadLetterID(),
		OwnerID:    "owner-1",
		EventType:  "stock_low",
		Recipient:  "global",
		URL:        "https://hooks.example.com/sink",
		Payload:    []byte(`{"eventType":"stock_low","item":"Eggs"}`),
		Error:      "endpoint returned status 503",
		StatusCode: 503,
		Attempts:   3,
		FailedAt:   now,
	}
	if err := s.PushDeadLetter(ctx, rec); err != nil {
		t.Fatalf("PushDeadLetter() error = %v", err)
	}

	got, err := s.GetDeadLetter(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetDeadLetter() error = %v", err)
	}
	if got.StatusCode != 503 || got.Attempts != 3 {
		t.Errorf("got = %+v", got)
	}
	if string(got.Payload) != string(rec.Payload) {
		t.Errorf("Payload = %s", got.Payload)
	}

	at := now.Add(time.Minute)
	if err := s.MarkReplayed(ctx, rec.ID, at); err != nil {
		t.Fatalf("MarkReplayed() error = %v", err)
	}
	got, _ = s.GetDeadLetter(ctx, rec.ID)
	if got.ReplayedAt == nil || !got.ReplayedAt.Equal(at) {
		t.Errorf("ReplayedAt = %v", got.ReplayedAt)
	}

	list, err := s.ListDeadLetters(ctx, deadletter.ListOpts{OwnerID: "owner-1"})
	if err != nil {
		t.Fatalf("ListDeadLetters() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListDeadLetters() len = %d", len(list))
	}

	count, err := s.CountDeadLetters(ctx)
	if err != nil {
		t.Fatalf("CountDeadLetters() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountDeadLetters() = %d", count)
	}

	purged, err := s.PurgeDeadLetters(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("PurgeDeadLetters() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("PurgeDeadLetters() = %d", purged)
	}
}
