package subscription_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pantrio/courier"
	"github.com/pantrio/courier/catalog"
	"github.com/pantrio/courier/store/memory"
	"github.com/pantrio/courier/subscription"
)

func newService(t *testing.T) *subscription.Service {
	t.Helper()
	return subscription.NewService(memory.New(), catalog.New(), nil)
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input subscription.Input
	}{
		{"missing owner", subscription.Input{EventType: catalog.StockLow, URL: "https://hooks.example.com"}},
		{"invalid url", subscription.Input{OwnerID: "owner-1", EventType: catalog.StockLow, URL: "not a url"}},
		{"unknown event type", subscription.Input{OwnerID: "owner-1", EventType: "nonsense", URL: "https://hooks.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.input); err == nil {
				t.Fatal("Create() accepted invalid input")
			}
		})
	}
}

func TestCreateDefaults(t *testing.T) {
	svc := newService(t)

	sub, err := svc.Create(context.Background(), subscription.Input{
		OwnerID:   "owner-1",
		EventType: catalog.StockLow,
		URL:       "https://hooks.example.com/a",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !sub.Active {
		t.Error("Active = false, new subscriptions must start active")
	}
	if !strings.HasPrefix(sub.Secret, "whsec_") {
		t.Errorf("Secret = %q, want generated whsec_ secret", sub.Secret)
	}
	if sub.ID.IsNil() {
		t.Error("ID not assigned")
	}
	if sub.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
}

func TestCreateKeepsProvidedSecret(t *testing.T) {
	svc := newService(t)

	sub, err := svc.Create(context.Background(), subscription.Input{
		OwnerID:   "owner-1",
		EventType: catalog.StockLow,
		URL:       "https://hooks.example.com/a",
		Secret:    "whsec_provided",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sub.Secret != "whsec_provided" {
		t.Errorf("Secret = %q", sub.Secret)
	}
}

func TestUpdateFixedFields(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, subscription.Input{
		OwnerID:   "owner-1",
		EventType: catalog.StockLow,
		URL:       "https://hooks.example.com/a",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := svc.Update(ctx, sub.ID, subscription.Input{
		URL:         "https://hooks.example.com/b",
		Description: "updated",
		RateLimit:   5,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.URL != "https://hooks.example.com/b" {
		t.Errorf("URL = %q", updated.URL)
	}
	if updated.Description != "updated" {
		t.Errorf("Description = %q", updated.Description)
	}
	if updated.RateLimit != 5 {
		t.Errorf("RateLimit = %d", updated.RateLimit)
	}

	// Owner and event type are fixed for the subscription's lifetime.
	if updated.OwnerID != "owner-1" || updated.EventType != catalog.StockLow {
		t.Errorf("identity fields changed: %+v", updated)
	}
}

func TestRotateSecret(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, subscription.Input{
		OwnerID:   "owner-1",
		EventType: catalog.StockLow,
		URL:       "https://hooks.example.com/a",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	oldSecret := sub.Secret

	newSecret, err := svc.RotateSecret(ctx, sub.ID)
	if err != nil {
		t.Fatalf("RotateSecret() error = %v", err)
	}
	if newSecret == oldSecret {
		t.Error("rotated secret equals the old one")
	}
	if !strings.HasPrefix(newSecret, "whsec_") {
		t.Errorf("new secret = %q", newSecret)
	}

	got, err := svc.Get(ctx, sub.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Secret != newSecret {
		t.Error("rotated secret not persisted")
	}
}

func TestDeleteAndList(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, subscription.Input{
		OwnerID:   "owner-1",
		EventType: catalog.StockLow,
		URL:       "https://hooks.example.com/a",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, sub.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, sub.ID); !errors.Is(err, courier.ErrSubscriptionNotFound) {
		t.Fatalf("Get(deleted) error = %v", err)
	}

	subs, err := svc.List(ctx, "owner-1", subscription.ListOpts{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("List() len = %d, want 0", len(subs))
	}
}

func TestGenerateSecretFormat(t *testing.T) {
	a := subscription.GenerateSecret()
	b := subscription.GenerateSecret()

	if a == b {
		t.Error("two generated secrets are identical")
	}
	if !strings.HasPrefix(a, "whsec_") {
		t.Errorf("secret = %q, want whsec_ prefix", a)
	}
	if len(a) != len("whsec_")+64 {
		t.Errorf("secret length = %d, want %d", len(a), len("whsec_")+64)
	}
}
