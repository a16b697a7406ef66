package envelope

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pantrio/courier/catalog"
	"github.com/pantrio/courier/id"
	"github.com/pantrio/courier/identity"
)

func marshalToMap(t *testing.T, env *Envelope) map[string]any {
	t.Helper()
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return m
}

func TestMarshalFlattensFields(t *testing.T) {
	ts := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	env := &Envelope{
		ID:         id.NewEnvelopeID(),
		EventType:  "stock_low",
		Timestamp:  ts,
		OwnerID:    "owner-1",
		OwnerEmail: "family@example.com",
		Fields:     map[string]any{"item": "Eggs", "quantity": 2},
	}

	m := marshalToMap(t, env)
	if m["eventType"] != "stock_low" {
		t.Errorf("eventType = %v", m["eventType"])
	}
	if m["timestamp"] != "2026-08-29T10:30:00Z" {
		t.Errorf("timestamp = %v", m["timestamp"])
	}
	if m["ownerId"] != "owner-1" {
		t.Errorf("ownerId = %v", m["ownerId"])
	}
	if m["ownerEmail"] != "family@example.com" {
		t.Errorf("ownerEmail = %v", m["ownerEmail"])
	}
	if m["item"] != "Eggs" {
		t.Errorf("item = %v, payload fields must sit at the top level", m["item"])
	}
	if _, ok := m["fields"]; ok {
		t.Error("nested fields key present, payload must be flattened")
	}
	if _, ok := m["_test"]; ok {
		t.Error("_test present on a non-test envelope")
	}
}

func TestMarshalOmitsEmptyEmail(t *testing.T) {
	env := &Envelope{EventType: "stock_low", Timestamp: time.Now()}
	m := marshalToMap(t, env)
	if _, ok := m["ownerEmail"]; ok {
		t.Error("ownerEmail present despite empty email")
	}
}

func TestMarshalMetadataWinsCollisions(t *testing.T) {
	env := &Envelope{
		EventType: "stock_low",
		Timestamp: time.Now().UTC(),
		OwnerID:   "owner-1",
		Fields: map[string]any{
			"eventType": "spoofed",
			"ownerId":   "someone-else",
		},
	}

	m := marshalToMap(t, env)
	if m["eventType"] != "stock_low" {
		t.Errorf("eventType = %v, metadata must win", m["eventType"])
	}
	if m["ownerId"] != "owner-1" {
		t.Errorf("ownerId = %v, metadata must win", m["ownerId"])
	}
}

func TestMarshalTestMarker(t *testing.T) {
	env := &Envelope{EventType: "stock_low", Timestamp: time.Now(), Test: true}
	m := marshalToMap(t, env)
	if m["_test"] != true {
		t.Errorf("_test = %v, want true", m["_test"])
	}
}

func TestBuildWithMapPayload(t *testing.T) {
	b := NewBuilder(nil, nil)

	payload := map[string]any{"item": "Eggs"}
	env, err := b.Build(context.Background(), "stock_low", "owner-1", payload)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if env.EventType != "stock_low" || env.OwnerID != "owner-1" {
		t.Errorf("envelope = %+v", env)
	}
	if env.ID.IsNil() {
		t.Error("envelope ID not assigned")
	}
	if env.Timestamp.IsZero() {
		t.Error("timestamp not stamped")
	}

	// The builder copies the map; caller mutations must not leak in.
	payload["item"] = "Milk"
	if env.Fields["item"] != "Eggs" {
		t.Error("builder did not copy the payload map")
	}
}

func TestBuildWithStructPayload(t *testing.T) {
	b := NewBuilder(nil, nil)

	type stockEvent struct {
		Item     string `json:"item"`
		Quantity int    `json:"quantity"`
	}
	env, err := b.Build(context.Background(), "stock_low", "owner-1", stockEvent{Item: "Eggs", Quantity: 2})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if env.Fields["item"] != "Eggs" {
		t.Errorf("item = %v", env.Fields["item"])
	}
}

func TestBuildNilPayload(t *testing.T) {
	b := NewBuilder(nil, nil)

	env, err := b.Build(context.Background(), "weekly_summary", "owner-1", nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(env.Fields) != 0 {
		t.Errorf("Fields = %v, want empty", env.Fields)
	}
}

func TestBuildRejectsNonObjectPayload(t *testing.T) {
	b := NewBuilder(nil, nil)

	for _, payload := range []any{"a string", 42, []string{"list"}, true} {
		if _, err := b.Build(context.Background(), "stock_low", "owner-1", payload); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("Build(%v) error = %v, want ErrInvalidPayload", payload, err)
		}
	}
}

func TestBuildBuiltinSamples(t *testing.T) {
	b := NewBuilder(nil, nil)

	for _, def := range catalog.Builtin() {
		env, err := b.Build(context.Background(), def.Name, "owner-1", def.Sample)
		if err != nil {
			t.Errorf("Build(%s sample) error = %v", def.Name, err)
			continue
		}

		m := marshalToMap(t, env)
		if m["eventType"] != def.Name {
			t.Errorf("eventType = %v, want %s", m["eventType"], def.Name)
		}
		for key := range def.Sample {
			if _, ok := m[key]; !ok {
				t.Errorf("%s: sample field %q missing from wire payload", def.Name, key)
			}
		}
	}
}

func TestBuildContactEnrichment(t *testing.T) {
	lookup := identity.Static(map[string]identity.Contact{
		"owner-1": {Email: "family@example.com"},
	})
	b := NewBuilder(lookup, nil)

	env, err := b.Build(context.Background(), "stock_low", "owner-1", nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if env.OwnerEmail != "family@example.com" {
		t.Errorf("OwnerEmail = %q", env.OwnerEmail)
	}

	// Unknown owner: enrichment is skipped, never an error.
	env, err = b.Build(context.Background(), "stock_low", "owner-unknown", nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if env.OwnerEmail != "" {
		t.Errorf("OwnerEmail = %q, want empty", env.OwnerEmail)
	}
}

func TestBuildLookupFailureTolerated(t *testing.T) {
	lookup := identity.LookupFunc(func(context.Context, string) (identity.Contact, error) {
		return identity.Contact{}, errors.New("directory unavailable")
	})
	b := NewBuilder(lookup, nil)

	env, err := b.Build(context.Background(), "stock_low", "owner-1", nil)
	if err != nil {
		t.Fatalf("Build() error = %v, lookup failures must be tolerated", err)
	}
	if env.OwnerEmail != "" {
		t.Errorf("OwnerEmail = %q", env.OwnerEmail)
	}
}
