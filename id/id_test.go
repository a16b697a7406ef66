package id

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewAndParseRoundTrip(t *testing.T) {
	subID := NewSubscriptionID()

	s := subID.String()
	if !strings.HasPrefix(s, "sub_") {
		t.Fatalf("String() = %q, want sub_ prefix", s)
	}

	parsed, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed != subID {
		t.Errorf("Parse(%q) = %v, want %v", s, parsed, subID)
	}
}

func TestPrefixes(t *testing.T) {
	tests := []struct {
		id   ID
		want Prefix
	}{
		{NewSubscriptionID(), PrefixSubscription},
		{NewEnvelopeID(), PrefixEnvelope},
		{NewDeadLetterID(), PrefixDeadLetter},
	}
	for _, tt := range tests {
		if got := tt.id.Prefix(); got != tt.want {
			t.Errorf("Prefix() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseWithPrefix(t *testing.T) {
	subID := NewSubscriptionID()

	if _, err := ParseSubscriptionID(subID.String()); err != nil {
		t.Fatalf("ParseSubscriptionID() error = %v", err)
	}
	if _, err := ParseDeadLetterID(subID.String()); err == nil {
		t.Fatal("ParseDeadLetterID() accepted a sub_ ID")
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "not-an-id", "sub_!!!"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) = nil error", s)
		}
	}
}

func TestNilID(t *testing.T) {
	if !Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
	if Nil.String() != "" {
		t.Errorf("Nil.String() = %q", Nil.String())
	}
	if NewEnvelopeID().IsNil() {
		t.Error("fresh ID reports nil")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	subID := NewSubscriptionID()

	raw, err := json.Marshal(subID)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back ID
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != subID {
		t.Errorf("round trip = %v, want %v", back, subID)
	}
}

func TestSQLValueScan(t *testing.T) {
	subID := NewSubscriptionID()

	v, err := subID.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var back ID
	if err := back.Scan(v); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if back != subID {
		t.Errorf("Scan round trip = %v, want %v", back, subID)
	}

	var fromNil ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error = %v", err)
	}
	if !fromNil.IsNil() {
		t.Error("Scan(nil) did not produce the Nil ID")
	}

	nilVal, err := Nil.Value()
	if err != nil {
		t.Fatalf("Nil.Value() error = %v", err)
	}
	if nilVal != nil {
		t.Errorf("Nil.Value() = %v, want nil", nilVal)
	}
}
