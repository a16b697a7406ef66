// Package identity defines the consumed contract for owner contact lookup.
//
// The lookup is a best-effort collaborator: the envelope builder uses it to
// enrich outgoing payloads with contact info and tolerates every failure.
package identity

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no contact exists for an owner.
var ErrNotFound = errors.New("identity: owner not found")

// Contact is the minimal contact record attached to outgoing envelopes.
type Contact struct {
	Email string `json:"email"`
}

// Lookup resolves owner contact information.
type Lookup interface {
	// GetContact returns the contact for an owner, or ErrNotFound.
	GetContact(ctx context.Context, ownerID string) (Contact, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, ownerID string) (Contact, error)

// GetContact implements Lookup.
func (f LookupFunc) GetContact(ctx context.Context, ownerID string) (Contact, error) {
	return f(ctx, ownerID)
}

// Static returns a Lookup backed by a fixed owner→contact map.
// Useful for tests and single-household deployments.
func Static(contacts map[string]Contact) Lookup {
	return LookupFunc(func(_ context.Context, ownerID string) (Contact, error) {
		c, ok := contacts[ownerID]
		if !ok {
			return Contact{}, ErrNotFound
		}
		return c, nil
	})
}
