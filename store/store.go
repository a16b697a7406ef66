// Package store defines the composite Store interface for all Courier persistence.
//
// Each subsystem defines its own store interface; the aggregate Store
// composes them so that one backend can serve the whole engine.
package store

import (
	"context"

	"github.com/pantrio/courier/deadletter"
	"github.com/pantrio/courier/subscription"
)

// Store is the aggregate persistence interface.
type Store interface {
	subscription.Store
	deadletter.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
