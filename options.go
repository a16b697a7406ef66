package courier

import (
	"log/slog"
	"time"

	"github.com/pantrio/courier/catalog"
	"github.com/pantrio/courier/delivery"
	"github.com/pantrio/courier/identity"
	"github.com/pantrio/courier/observability"
	"github.com/pantrio/courier/store"
)

// Option configures a Courier instance.
type Option func(*Courier) error

// WithStore sets the persistence backend for the Courier instance.
func WithStore(s store.Store) Option {
	return func(c *Courier) error {
		c.store = s
		return nil
	}
}

// WithLogger sets the structured logger for the Courier instance.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Courier) error {
		c.logger = logger
		return nil
	}
}

// WithDefaultSink sets the process-wide default endpoint that receives
// every event for every owner.
func WithDefaultSink(url string) Option {
	return func(c *Courier) error {
		c.config.DefaultSink = url
		return nil
	}
}

// WithDefaultSinkSecret sets the shared secret sent with default sink
// deliveries.
func WithDefaultSinkSecret(secret string) Option {
	return func(c *Courier) error {
		c.config.DefaultSinkSecret = secret
		return nil
	}
}

// WithContactLookup sets the best-effort owner contact lookup used to
// enrich envelopes.
func WithContactLookup(lookup identity.Lookup) Option {
	return func(c *Courier) error {
		c.contacts = lookup
		return nil
	}
}

// WithHTTPClient sets the HTTP transport used for deliveries. Tests can
// substitute a fake.
func WithHTTPClient(client delivery.Doer) Option {
	return func(c *Courier) error {
		c.client = client
		return nil
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Courier) error {
		c.config.Timeout = d
		return nil
	}
}

// WithMaxAttempts sets the total number of delivery attempts per recipient.
func WithMaxAttempts(n int) Option {
	return func(c *Courier) error {
		c.config.MaxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the base inter-attempt delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Courier) error {
		c.config.RetryDelay = d
		return nil
	}
}

// WithSenderName sets the static sender identifier header value.
func WithSenderName(name string) Option {
	return func(c *Courier) error {
		c.config.SenderName = name
		return nil
	}
}

// WithDefinitions registers extra event type definitions alongside the
// built-in catalog. The catalog is sealed once the Courier is built.
func WithDefinitions(defs ...catalog.Definition) Option {
	return func(c *Courier) error {
		c.extraDefs = append(c.extraDefs, defs...)
		return nil
	}
}

// WithMetrics sets the metric instruments recorded during dispatch.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Courier) error {
		c.metrics = m
		return nil
	}
}

// WithTracer enables per-delivery tracing spans.
func WithTracer(t *observability.Tracer) Option {
	return func(c *Courier) error {
		c.tracer = t
		return nil
	}
}
