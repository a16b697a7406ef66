package courier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pantrio/courier/catalog"
	"github.com/pantrio/courier/deadletter"
	"github.com/pantrio/courier/delivery"
	"github.com/pantrio/courier/envelope"
	"github.com/pantrio/courier/identity"
	"github.com/pantrio/courier/observability"
	"github.com/pantrio/courier/store"
	"github.com/pantrio/courier/subscription"
)

// Courier is the root webhook dispatch engine.
type Courier struct {
	config    Config
	store     store.Store
	catalog   *catalog.Catalog
	validator *catalog.Validator
	subSvc    *subscription.Service
	builder   *envelope.Builder
	executor  *delivery.Executor
	deadSvc   *deadletter.Service
	contacts  identity.Lookup
	client    delivery.Doer
	extraDefs []catalog.Definition
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	logger    *slog.Logger
}

// New creates a new Courier with the given options.
func New(opts ...Option) (*Courier, error) {
	c := &Courier{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.store == nil {
		return nil, ErrNoStore
	}
	c.wireServices()
	return c, nil
}

// wireServices initializes the internal services after options have been applied.
func (c *Courier) wireServices() {
	c.catalog = catalog.New(c.extraDefs...)
	c.validator = catalog.NewValidator()

	c.subSvc = subscription.NewService(c.store, c.catalog, c.logger)

	c.builder = envelope.NewBuilder(c.contacts, c.logger)

	c.executor = delivery.NewExecutor(delivery.ExecutorConfig{
		Client: c.client,
		Policy: delivery.Policy{
			MaxAttempts: c.config.MaxAttempts,
			Timeout:     c.config.Timeout,
			BaseDelay:   c.config.RetryDelay,
		},
		SenderName: c.config.SenderName,
		Metrics:    c.metrics,
		Tracer:     c.tracer,
	}, c.logger)

	c.deadSvc = deadletter.NewService(c.store, c.executor, c.logger)
}

// Dispatch delivers one event to every resolved recipient and returns the
// aggregated summary.
//
// The critical path:
//  1. Look up the event type in the catalog (reject unknown types).
//  2. Resolve recipients: the default sink first, then the owner's active
//     subscriptions in creation order. Zero recipients is a no-op.
//  3. Build the envelope once (best-effort contact enrichment).
//  4. Validate the payload against the definition's JSON Schema, if any.
//  5. Fan out concurrently, one isolated delivery per recipient.
//  6. Aggregate results in resolution order.
//
// Partial and total delivery failure both return a normal summary; only
// invalid input (unknown event type, non-object payload) returns an error.
func (c *Courier) Dispatch(ctx context.Context, ownerID, eventType string, payload any) (*delivery.Summary, error) {
	def, err := c.catalog.Describe(eventType)
	if err != nil {
		return nil, err
	}

	recipients, err := c.resolve(ctx, ownerID, eventType)
	if err != nil {
		return nil, err
	}

	if len(recipients) == 0 {
		c.logger.DebugContext(ctx, "dispatch no-op, no recipients",
			"event_type", eventType, "owner_id", ownerID)
		return delivery.Summarize(eventType, nil), nil
	}

	env, err := c.builder.Build(ctx, eventType, ownerID, payload)
	if err != nil {
		return nil, err
	}

	if len(def.Schema) > 0 {
		if validateErr := c.validator.Validate(def.Schema, env.Fields); validateErr != nil {
			return nil, fmt.Errorf("%w: %s", ErrPayloadValidationFailed, validateErr.Error())
		}
	}

	results := c.fanOut(ctx, recipients, env)

	summary := delivery.Summarize(eventType, results)

	// Record exhausted failures for audit and manual replay. Best effort:
	// an audit write failure never affects the returned summary.
	for i, res := range results {
		if res.Success {
			continue
		}
		if recordErr := c.deadSvc.Record(ctx, recipients[i], env, res); recordErr != nil {
			c.logger.ErrorContext(ctx, "dead letter record failed",
				"event_type", eventType, "recipient", res.Recipient, "error", recordErr)
		} else if c.metrics != nil {
			c.metrics.DeadLetterSize.Inc()
		}
	}

	if c.metrics != nil {
		c.metrics.RecordDispatch(summary.Total)
	}

	c.logger.DebugContext(ctx, "dispatch complete",
		"event_type", eventType,
		"owner_id", ownerID,
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)

	return summary, nil
}

// Test fires a synthetic event built from the catalog's sample payload
// through the normal delivery path, marked so consumers can distinguish
// test traffic. Nothing is persisted.
//
// Unlike Dispatch, zero recipients is an error here: a test with no
// destination is operator error, not a condition to tolerate silently.
func (c *Courier) Test(ctx context.Context, ownerID, eventType string) ([]delivery.Result, error) {
	def, err := c.catalog.Describe(eventType)
	if err != nil {
		return nil, err
	}

	recipients, err := c.resolve(ctx, ownerID, eventType)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: %s for owner %s", ErrNoRecipients, eventType, ownerID)
	}

	env, err := c.builder.Build(ctx, eventType, ownerID, def.Sample)
	if err != nil {
		return nil, err
	}
	env.Test = true

	return c.fanOut(ctx, recipients, env), nil
}

// resolve produces the delivery targets for one dispatch: the default
// sink (when configured) applies to every owner and event type and comes
// first; the owner's active subscriptions follow in creation order. The
// store is consulted fresh on every call because subscriptions can be
// toggled between events.
func (c *Courier) resolve(ctx context.Context, ownerID, eventType string) ([]delivery.Recipient, error) {
	var recipients []delivery.Recipient

	if c.config.DefaultSink != "" {
		recipients = append(recipients, delivery.Recipient{
			Tag:    delivery.GlobalTag,
			URL:    c.config.DefaultSink,
			Secret: c.config.DefaultSinkSecret,
		})
	}

	subs, err := c.store.FindActive(ctx, ownerID, eventType)
	if err != nil {
		return nil, fmt.Errorf("courier: resolve recipients: %w", err)
	}
	for _, sub := range subs {
		recipients = append(recipients, delivery.Recipient{
			Tag:       sub.ID.String(),
			URL:       sub.URL,
			Secret:    sub.Secret,
			Headers:   sub.Headers,
			RateLimit: sub.RateLimit,
		})
	}

	return recipients, nil
}

// fanOut delivers the envelope to every recipient concurrently. Each
// delivery is fully isolated: results land in resolution order, and a
// panic inside one delivery becomes that recipient's failure result
// without disturbing its siblings.
func (c *Courier) fanOut(ctx context.Context, recipients []delivery.Recipient, env *envelope.Envelope) []delivery.Result {
	results := make([]delivery.Result, len(recipients))

	var wg sync.WaitGroup
	for i, rcpt := range recipients {
		wg.Add(1)
		go func(i int, rcpt delivery.Recipient) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					c.logger.ErrorContext(ctx, "panic during delivery",
						"recipient", rcpt.Tag, "panic", rec)
					results[i] = delivery.Result{
						EventType:   env.EventType,
						Recipient:   rcpt.Tag,
						Endpoint:    delivery.MaskURL(rcpt.URL),
						Error:       fmt.Sprintf("panic: %v", rec),
						CompletedAt: time.Now().UTC(),
					}
				}
			}()
			results[i] = c.executor.Send(ctx, rcpt, env)
		}(i, rcpt)
	}
	wg.Wait()

	return results
}

// Subscriptions returns the subscription management service.
func (c *Courier) Subscriptions() *subscription.Service {
	return c.subSvc
}

// Catalog returns the event type catalog.
func (c *Courier) Catalog() *catalog.Catalog {
	return c.catalog
}

// DeadLetters returns the dead letter service.
func (c *Courier) DeadLetters() *deadletter.Service {
	return c.deadSvc
}

// Store returns the underlying store.
func (c *Courier) Store() store.Store {
	return c.store
}
