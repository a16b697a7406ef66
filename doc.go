// Package courier is the outbound webhook dispatch engine for a household
// grocery and meal-planning application.
//
// Courier is a library, not a service. Domain services call Dispatch when
// something happens (a meal plan is created, stock runs low, a budget is
// exceeded) and Courier delivers a structured JSON description of the event
// to every registered HTTP endpoint: an optional process-wide default sink
// plus the owner's active subscription for that event type.
//
// Key properties:
//   - At-least-once delivery with bounded retries (3 attempts, 1s/2s backoff)
//     and a fixed per-attempt timeout
//   - Per-recipient isolation: deliveries fan out concurrently and one slow
//     or failing endpoint never delays or fails another
//   - Failure is data: Dispatch returns a summary, never an error, for
//     partial or even total delivery failure
//   - Host-only endpoint masking in every result and log line
//   - Static event catalog with sample payloads and a diagnostics test mode
//   - Dead letter audit trail with manual replay
//   - Composable store pattern (memory, Bun/SQLite/Postgres, Redis)
//
// Quick start:
//
//	c, err := courier.New(
//	    courier.WithStore(memory.New()),
//	    courier.WithDefaultSink("https://hooks.example.com/household"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := c.Dispatch(ctx, "owner_42", catalog.StockLow,
//	    map[string]any{"item": "Eggs", "quantity": 2})
package courier
