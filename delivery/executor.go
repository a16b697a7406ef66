package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/pantrio/courier/envelope"
	"github.com/pantrio/courier/observability"
	"github.com/pantrio/courier/ratelimit"
)

const maxResponseBody = 1024 // 1KB cap on response body capture

// Doer abstracts the HTTP transport so tests can substitute a fake.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ExecutorConfig holds executor configuration.
type ExecutorConfig struct {
	// Client performs HTTP requests. Defaults to a plain http.Client;
	// per-attempt timeouts are enforced through the request context.
	Client Doer

	// Policy bounds attempts, timeouts, and inter-attempt delays.
	Policy Policy

	// SenderName is the static sender identifier header value.
	SenderName string

	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// Executor sends one envelope to one recipient with bounded retries.
// Delivery failure is data, never an error or a panic: Send always
// returns a well-formed Result.
type Executor struct {
	client  Doer
	policy  Policy
	sender  string
	limiter *ratelimit.Limiter
	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  *slog.Logger
}

// NewExecutor creates a delivery executor.
func NewExecutor(cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	sender := cfg.SenderName
	if sender == "" {
		sender = "Courier/1.0"
	}
	return &Executor{
		client:  client,
		policy:  cfg.Policy,
		sender:  sender,
		limiter: ratelimit.New(),
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		logger:  logger,
	}
}

// Send delivers the envelope to the recipient, retrying transient
// failures up to the policy bound with strictly increasing delays.
// The final attempt determines the result.
func (x *Executor) Send(ctx context.Context, rcpt Recipient, env *envelope.Envelope) Result {
	masked := MaskURL(rcpt.URL)

	var span trace.Span
	if x.tracer != nil {
		ctx, span = x.tracer.StartDeliverySpan(ctx, env.EventType, rcpt.Tag, masked)
	}

	body, err := json.Marshal(env)
	if err != nil {
		// Payload fields came from the caller; an unmarshalable value
		// surfaces here rather than as a panic mid-flight.
		res := x.finish(ctx, span, Result{
			EventType: env.EventType,
			Recipient: rcpt.Tag,
			Endpoint:  masked,
			Attempts:  0,
			Error:     fmt.Sprintf("marshal envelope: %v", err),
		})
		return res
	}

	res := Result{
		EventType: env.EventType,
		Recipient: rcpt.Tag,
		Endpoint:  masked,
	}

	for attempt := 1; attempt <= x.policy.MaxAttempts; attempt++ {
		if waitErr := x.limiter.Wait(ctx, rcpt.Tag, rcpt.RateLimit); waitErr != nil {
			res.Attempts = attempt - 1
			res.Error = waitErr.Error()
			return x.finish(ctx, span, res)
		}

		statusCode, attemptErr, latency := x.attempt(ctx, rcpt, env, body)

		res.Attempts = attempt
		res.StatusCode = statusCode
		res.LatencyMs = int(latency.Milliseconds())
		res.Error = attemptErr

		switch x.policy.Decide(statusCode, attempt) {
		case Delivered:
			res.Success = true
			res.Error = ""
			return x.finish(ctx, span, res)

		case Fail:
			if res.Error == "" {
				res.Error = fmt.Sprintf("endpoint returned status %d", statusCode)
			}
			return x.finish(ctx, span, res)

		case Retry:
			x.logger.DebugContext(ctx, "delivery attempt failed, retrying",
				"endpoint", masked,
				"recipient", rcpt.Tag,
				"attempt", attempt,
				"status", statusCode,
				"error", attemptErr,
			)
			if sleepErr := sleep(ctx, x.policy.Delay(attempt)); sleepErr != nil {
				res.Error = sleepErr.Error()
				return x.finish(ctx, span, res)
			}
		}
	}

	// Unreachable: Decide returns Fail at the attempt bound.
	return x.finish(ctx, span, res)
}

// attempt performs one HTTP POST. A zero status code signals a transport
// error or timeout; both are retryable.
func (x *Executor) attempt(ctx context.Context, rcpt Recipient, env *envelope.Envelope, body []byte) (statusCode int, errMsg string, latency time.Duration) {
	attemptCtx, cancel := context.WithTimeout(ctx, x.policy.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, rcpt.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Sprintf("create request: %v", err), 0
	}

	// Standard headers.
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", x.sender)
	req.Header.Set("X-Courier-Event", env.EventType)
	req.Header.Set("X-Courier-Event-ID", env.ID.String())
	if rcpt.Secret != "" {
		req.Header.Set("X-Courier-Token", rcpt.Secret)
	}
	if env.Test {
		req.Header.Set("X-Courier-Test", "true")
	}

	// Custom subscription headers.
	for k, v := range rcpt.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := x.client.Do(req) //nolint:gosec // G704: URL is a user-configured webhook destination; SSRF is by design.
	latency = time.Since(start)

	if err != nil {
		return 0, err.Error(), latency
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return resp.StatusCode, "", latency
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	msg := fmt.Sprintf("endpoint returned status %d", resp.StatusCode)
	if len(snippet) > 0 {
		msg += ": " + string(snippet)
	}
	return resp.StatusCode, msg, latency
}

// finish stamps the completion time and records metrics/tracing.
func (x *Executor) finish(ctx context.Context, span trace.Span, res Result) Result {
	res.CompletedAt = time.Now().UTC()

	if x.metrics != nil {
		status := "failed"
		if res.Success {
			status = "delivered"
		}
		x.metrics.RecordDelivery(status, float64(res.LatencyMs)/1000.0)
	}
	if span != nil {
		x.tracer.EndDeliverySpan(span, res.StatusCode, res.Attempts, res.Error)
	}

	if !res.Success {
		x.logger.WarnContext(ctx, "delivery failed",
			"endpoint", res.Endpoint,
			"recipient", res.Recipient,
			"attempts", res.Attempts,
			"status", res.StatusCode,
			"error", res.Error,
		)
	} else {
		x.logger.DebugContext(ctx, "delivered",
			"endpoint", res.Endpoint,
			"recipient", res.Recipient,
			"attempts", res.Attempts,
			"status", res.StatusCode,
			"latency_ms", res.LatencyMs,
		)
	}

	return res
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
