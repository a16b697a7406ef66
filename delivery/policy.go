package delivery

import "time"

// Decision is the outcome of evaluating one delivery attempt.
type Decision int

const (
	// Delivered means the attempt was accepted (2xx).
	Delivered Decision = iota

	// Retry means the attempt failed transiently and should be retried.
	Retry

	// Fail means the delivery has permanently failed.
	Fail
)

// Policy bounds the retry behavior of the executor. The same policy
// applies to every recipient; see the config for the process-wide knobs.
type Policy struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int

	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration

	// BaseDelay is the wait after the first failed attempt; subsequent
	// waits grow linearly (BaseDelay, 2*BaseDelay, ...).
	BaseDelay time.Duration
}

// DefaultPolicy returns the reference retry policy: three attempts with a
// 5 second per-attempt timeout and 1s/2s inter-attempt delays.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Timeout:     5 * time.Second,
		BaseDelay:   1 * time.Second,
	}
}

// Decide determines what to do after an attempt returned the given HTTP
// status code (0 on transport error or timeout) at the given attempt
// number (1-based).
//
// Decision matrix:
//   - 2xx → Delivered
//   - 0 (transport error, timeout) → Retry
//   - 429 → Retry (rate limited)
//   - 400–499 (except 429) → Fail immediately (client error won't self-correct)
//   - 500–599 → Retry
//
// Retry decisions past the attempt bound become Fail.
func (p Policy) Decide(statusCode, attempt int) Decision {
	d := p.classify(statusCode)
	if d == Retry && attempt >= p.MaxAttempts {
		return Fail
	}
	return d
}

func (p Policy) classify(statusCode int) Decision {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return Delivered
	case statusCode == 429:
		return Retry
	case statusCode >= 400 && statusCode < 500:
		return Fail
	default:
		// 5xx and 0 (connection refused, DNS failure, timeout).
		return Retry
	}
}

// Delay returns the wait before the next attempt, given the 1-based
// number of the attempt that just failed. Strictly increasing.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * p.BaseDelay
}
