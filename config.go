package courier

import "time"

// Config holds the configuration for a Courier instance.
type Config struct {
	// DefaultSink is the optional process-wide endpoint URL that receives
	// every event for every owner. Empty means no default sink.
	// Read once at construction.
	DefaultSink string

	// DefaultSinkSecret is the shared secret sent with default sink
	// deliveries. May be empty.
	DefaultSinkSecret string

	// Timeout bounds each individual HTTP delivery attempt.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts per recipient,
	// first try included.
	MaxAttempts int

	// RetryDelay is the wait after the first failed attempt; later waits
	// grow linearly (RetryDelay, 2*RetryDelay, ...).
	RetryDelay time.Duration

	// SenderName is the static sender identifier sent as the User-Agent.
	SenderName string
}

// DefaultConfig returns a Config with the reference delivery constants.
func DefaultConfig() Config {
	return Config{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  1 * time.Second,
		SenderName:  "Courier/1.0",
	}
}
