package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pantrio/courier/envelope"
	"github.com/pantrio/courier/id"
)

func testEnvelope() *envelope.Envelope {
	return &envelope.Envelope{
		ID:        id.NewEnvelopeID(),
		EventType: "stock_low",
		Timestamp: time.Now().UTC(),
		OwnerID:   "owner-1",
		Fields:    map[string]any{"item": "Eggs", "quantity": 2},
	}
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	return NewExecutor(ExecutorConfig{
		Policy: Policy{
			MaxAttempts: 3,
			Timeout:     2 * time.Second,
			BaseDelay:   time.Millisecond,
		},
	}, nil)
}

func TestSendSuccess(t *testing.T) {
	var gotBody map[string]any
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	x := newTestExecutor(t)
	env := testEnvelope()
	res := x.Send(context.Background(), Recipient{
		Tag:     "sub_test",
		URL:     srv.URL,
		Secret:  "whsec_abc",
		Headers: map[string]string{"X-Custom": "custom-value"},
	}, env)

	if !res.Success {
		t.Fatalf("result = %+v, want success", res)
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}
	if res.Endpoint != srv.URL {
		t.Errorf("Endpoint = %q, want masked %q", res.Endpoint, srv.URL)
	}
	if res.CompletedAt.IsZero() {
		t.Error("CompletedAt not stamped")
	}

	if gotHeader.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", gotHeader.Get("Content-Type"))
	}
	if gotHeader.Get("X-Courier-Event") != "stock_low" {
		t.Errorf("X-Courier-Event = %q", gotHeader.Get("X-Courier-Event"))
	}
	if gotHeader.Get("X-Courier-Event-ID") != env.ID.String() {
		t.Errorf("X-Courier-Event-ID = %q", gotHeader.Get("X-Courier-Event-ID"))
	}
	if gotHeader.Get("X-Courier-Token") != "whsec_abc" {
		t.Errorf("X-Courier-Token = %q", gotHeader.Get("X-Courier-Token"))
	}
	if gotHeader.Get("X-Custom") != "custom-value" {
		t.Errorf("X-Custom = %q", gotHeader.Get("X-Custom"))
	}
	if gotHeader.Get("X-Courier-Test") != "" {
		t.Errorf("X-Courier-Test set on non-test envelope")
	}

	if gotBody["item"] != "Eggs" {
		t.Errorf("body item = %v, want flattened payload", gotBody["item"])
	}
}

func TestSendTestHeader(t *testing.T) {
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	x := newTestExecutor(t)
	env := testEnvelope()
	env.Test = true
	x.Send(context.Background(), Recipient{Tag: GlobalTag, URL: srv.URL}, env)

	if gotHeader.Get("X-Courier-Test") != "true" {
		t.Errorf("X-Courier-Test = %q, want true", gotHeader.Get("X-Courier-Test"))
	}
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	x := newTestExecutor(t)
	res := x.Send(context.Background(), Recipient{Tag: GlobalTag, URL: srv.URL}, testEnvelope())

	if !res.Success {
		t.Fatalf("result = %+v, want success on third attempt", res)
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
	if res.Error != "" {
		t.Errorf("Error = %q, want empty on success", res.Error)
	}
}

func TestSendClientErrorNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGone)
		w.Write([]byte("endpoint retired")) //nolint:errcheck
	}))
	defer srv.Close()

	x := newTestExecutor(t)
	res := x.Send(context.Background(), Recipient{Tag: GlobalTag, URL: srv.URL}, testEnvelope())

	if res.Success {
		t.Fatal("Success = true for 410")
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, 410 must not be retried", res.Attempts)
	}
	if calls.Load() != 1 {
		t.Errorf("endpoint hit %d times, want 1", calls.Load())
	}
	if !strings.Contains(res.Error, "410") || !strings.Contains(res.Error, "endpoint retired") {
		t.Errorf("Error = %q, want status and body snippet", res.Error)
	}
}

func TestSendExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	x := newTestExecutor(t)
	res := x.Send(context.Background(), Recipient{Tag: GlobalTag, URL: srv.URL}, testEnvelope())

	if res.Success {
		t.Fatal("Success = true after exhausted retries")
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
	if calls.Load() != 3 {
		t.Errorf("endpoint hit %d times, want 3", calls.Load())
	}
}

func TestSendTransportErrorRetried(t *testing.T) {
	// Nothing listens here; every attempt fails at the transport layer.
	x := newTestExecutor(t)
	res := x.Send(context.Background(), Recipient{Tag: GlobalTag, URL: "http://127.0.0.1:1"}, testEnvelope())

	if res.Success {
		t.Fatal("Success = true for unreachable endpoint")
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want full retry budget", res.Attempts)
	}
	if res.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport error", res.StatusCode)
	}
	if res.Error == "" {
		t.Error("Error empty for transport failure")
	}
}

func TestSendContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	x := NewExecutor(ExecutorConfig{
		Policy: Policy{
			MaxAttempts: 3,
			Timeout:     2 * time.Second,
			BaseDelay:   5 * time.Second,
		},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := x.Send(ctx, Recipient{Tag: GlobalTag, URL: srv.URL}, testEnvelope())
	if res.Success {
		t.Fatal("Success = true after cancellation")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Send did not stop promptly on cancellation")
	}
}

func TestSendUnmarshalableEnvelope(t *testing.T) {
	x := newTestExecutor(t)
	env := testEnvelope()
	env.Fields["bad"] = make(chan int)

	res := x.Send(context.Background(), Recipient{Tag: GlobalTag, URL: "https://hooks.example.com"}, env)
	if res.Success {
		t.Fatal("Success = true for unmarshalable payload")
	}
	if res.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0 when nothing was sent", res.Attempts)
	}
	if !strings.Contains(res.Error, "marshal") {
		t.Errorf("Error = %q", res.Error)
	}
}
