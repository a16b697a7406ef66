package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSweepVisitsAllOwners(t *testing.T) {
	var mu sync.Mutex
	visited := make(map[string]int)

	r := NewRunner(Config{
		Source: StaticOwners("owner-1", "owner-2", "owner-3"),
		Task: func(_ context.Context, ownerID string) error {
			mu.Lock()
			visited[ownerID]++
			mu.Unlock()
			return nil
		},
	})

	r.Sweep(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(visited) != 3 {
		t.Fatalf("visited %d owners, want 3", len(visited))
	}
	for _, ownerID := range []string{"owner-1", "owner-2", "owner-3"} {
		if visited[ownerID] != 1 {
			t.Errorf("owner %s visited %d times, want 1", ownerID, visited[ownerID])
		}
	}
}

func TestSweepIsolatesFailures(t *testing.T) {
	var mu sync.Mutex
	var visited []string

	r := NewRunner(Config{
		Source: StaticOwners("owner-1", "owner-2", "owner-3"),
		Task: func(_ context.Context, ownerID string) error {
			mu.Lock()
			visited = append(visited, ownerID)
			mu.Unlock()
			switch ownerID {
			case "owner-1":
				return errors.New("boom")
			case "owner-2":
				panic("kaboom")
			}
			return nil
		},
	})

	r.Sweep(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(visited) != 3 {
		t.Fatalf("visited = %v, want all three owners despite failures", visited)
	}
}

func TestSweepStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	count := 0

	r := NewRunner(Config{
		Source: StaticOwners("owner-1", "owner-2"),
		Task: func(context.Context, string) error {
			mu.Lock()
			count++
			mu.Unlock()
			cancel()
			return nil
		},
	})

	r.Sweep(ctx)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("task ran %d times after cancel, want 1", count)
	}
}

func TestRunnerStartStop(t *testing.T) {
	var mu sync.Mutex
	count := 0

	r := NewRunner(Config{
		Interval: 10 * time.Millisecond,
		Source:   StaticOwners("owner-1"),
		Task: func(context.Context, string) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		},
	})

	r.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	r.Stop()

	mu.Lock()
	got := count
	mu.Unlock()
	if got == 0 {
		t.Fatal("runner never swept")
	}

	// Stop again is a no-op.
	r.Stop()

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count > got+1 {
		t.Fatalf("runner kept sweeping after Stop: %d -> %d", got, count)
	}
}
