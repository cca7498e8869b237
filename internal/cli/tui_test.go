package cli

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestFeedResultsCompletes(t *testing.T) {
	inputs := []string{"a.json", "b.json", "c.json"}
	results := make(chan docDoneMsg)
	go feedResults(context.Background(), inputs, func(ctx context.Context, input string) error {
		return nil
	}, results)

	var got []string
	for msg := range results {
		got = append(got, msg.input)
	}
	if len(got) != len(inputs) {
		t.Fatalf("got %d results, want %d", len(got), len(inputs))
	}
	for i, input := range inputs {
		if got[i] != input {
			t.Errorf("result %d = %q, want %q", i, got[i], input)
		}
	}
}

func TestFeedResultsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inputs := []string{"a.json", "b.json", "c.json", "d.json", "e.json"}

	var calls atomic.Int32
	results := make(chan docDoneMsg)
	done := make(chan struct{})
	go func() {
		feedResults(ctx, inputs, func(ctx context.Context, input string) error {
			calls.Add(1)
			return nil
		}, results)
		close(done)
	}()

	// Quitting the display mid-batch cancels the context; the producer
	// must stop converting and close the channel instead of blocking on
	// a send nobody reads.
	<-results
	cancel()
	for range results {
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer did not exit after cancellation")
	}
	if n := calls.Load(); n >= int32(len(inputs)) {
		t.Errorf("producer converted %d documents after cancellation, want fewer than %d", n, len(inputs))
	}
}
