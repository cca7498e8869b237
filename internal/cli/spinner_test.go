package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStop(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "Converting wsj_0601...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
}

func TestSpinnerStopIdempotent(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "Rendering tree...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "Converting corpus...")
	s.Start()

	// An interrupted run cancels the command context; the spinner must
	// wind down on its own and a late Stop must not hang.
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after parent context cancellation")
	}
}

func TestSpinnerStopWithError(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "Converting wsj_0602...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("Conversion failed")
}
