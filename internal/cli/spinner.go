package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerFrames is the braille animation cycle shown while a conversion
// or render is in flight.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a single status line on stderr while the pipeline
// works. It stops when Stop is called or when its context is cancelled,
// whichever comes first; Stop is safe to call more than once.
type Spinner struct {
	message string
	cancel  context.CancelFunc
	idle    chan struct{}
	once    sync.Once
	mu      sync.Mutex
}

// newSpinnerWithContext creates a spinner bound to ctx.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &Spinner{
		message: message,
		cancel:  cancel,
		idle:    make(chan struct{}),
	}
	go s.watch(ctx)
	return s
}

// Start begins the animation.
func (s *Spinner) Start() {
	go s.spin()
}

// watch clears the line if the surrounding context is cancelled before
// Stop is called, so an interrupted run does not leave a stuck frame.
func (s *Spinner) watch(ctx context.Context) {
	<-ctx.Done()
	close(s.idle)
	s.clear()
}

func (s *Spinner) spin() {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.idle:
			return
		case <-ticker.C:
			frame := styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)])
			s.mu.Lock()
			fmt.Fprintf(os.Stderr, "\r%s %s", frame, StyleDim.Render(s.message))
			s.mu.Unlock()
		}
	}
}

// Stop halts the animation and clears the status line.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.idle
	})
}

// StopWithError halts the animation and prints an error line in its
// place.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}
