package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  string
	}{
		{
			name:  "info passes at info level",
			level: log.InfoLevel,
			emit:  func(l *log.Logger) { l.Info("converted document", "id", "wsj_0601") },
			want:  "converted document",
		},
		{
			name:  "debug suppressed at info level",
			level: log.InfoLevel,
			emit:  func(l *log.Logger) { l.Debug("cache key", "key", "convert:abc") },
			want:  "",
		},
		{
			name:  "debug passes at debug level",
			level: log.DebugLevel,
			emit:  func(l *log.Logger) { l.Debug("cache key", "key", "convert:abc") },
			want:  "cache key",
		},
		{
			name:  "warn passes at info level",
			level: log.InfoLevel,
			emit:  func(l *log.Logger) { l.Warn("skipping document", "input", "broken.json") },
			want:  "skipping document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))

			got := buf.String()
			if tt.want == "" {
				if got != "" {
					t.Errorf("expected no output, got %q", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("output %q should contain %q", got, tt.want)
			}
		})
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	time.Sleep(10 * time.Millisecond)
	prog.done("Converted 3 documents")

	got := buf.String()
	if !strings.Contains(got, "Converted 3 documents") {
		t.Errorf("output %q should contain the completion message", got)
	}
	// The elapsed duration is appended in parentheses.
	if !strings.Contains(got, "(") || !strings.Contains(got, "s)") {
		t.Errorf("output %q should report a duration", got)
	}
}

func TestLoggerContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.DebugLevel)

	ctx := withLogger(context.Background(), logger)
	if got := loggerFromContext(ctx); got != logger {
		t.Error("loggerFromContext should return the attached logger")
	}

	loggerFromContext(ctx).Info("ranked attachments", "strategy", "lllrrr")
	if !strings.Contains(buf.String(), "ranked attachments") {
		t.Error("retrieved logger should write to the original buffer")
	}
}

func TestLoggerFromContextFallback(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext should fall back to a usable default")
	}
}
