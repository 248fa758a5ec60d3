package utils

import (
	"context"
	"strings"
	"time"
)

// WaitFor blocks for d using sleepFn or until ctx is done.
// A nil sleepFn falls back to time.Sleep.
func WaitFor(ctx context.Context, d time.Duration, sleepFn func(time.Duration)) error {
	if d <= 0 {
		return nil
	}

	if sleepFn == nil {
		sleepFn = time.Sleep
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleepFn(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// CollapseWhitespace joins all whitespace runs into single spaces.
// Job descriptions arrive with arbitrary line breaks from ingestion.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
