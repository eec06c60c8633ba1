package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/tabletop-agents/pkg/chat"
)

const maxAttempts = 3

// baseRetryDelay is a var so tests can shrink it.
var baseRetryDelay = time.Second

// apiStatusError is a non-2xx response from a provider API.
type apiStatusError struct {
	Status int
	Body   string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.Status, e.Body)
}

// completer is the single method a provider needs: turn a conversation
// into raw model output.
type completer interface {
	complete(ctx context.Context, messages []chat.Message) (string, error)
}

// completeWithRetry retries transient failures up to maxAttempts. Rate
// limits back off linearly; other errors retry after the base delay.
func completeWithRetry(ctx context.Context, c completer, logger *slog.Logger, messages []chat.Message) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := c.complete(ctx, messages)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		delay := baseRetryDelay
		var statusErr *apiStatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusTooManyRequests {
			delay = baseRetryDelay * time.Duration(attempt)
		}
		logger.Warn("oracle call failed, retrying", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", fmt.Errorf("oracle call failed after %d attempts: %w", maxAttempts, lastErr)
}
