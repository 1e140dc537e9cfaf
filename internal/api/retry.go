package api

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// withRetry runs fn up to p.Attempts times, sleeping Delay*attempt between
// failures. ErrNotFound and context errors end the loop early.
func (c *Client) withRetry(ctx context.Context, op string, p Policy, fn func() error) error {
	attempts := max(p.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrNotFound) || ctx.Err() != nil {
			return lastErr
		}

		c.log.Warn().Err(lastErr).
			Str("op", op).
			Int("attempt", attempt).
			Int("attempts", attempts).
			Msg("request failed")

		if attempt < attempts {
			if err := c.sleep(ctx, p.Delay*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
