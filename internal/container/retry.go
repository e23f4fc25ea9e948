// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// RetryWithBackoff retries op up to maxAttempts times with exponential backoff.
// ctx is checked between attempts so a canceled caller stops immediately.
//
// op returns (shouldRetry bool, err error). If shouldRetry is false, err is
// returned immediately (nil on success, non-nil on permanent failure).
// On retry exhaustion, the last error is returned.
func RetryWithBackoff(
	ctx context.Context,
	maxAttempts int,
	baseBackoff time.Duration,
	op func(attempt int) (retry bool, err error),
) error {
	var lastErr error
	for attempt := range max(maxAttempts, 1) {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(baseBackoff * time.Duration(1<<(attempt-1))):
			}
		}

		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// EnsureImage pulls image unless it is already present locally. Pulls that
// fail with a transient error are retried up to attempts times. logger may
// be nil.
func EnsureImage(ctx context.Context, engine Engine, image string, attempts int, backoff time.Duration, logger *log.Logger) error {
	if ok, err := engine.ImageExists(ctx, image); err == nil && ok {
		return nil
	}
	if logger != nil {
		logger.Info("pulling image", "image", image, "engine", engine.Name())
	}
	return RetryWithBackoff(ctx, attempts, backoff, func(attempt int) (bool, error) {
		err := engine.Pull(ctx, image)
		retry := IsTransientError(err)
		if err != nil && logger != nil {
			if retry && attempt+1 < attempts {
				logger.Warn("image pull failed, retrying", "image", image, "attempt", attempt+1, "of", attempts, "err", err)
			} else {
				logger.Error("image pull failed", "image", image, "attempt", attempt+1, "err", err)
			}
		}
		return retry, err
	})
}
