package source

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"channel-viewer/internal/logging"
	"channel-viewer/internal/metrics"
)

// RetryConfig configures retry behavior for remote fetches
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the retry policy used for playlist fetches
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// isTransient reports whether a failed fetch is worth another attempt.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError ||
			statusErr.StatusCode == http.StatusTooManyRequests
	}

	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// withRetry runs op until it succeeds, fails permanently, or the retry
// budget is spent. Backoff doubles per attempt up to MaxBackoff.
func withRetry(ctx context.Context, target string, config RetryConfig, op func() error) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			if attempt > 0 {
				logging.Info("Fetch of %s succeeded on retry %d", target, attempt)
			}
			return nil
		}

		lastErr = err
		if !isTransient(err) {
			return err
		}

		if attempt == config.MaxRetries {
			break
		}

		metrics.PlaylistFetchRetries.Inc()
		logging.Debug("Transient error fetching %s: %v, retrying in %v (attempt %d/%d)",
			target, err, backoff, attempt+1, config.MaxRetries)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	logging.Warn("Fetch of %s failed after %d retries: %v", target, config.MaxRetries, lastErr)
	return lastErr
}
