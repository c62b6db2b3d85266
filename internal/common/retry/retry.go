package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// IsRetryableError determines if an error is transient and worth retrying.
// Returns true for network timeouts, connection errors, and temporary failures.
// Returns false for context cancellation and permanent errors such as
// authentication failures.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Never retry context cancellation
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"try again",
		"i/o timeout",
		"no such host",
		"network is unreachable",
		"broken pipe",
		"connection timed out",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// RetryWithBackoff wraps an operation with exponential backoff retry logic
// using IsRetryableError to classify failures.
func RetryWithBackoff(ctx context.Context, maxRetries int, baseDelay time.Duration, operation func() error) error {
	return RetryWithBackoffFunc(ctx, maxRetries, baseDelay, IsRetryableError, operation)
}

// RetryWithBackoffFunc retries an operation with exponential backoff using a
// caller-supplied retryable classifier. The base delay doubles on each attempt
// (capped at 30 seconds). Context cancellation stops retries immediately.
//
// Example:
//
//	err := retry.RetryWithBackoffFunc(ctx, 3, 2*time.Second, isThrottled, func() error {
//	    return callGraph()
//	})
func RetryWithBackoffFunc(ctx context.Context, maxRetries int, baseDelay time.Duration, retryable func(error) bool, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = operation()

		if lastErr == nil {
			if attempt > 0 {
				log.Printf("Operation succeeded after %d retries", attempt)
			}
			return nil
		}

		if !retryable(lastErr) {
			return lastErr
		}

		if attempt == maxRetries {
			return fmt.Errorf("operation failed after %d retries: %w", maxRetries, lastErr)
		}

		// Exponential backoff, capped at 30 seconds
		delay := baseDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}

		log.Printf("Retryable error encountered (attempt %d/%d): %v. Retrying in %v...",
			attempt+1, maxRetries, lastErr, delay)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return lastErr
}
