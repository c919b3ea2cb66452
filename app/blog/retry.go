package blog

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const retryBaseDelay = 500 * time.Millisecond

// retrySleep is swapped out in tests so retries never wall-sleep.
var retrySleep = time.Sleep

// Retry invokes action up to maxAttempts times, sleeping with exponential
// backoff and jitter before each retry. Only transient failures (5xx
// responses, see IsTransient) are retried; any other error aborts
// immediately. A maxAttempts of zero is a configuration error.
func Retry[T any](maxAttempts int, action func() (T, error)) (T, error) {
	var zero T
	if maxAttempts <= 0 {
		return zero, fmt.Errorf("max retries must be greater than zero")
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			retrySleep(backoffDelay(attempt))
		}

		var v T
		v, err = action()
		if err == nil {
			return v, nil
		}
		if !IsTransient(err) {
			return zero, err
		}
	}

	return zero, err
}

// backoffDelay returns the sleep before retry number attempt (1-based):
// 500ms, 1s, 2s, ... plus up to one base delay of jitter.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay << (attempt - 1)
	return delay + rand.N(retryBaseDelay)
}
