package nodestate

import (
	"context"
	stderrors "errors"
	"time"
)

// Connection retry defaults for backends that dial a server.
const (
	connectAttempts = 3
	connectDelay    = 200 * time.Millisecond
)

// transientError marks a failure worth another attempt, such as a refused
// or timed-out connection.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// transient wraps err so retry tries again. nil stays nil.
func transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// retry runs fn up to attempts times, doubling delay after each transient
// failure. Other errors are returned immediately. It returns the last error
// if every attempt fails, or ctx.Err() if ctx ends while waiting.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !stderrors.As(err, new(*transientError)) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
