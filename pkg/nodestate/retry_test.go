package nodestate

import (
	"context"
	stderrors "errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	errDown := stderrors.New("connection refused")
	errAuth := stderrors.New("NOAUTH")

	tests := []struct {
		name      string
		failures  []error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{"first try", nil, 3, 1, nil},
		{"recovers", []error{transient(errDown), transient(errDown)}, 3, 3, nil},
		{"gives up", []error{transient(errDown), transient(errDown), transient(errDown)}, 3, 3, errDown},
		{"permanent", []error{errAuth}, 3, 1, errAuth},
		{"zero attempts runs once", []error{transient(errDown)}, 0, 1, errDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retry(context.Background(), tt.attempts, time.Millisecond, func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !stderrors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry(ctx, 3, time.Hour, func() error {
		return transient(stderrors.New("timeout"))
	})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTransientNil(t *testing.T) {
	if transient(nil) != nil {
		t.Error("transient(nil) should be nil")
	}
}
