package inspect

import (
	"context"
	"time"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/observability"
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

// CopyResetDelay is how long the copy affordance shows its confirmation.
const CopyResetDelay = 1500 * time.Millisecond

// ClipboardWriter places text on the system clipboard.
type ClipboardWriter interface {
	WriteText(ctx context.Context, text string) error
}

// Export serializes the complete value for the clipboard: 2-space indented
// JSON, never truncated, independent of the display mode.
func Export(v any) (string, error) {
	if v == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "nothing to export")
	}
	s, err := payload.Serialize(v)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPayload, err, "export value")
	}
	return s, nil
}

// Copy exports v and writes it to w. It returns the number of bytes
// written. Failures are returned for logging and never reach the view.
func Copy(ctx context.Context, w ClipboardWriter, v any) (int, error) {
	text, err := Export(v)
	if err == nil {
		err = w.WriteText(ctx, text)
	}
	if err != nil {
		observability.Clipboard().OnCopy(ctx, 0, err)
		return 0, err
	}
	observability.Clipboard().OnCopy(ctx, len(text), nil)
	return len(text), nil
}

// CopyFlag is the copied/idle state of the copy affordance.
//
// Every Mark returns a fresh token and only the most recent token can
// expire the flag, so a second copy within the delay restarts the window.
// The zero value is idle.
type CopyFlag struct {
	copied bool
	gen    uint64
}

// Mark sets the flag after a successful copy and returns the token the
// host passes to Expire once CopyResetDelay has elapsed.
func (f *CopyFlag) Mark() uint64 {
	f.gen++
	f.copied = true
	return f.gen
}

// Expire clears the flag if token belongs to the most recent Mark. It
// reports whether the flag changed.
func (f *CopyFlag) Expire(token uint64) bool {
	if token != f.gen || !f.copied {
		return false
	}
	f.copied = false
	observability.Clipboard().OnCopyReset(context.Background())
	return true
}

// Copied reports whether the confirmation is showing.
func (f *CopyFlag) Copied() bool { return f.copied }
