// Package clipboard places exported payloads on the user's clipboard.
//
// [System] writes to the native clipboard through atotto/clipboard. When no
// native clipboard exists (headless sessions, SSH) it falls back to an
// OSC 52 escape sequence, which most terminal emulators forward to the
// local clipboard.
package clipboard

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/muesli/termenv"

	"github.com/matzehuels/ifcwatch/pkg/errors"
)

// Writer places text on the clipboard.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

// Func adapts a function to the Writer interface.
type Func func(ctx context.Context, text string) error

// WriteText calls f.
func (f Func) WriteText(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Disabled returns a writer that always fails. It is used when clipboard
// export is switched off in the configuration.
func Disabled() Writer {
	return Func(func(context.Context, string) error {
		return errors.New(errors.ErrCodeClipboardUnavailable, "clipboard export is disabled")
	})
}

// System is the native clipboard with an optional OSC 52 fallback.
type System struct {
	out         io.Writer
	osc52       bool
	native      func(string) error
	unsupported bool
}

// NewSystem creates a system clipboard writer. out receives the OSC 52
// sequence when the fallback is used; nil means os.Stdout.
func NewSystem(out io.Writer, osc52 bool) *System {
	if out == nil {
		out = os.Stdout
	}
	return &System{
		out:         out,
		osc52:       osc52,
		native:      clipboard.WriteAll,
		unsupported: clipboard.Unsupported,
	}
}

// WriteText writes text to the native clipboard, or emits OSC 52 when the
// native clipboard is missing or fails.
func (s *System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var nativeErr error
	if !s.unsupported {
		if nativeErr = s.native(text); nativeErr == nil {
			return nil
		}
	}
	if !s.osc52 {
		if nativeErr != nil {
			return errors.Wrap(errors.ErrCodeClipboardUnavailable, nativeErr, "write clipboard")
		}
		return errors.New(errors.ErrCodeClipboardUnavailable, "no system clipboard available")
	}

	termenv.NewOutput(s.out).Copy(text)
	return nil
}

var _ Writer = (*System)(nil)
