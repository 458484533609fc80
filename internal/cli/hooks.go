package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ifcwatch/pkg/observability"
)

// logHooks implements every observability hook interface by writing debug
// records to a logger.
type logHooks struct {
	logger *log.Logger
}

// registerLogHooks routes all observability events to l.
func registerLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetRenderHooks(h)
	observability.SetClipboardHooks(h)
	observability.SetResizeHooks(h)
	observability.SetStoreHooks(h)
	observability.SetFeedHooks(h)
}

func (h logHooks) OnRender(_ context.Context, category, renderer string, d time.Duration) {
	h.logger.Debug("render", "category", category, "renderer", renderer, "dur", d)
}

func (h logHooks) OnStatus(_ context.Context, status, visible string) {
	h.logger.Debug("status hides data", "status", status, "visible", visible)
}

func (h logHooks) OnCopy(_ context.Context, size int, err error) {
	if err != nil {
		h.logger.Warn("copy failed", "err", err)
		return
	}
	h.logger.Debug("copied", "bytes", size)
}

func (h logHooks) OnCopyReset(context.Context) {
	h.logger.Debug("copy flag reset")
}

func (h logHooks) OnResizeStart(_ context.Context, nodeID string, w, ht int) {
	h.logger.Debug("resize start", "node", nodeID, "width", w, "height", ht)
}

func (h logHooks) OnResizeMove(_ context.Context, nodeID string, w, ht int, err error) {
	if err != nil {
		h.logger.Warn("resize write-back failed", "node", nodeID, "err", err)
		return
	}
	h.logger.Debug("resize", "node", nodeID, "width", w, "height", ht)
}

func (h logHooks) OnResizeEnd(_ context.Context, nodeID string, w, ht int) {
	h.logger.Debug("resize end", "node", nodeID, "width", w, "height", ht)
}

func (h logHooks) OnStoreGet(_ context.Context, backend, nodeID string, hit bool) {
	h.logger.Debug("store get", "backend", backend, "node", nodeID, "hit", hit)
}

func (h logHooks) OnStoreUpdate(_ context.Context, backend, nodeID string, err error) {
	if err != nil {
		h.logger.Warn("store update failed", "backend", backend, "node", nodeID, "err", err)
		return
	}
	h.logger.Debug("store update", "backend", backend, "node", nodeID)
}

func (h logHooks) OnRequest(_ context.Context, method, route string) {}

func (h logHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("feed response", "method", method, "route", route, "status", status, "dur", d)
}
