// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about rendering, clipboard export, resizing, node-state
// storage and the HTTP feed.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	block := inspect.Render(in, mode, opts)
//	observability.Render().OnRender(ctx, block.Category.String(), block.Renderer.String(), time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the inspection pipeline.
type RenderHooks interface {
	// OnRender records one classify/select/render pass.
	OnRender(ctx context.Context, category, renderer string, duration time.Duration)

	// OnStatus records a status projection that hides the data.
	OnStatus(ctx context.Context, status, visible string)
}

// =============================================================================
// Clipboard Hooks
// =============================================================================

// ClipboardHooks receives events from clipboard export.
type ClipboardHooks interface {
	// OnCopy records an export attempt. err is nil on success.
	OnCopy(ctx context.Context, size int, err error)

	// OnCopyReset records the copied flag returning to idle.
	OnCopyReset(ctx context.Context)
}

// =============================================================================
// Resize Hooks
// =============================================================================

// ResizeHooks receives events from resize drags.
type ResizeHooks interface {
	OnResizeStart(ctx context.Context, nodeID string, width, height int)
	// OnResizeMove records one write-back. err is the updater's error.
	OnResizeMove(ctx context.Context, nodeID string, width, height int, err error)
	OnResizeEnd(ctx context.Context, nodeID string, width, height int)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from node-state stores.
type StoreHooks interface {
	// OnStoreGet records a read. hit is false for unknown nodes.
	OnStoreGet(ctx context.Context, backend, nodeID string, hit bool)

	// OnStoreUpdate records a merge-write.
	OnStoreUpdate(ctx context.Context, backend, nodeID string, err error)
}

// =============================================================================
// Feed Hooks
// =============================================================================

// FeedHooks receives events from the HTTP feed.
type FeedHooks interface {
	// OnRequest records an incoming request. route is the chi route pattern.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRender(context.Context, string, string, time.Duration) {}
func (NoopRenderHooks) OnStatus(context.Context, string, string)                {}

// NoopClipboardHooks is a no-op implementation of ClipboardHooks.
type NoopClipboardHooks struct{}

func (NoopClipboardHooks) OnCopy(context.Context, int, error) {}
func (NoopClipboardHooks) OnCopyReset(context.Context)        {}

// NoopResizeHooks is a no-op implementation of ResizeHooks.
type NoopResizeHooks struct{}

func (NoopResizeHooks) OnResizeStart(context.Context, string, int, int)       {}
func (NoopResizeHooks) OnResizeMove(context.Context, string, int, int, error) {}
func (NoopResizeHooks) OnResizeEnd(context.Context, string, int, int)         {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreGet(context.Context, string, string, bool)     {}
func (NoopStoreHooks) OnStoreUpdate(context.Context, string, string, error) {}

// NoopFeedHooks is a no-op implementation of FeedHooks.
type NoopFeedHooks struct{}

func (NoopFeedHooks) OnRequest(context.Context, string, string)                      {}
func (NoopFeedHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks    RenderHooks    = NoopRenderHooks{}
	clipboardHooks ClipboardHooks = NoopClipboardHooks{}
	resizeHooks    ResizeHooks    = NoopResizeHooks{}
	storeHooks     StoreHooks     = NoopStoreHooks{}
	feedHooks      FeedHooks      = NoopFeedHooks{}
	hooksMu        sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any rendering.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetClipboardHooks registers custom clipboard hooks.
func SetClipboardHooks(h ClipboardHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		clipboardHooks = h
	}
}

// SetResizeHooks registers custom resize hooks.
func SetResizeHooks(h ResizeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resizeHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store is opened.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetFeedHooks registers custom feed hooks.
func SetFeedHooks(h FeedHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		feedHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Clipboard returns the registered clipboard hooks.
func Clipboard() ClipboardHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return clipboardHooks
}

// Resize returns the registered resize hooks.
func Resize() ResizeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resizeHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Feed returns the registered feed hooks.
func Feed() FeedHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return feedHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	clipboardHooks = NoopClipboardHooks{}
	resizeHooks = NoopResizeHooks{}
	storeHooks = NoopStoreHooks{}
	feedHooks = NoopFeedHooks{}
}
