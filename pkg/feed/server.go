package feed

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/ifcwatch/pkg/cache"
	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/inspect"
	"github.com/matzehuels/ifcwatch/pkg/observability"
	"github.com/matzehuels/ifcwatch/pkg/payload"
)

const (
	// MaxRequestBodySize bounds payload uploads (8MB).
	MaxRequestBodySize = 8 * 1024 * 1024

	// DefaultRenderWidth is used by /render when no width is given.
	DefaultRenderWidth = 80

	// DefaultFrameTTL bounds how long a rendered frame is reused.
	DefaultFrameTTL = 10 * time.Minute

	shutdownTimeout = 5 * time.Second
)

// RenderFunc draws a node snapshot as plain text at the given width.
type RenderFunc func(ctx context.Context, snap Snapshot, width int) string

// PaintBlock is the RenderFunc used when a server has none: it paints the
// payload block for the node's mode, honoring its status.
func PaintBlock(ctx context.Context, snap Snapshot, width int) string {
	proj := inspect.Project(snap.Status, inspect.DefaultLoadingMessage)
	switch proj.Visible {
	case inspect.VisibleLoading:
		lines := []string{proj.Loading.Message}
		if pct := proj.Loading.Percentage; pct != nil {
			lines = append(lines, strconv.FormatFloat(*pct, 'f', -1, 64)+"%")
		}
		if proj.Loading.ProgressMessage != "" {
			lines = append(lines, proj.Loading.ProgressMessage)
		}
		return strings.Join(lines, "\n")
	case inspect.VisibleError:
		return proj.ErrorText
	}
	b := inspect.RenderContext(ctx, snap.Input, inspect.ModeFromNodeData(snap.Data), inspect.Options{})
	return inspect.Painter{Width: width}.Paint(b)
}

// Server exposes a Hub over HTTP.
type Server struct {
	hub      *Hub
	render   RenderFunc
	logger   *log.Logger
	router   chi.Router
	frames   cache.Cache
	frameTTL time.Duration
}

// NewServer creates a server for hub. A nil render uses PaintBlock; a nil
// logger discards request logs.
func NewServer(hub *Hub, render RenderFunc, logger *log.Logger) *Server {
	if render == nil {
		render = PaintBlock
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{hub: hub, render: render, logger: logger, frames: cache.NullCache{}}
	s.routes()
	return s
}

// CacheFrames makes /render reuse frames from c for up to ttl. A frame is
// keyed by node version, width and stored data, so any change renders anew.
// A ttl of 0 means DefaultFrameTTL.
func (s *Server) CacheFrames(c cache.Cache, ttl time.Duration) {
	if c == nil {
		c = cache.NullCache{}
	}
	if ttl <= 0 {
		ttl = DefaultFrameTTL
	}
	s.frames, s.frameTTL = c, ttl
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Route("/nodes", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Patch("/", s.handleMerge)
			r.Put("/input", s.handleInput)
			r.Put("/status", s.handleStatus)
			r.Put("/mode", s.handleMode)
			r.Get("/render", s.handleRender)
			r.Get("/export", s.handleExport)
		})
	})
	s.router = r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("feed listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("feed shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("panic in handler", "method", r.Method, "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, errorBody{
					Error:   string(errors.ErrCodeInternal),
					Message: "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.Feed().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		observability.Feed().OnResponse(r.Context(), r.Method, route, status, dur)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"dur", dur.Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type snapshotBody struct {
	NodeID  string              `json:"nodeId"`
	Input   payload.Input       `json:"input"`
	Status  inspect.StatusState `json:"status"`
	Data    map[string]any      `json:"data"`
	Mode    inspect.Mode        `json:"mode"`
	Version uint64              `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := s.hub.Nodes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"nodes": ids})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if err := s.decodeBody(w, r, &req, true); err != nil {
		s.writeError(w, err)
		return
	}
	id, err := s.hub.Create(r.Context(), req.Label)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/nodes/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"nodeId": id})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.hub.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotBody{
		NodeID:  snap.NodeID,
		Input:   snap.Input,
		Status:  snap.Status,
		Data:    snap.Data,
		Mode:    inspect.ModeFromNodeData(snap.Data),
		Version: snap.Version,
	})
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	format := payload.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = payload.FormatYAML
	}
	in, err := payload.Parse(raw, format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if k := r.URL.Query().Get("kind"); k != "" {
		kind, err := payload.ParseKind(k)
		if err != nil {
			s.writeError(w, err)
			return
		}
		in.Kind = kind
	}
	if err := s.hub.SetInput(r.Context(), chi.URLParam(r, "id"), in); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var st inspect.StatusState
	if err := s.decodeBody(w, r, &st, false); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.hub.SetStatus(r.Context(), chi.URLParam(r, "id"), st); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := s.decodeBody(w, r, &req, false); err != nil {
		s.writeError(w, err)
		return
	}
	mode, err := inspect.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.hub.SetMode(r.Context(), chi.URLParam(r, "id"), mode); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := s.decodeBody(w, r, &fields, false); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.hub.Merge(r.Context(), chi.URLParam(r, "id"), fields); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	width := DefaultRenderWidth
	if v := r.URL.Query().Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid width: %s", v))
			return
		}
		width = n
	}
	snap, err := s.hub.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	frame, hit := s.frame(r.Context(), snap, width)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if hit {
		w.Header().Set("X-Frame-Cache", "hit")
	} else {
		w.Header().Set("X-Frame-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, frame)
	io.WriteString(w, "\n")
}

// frame renders snap, or returns the cached frame for the same state.
// Cache failures only cost a repaint.
func (s *Server) frame(ctx context.Context, snap Snapshot, width int) (string, bool) {
	key := cache.Key("frame", s.hub.ID(), snap.NodeID, snap.Version, width, snap.Data)
	if data, ok, err := s.frames.Get(ctx, key); err != nil {
		s.logger.Warn("frame cache read failed", "node", snap.NodeID, "err", err)
	} else if ok {
		return string(data), true
	}

	frame := s.render(ctx, snap, width)
	if err := s.frames.Set(ctx, key, []byte(frame), s.frameTTL); err != nil {
		s.logger.Warn("frame cache write failed", "node", snap.NodeID, "err", err)
	}
	return frame, false
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.hub.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if snap.Input.Absent() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	text, err := inspect.Export(snap.Input.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err,
				"request body exceeds maximum size of %d bytes", MaxRequestBodySize)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	return raw, nil
}

// decodeBody decodes a JSON request body into v. An empty body is an error
// unless allowEmpty is set.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	raw, err := s.readBody(w, r)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		if allowEmpty {
			return nil
		}
		return errors.New(errors.ErrCodeInvalidInput, "request body is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsValidation(err):
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Error: string(code), Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":%q}`, errors.ErrCodeInternal)
	}
}
