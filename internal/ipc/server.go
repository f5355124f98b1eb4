package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/1broseidon/deskshell/internal/bus"
	"github.com/1broseidon/deskshell/internal/config"
	"github.com/1broseidon/deskshell/internal/desktop"
	"github.com/1broseidon/deskshell/internal/shell"
)

// maxBodyBytes bounds request bodies. Snapshots are the largest payload.
const maxBodyBytes = 4 << 20

// Server exposes a shell over HTTP.
type Server struct {
	shell     *shell.Shell
	logger    *slog.Logger
	cfg       *config.Config
	cfgMu     sync.RWMutex
	startTime time.Time
	router    *chi.Mux
	http      *http.Server
	addrPath  string
}

// NewServer creates a server for sh. cfg supplies the viewport used by the
// maximize and arrange endpoints.
func NewServer(sh *shell.Shell, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		shell:     sh,
		logger:    logger,
		cfg:       cfg,
		startTime: time.Now(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/state", s.handleState)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/interaction", s.handleInteraction)
		r.Post("/actions", s.handleActions)
		r.Post("/deeplink", s.handleDeepLink)
		r.Post("/arrange", s.handleArrange)

		r.Route("/windows/{id}", func(r chi.Router) {
			r.Post("/maximize", s.handleMaximize)
			r.Post("/subscriptions", s.handleSubscribe)
			r.Delete("/subscriptions/{topic}", s.handleUnsubscribe)
			r.Post("/publish", s.handlePublish)
			r.Get("/inbox", s.handleInbox)
			r.Get("/lifecycle", s.handleLifecycle)
		})
	})
	return r
}

// Serve answers requests on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	s.logger.Info("API server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.http.Shutdown(shutdownCtx)
		s.removeAddrFile()
		return err
	case err := <-errCh:
		s.removeAddrFile()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// ListenAndServe listens on addr, records the bound address in addrPath so
// clients can find the server, and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr, addrPath string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if addrPath != "" {
		if err := writeAddrFile(addrPath, ln.Addr().String()); err != nil {
			ln.Close()
			return err
		}
		s.addrPath = addrPath
	}
	return s.Serve(ctx, ln)
}

func writeAddrFile(path, addr string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create runtime dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(addr+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write address file: %w", err)
	}
	return nil
}

func (s *Server) removeAddrFile() {
	if s.addrPath != "" {
		os.Remove(s.addrPath)
	}
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := s.shell.State()
	data := StatusData{
		Revision:      s.shell.Revision(),
		WindowCount:   len(state.Windows),
		Sessions:      s.shell.Sessions(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
	if focused, ok := state.FocusedWindow(); ok {
		id := focused.ID
		data.FocusedWindow = &id
	}
	writeOK(w, data)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.shell.State())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.shell.Snapshot())
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.shell.Interaction())
}

// handleActions accepts one tagged action or a JSON array of them.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var actions []desktop.Action
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		actions, err = desktop.DecodeActions(trimmed)
	} else {
		var a desktop.Action
		a, err = desktop.DecodeAction(body)
		actions = []desktop.Action{a}
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.shell.DispatchAll(r.Context(), actions); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeOK(w, StatusData{Revision: s.shell.Revision(), WindowCount: len(s.shell.State().Windows)})
}

func (s *Server) handleDeepLink(w http.ResponseWriter, r *http.Request) {
	var req DeepLinkPayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	link, err := s.shell.OpenDeepLink(r.Context(), req.URL)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeOK(w, link)
}

func (s *Server) handleArrange(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req ArrangePayload
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	cfg := s.GetConfig()
	gap := cfg.ArrangeGap
	if req.Gap != nil {
		gap = *req.Gap
	}
	if gap < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("gap must be >= 0"))
		return
	}
	action := desktop.ArrangeWindows{Viewport: cfg.ViewportRect(), Gap: gap}
	if err := s.shell.Dispatch(r.Context(), action); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeOK(w, s.shell.State())
}

func (s *Server) handleMaximize(w http.ResponseWriter, r *http.Request) {
	id, ok := windowIDParam(w, r)
	if !ok {
		return
	}
	action := desktop.MaximizeWindow{ID: id, Viewport: s.GetConfig().ViewportRect()}
	if err := s.shell.Dispatch(r.Context(), action); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	rec, _ := s.shell.State().Window(id)
	writeOK(w, rec)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	id, ok := windowIDParam(w, r)
	if !ok {
		return
	}
	var req SubscribePayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.shell.Subscribe(id, req.Topic); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	id, ok := windowIDParam(w, r)
	if !ok {
		return
	}
	topic := chi.URLParam(r, "topic")
	if !s.shell.Unsubscribe(id, topic) {
		writeError(w, http.StatusNotFound, fmt.Errorf("window %d is not subscribed to %q", id, topic))
		return
	}
	writeOK(w, nil)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	source, ok := windowIDParam(w, r)
	if !ok {
		return
	}
	var req PublishPayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("topic is required"))
		return
	}
	if req.Target != nil {
		ev, err := s.shell.Send(source, *req.Target, req.Topic, req.Payload, req.CorrelationID, req.ReplyTo)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeOK(w, ev)
		return
	}
	writeOK(w, s.shell.Publish(source, req.Topic, req.Payload, req.CorrelationID, req.ReplyTo))
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	id, ok := windowIDParam(w, r)
	if !ok {
		return
	}
	consume := r.URL.Query().Get("drain") == "true"
	events, dropped, err := s.shell.Inbox(id, consume)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if events == nil {
		events = []bus.Event{}
	}
	writeOK(w, InboxData{Events: events, Dropped: dropped})
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	id, ok := windowIDParam(w, r)
	if !ok {
		return
	}
	phase, found := s.shell.Lifecycle(id)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("window %d: %w", id, bus.ErrNoSession))
		return
	}
	writeOK(w, LifecycleData{Lifecycle: phase})
}

func windowIDParam(w http.ResponseWriter, r *http.Request) (desktop.WindowID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := desktop.ParseWindowID(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid window id %q", raw))
		return 0, false
	}
	return id, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, desktop.ErrWindowNotFound), errors.Is(err, bus.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

func decodeBody(r *http.Request, out any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeOK(w http.ResponseWriter, data any) {
	resp, err := NewOKResponse(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeResponse(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeResponse(w, status, NewErrorResponse(err.Error()))
}

func writeResponse(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
