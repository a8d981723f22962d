package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/gridrun/internal/ctxlog"
	"github.com/vk/gridrun/internal/history"
	"github.com/vk/gridrun/internal/report"
)

// runEvents are the repository events that start a run. Anything else is
// acknowledged and dropped.
var runEvents = map[string]bool{
	"push":         true,
	"pull_request": true,
}

// RunFunc executes one full run for a repository event.
type RunFunc func(ctx context.Context, event string) (*report.Report, error)

// HistoryReader serves recorded runs to the read endpoints.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Run, error)
	Cells(ctx context.Context, runID string) ([]history.CellExecution, error)
}

// Server is the HTTP surface that turns repository events into runs.
type Server struct {
	addr    string
	logger  *slog.Logger
	run     RunFunc
	history HistoryReader
	mux     *http.ServeMux

	// baseCtx carries the serve lifetime into detached run goroutines. It
	// is replaced once in Serve, before the listener accepts anything.
	baseCtx context.Context

	// runMu serializes runs: a second trigger queues behind the current
	// run instead of racing it for the same grid.
	runMu sync.Mutex
	runWG sync.WaitGroup

	ready     chan struct{}
	boundAddr string
}

// NewServer wires the endpoint mux. history and metricsHandler may be nil
// to disable their endpoints.
func NewServer(addr string, logger *slog.Logger, run RunFunc, hist HistoryReader, metricsHandler http.Handler) *Server {
	s := &Server{
		addr:    addr,
		logger:  logger,
		run:     run,
		history: hist,
		baseCtx: context.Background(),
		ready:   make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/trigger", s.triggerHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/runs", s.runsHandler)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
	s.mux = mux
	return s
}

// Handler exposes the endpoint mux, mostly for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listen address. Valid only after Ready.
func (s *Server) Addr() string {
	return s.boundAddr
}

// Serve listens and blocks until ctx ends, then shuts down gracefully and
// waits for any in-flight run to wind down.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("trigger server listen: %w", err)
	}

	s.baseCtx = ctx
	s.boundAddr = ln.Addr().String()
	close(s.ready)

	httpServer := &http.Server{Handler: s.mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("🩺 Trigger server starting", "address", fmt.Sprintf("http://%s/health", s.boundAddr))
		// Serve returns ErrServerClosed on graceful shutdown. We check for
		// this specific error to avoid logging a false positive.
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("🩺 Shutting down trigger server...")
		err := httpServer.Shutdown(shutdownCtx)
		s.runWG.Wait()
		return err
	})
	return g.Wait()
}

// triggerHandler accepts repository events. Run-worthy events are
// answered immediately and executed in the background.
func (s *Server) triggerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	event, err := eventFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if event == "" {
		http.Error(w, "missing event", http.StatusBadRequest)
		return
	}

	if !runEvents[event] {
		s.logger.Debug("Ignoring event.", "event", event, "remote_addr", r.RemoteAddr)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "event": event})
		return
	}

	s.logger.Info("Trigger accepted.", "event", event, "remote_addr", r.RemoteAddr)
	s.startRun(event)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "event": event})
}

// startRun launches one run in the background, queued behind any run
// already in flight.
func (s *Server) startRun(event string) {
	runCtx := ctxlog.WithLogger(s.baseCtx, s.logger)

	s.runWG.Add(1)
	go func() {
		defer s.runWG.Done()
		s.runMu.Lock()
		defer s.runMu.Unlock()

		if runCtx.Err() != nil {
			s.logger.Warn("Dropping queued trigger, server is shutting down.", "event", event)
			return
		}
		if _, err := s.run(runCtx, event); err != nil {
			s.logger.Error("Triggered run failed.", "event", event, "error", err)
		}
	}()
}

// healthHandler answers liveness probes.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// runsHandler serves recorded run history. With ?id= it returns the cells
// of one run, otherwise the most recent runs.
func (s *Server) runsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		http.Error(w, "run history is disabled", http.StatusServiceUnavailable)
		return
	}

	if runID := r.URL.Query().Get("id"); runID != "" {
		cells, err := s.history.Cells(r.Context(), runID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, cells)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// eventFromRequest reads the event name from the X-GitHub-Event header,
// falling back to a JSON body with an "event" field.
func eventFromRequest(r *http.Request) (string, error) {
	if event := r.Header.Get("X-GitHub-Event"); event != "" {
		return event, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading trigger payload: %w", err)
	}
	if len(body) == 0 {
		return "", nil
	}

	var payload struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("invalid trigger payload: %w", err)
	}
	return payload.Event, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
