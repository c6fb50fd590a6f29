package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lifecycle/pkg/metrics"
	"github.com/vango-dev/lifecycle/pkg/render"
	"github.com/vango-dev/lifecycle/pkg/store"
)

const tracerName = "github.com/vango-dev/lifecycle/pkg/server"

// Config configures a Server.
type Config struct {
	// Addr is the listen address (default ":8080").
	Addr string

	// Title is the page title.
	Title string

	// ShutdownTimeout bounds graceful shutdown (default 5s).
	ShutdownTimeout time.Duration

	// QueueSize is the event loop queue capacity.
	QueueSize int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics defaults to a fresh metrics set on its own registry.
	Metrics *metrics.Metrics

	// Tracer defaults to the global OpenTelemetry tracer.
	Tracer trace.Tracer

	// Lifecycle receives a copy of every lifecycle line.
	Lifecycle io.Writer
}

// Server serves one shared demo to every client.
type Server struct {
	config     Config
	loop       *Loop
	live       *Live
	hub        *Hub
	metrics    *metrics.Metrics
	router     chi.Router
	httpServer *http.Server
	untrack    func()
	logger     *slog.Logger
}

// New builds the server and mounts the demo.
func New(ctx context.Context, config Config) (*Server, error) {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.New()
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(tracerName)
	}

	logger := config.Logger.With("component", "server")
	s := &Server{
		config:  config,
		metrics: config.Metrics,
		logger:  logger,
	}

	s.loop = NewLoop(config.QueueSize, logger)
	s.hub = NewHub(nil, config.Metrics, config.Logger)

	counter := store.NewCounter(store.WithLogger(config.Logger))
	s.untrack = config.Metrics.TrackCounter(counter)

	live, err := NewLive(ctx, s.loop, counter, LiveOptions{
		Logger:    config.Logger,
		Observer:  config.Metrics,
		Tracer:    config.Tracer,
		Lifecycle: config.Lifecycle,
		OnFrame:   s.hub.Broadcast,
	})
	if err != nil {
		s.untrack()
		s.loop.Close()
		return nil, err
	}
	s.live = live
	s.hub.SetLive(live)
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/state", s.handleState)
	r.Post("/increment", s.handleIncrement)
	r.Post("/event/{hid}", s.handleEvent)
	r.Get("/ws", s.hub.HandleWebSocket)
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Live returns the demo served by s.
func (s *Server) Live() *Live {
	return s.live
}

// Hub returns the live client hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.live.Page(r.Context(), render.PageOptions{
		Title:  s.config.Title,
		Script: clientScript,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	frame, err := s.live.Frame(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	frame, err := s.live.Increment(r.Context())
	s.metrics.RecordEvent(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	frame, err := s.live.Event(r.Context(), chi.URLParam(r, "hid"))
	s.metrics.RecordEvent(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnknownHandler):
		status = http.StatusNotFound
	case errors.Is(err, ErrLoopClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// the demo.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	var err error
	if s.httpServer != nil {
		if err = s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
		}
	}
	s.Close()
	s.logger.Info("server shutdown complete")
	return err
}

// Close disconnects clients, unmounts the demo and stops the event loop.
func (s *Server) Close() {
	s.hub.Close()
	if err := s.live.Close(context.Background()); err != nil && !errors.Is(err, ErrLoopClosed) {
		s.logger.Warn("unmount failed", "error", err)
	}
	s.untrack()
	s.loop.Close()
}
