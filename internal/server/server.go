// Package server exposes the scheduler and the working-calendar utilities
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/joshharrison/timeloom/internal/calendar"
	"github.com/joshharrison/timeloom/internal/config"
	"github.com/joshharrison/timeloom/internal/telemetry"
)

// Server is the timeloom HTTP API.
type Server struct {
	cfg      *config.Config
	calendar *calendar.WorkingCalendar // used when a request carries none
	logger   zerolog.Logger
	router   chi.Router

	mu    sync.RWMutex
	graph *Graph // last computed critical path
}

// New constructs the server and wires routes.
func New(cfg *config.Config, cal *calendar.WorkingCalendar, logger zerolog.Logger) *Server {
	if cal == nil {
		cal = calendar.Default()
	}
	c := *cal
	if c.SearchLimit == 0 {
		c.SearchLimit = cfg.SearchLimitDays
	}
	cal = &c

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(telemetry.MetricsMiddleware)

	s := &Server{cfg: cfg, calendar: cal, logger: logger, router: router}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.cfg.MetricsEnabled {
		s.router.Handle("/metrics", telemetry.Handler())
	}

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/critical-path", s.handleCriticalPath)
		r.Get("/graph", s.handleGetGraph)

		r.Route("/calendar", func(r chi.Router) {
			r.Post("/is-working-day", s.handleIsWorkingDay)
			r.Post("/next", s.handleNext)
			r.Post("/previous", s.handlePrevious)
			r.Post("/snap", s.handleSnap)
			r.Post("/add", s.handleAdd)
			r.Post("/end-date", s.handleEndDate)
			r.Post("/duration", s.handleDuration)
		})
	})
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info().Msg("http server shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	limit := int64(s.cfg.MaxBodyKB) * 1024
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
