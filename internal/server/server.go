// Package server exposes the planning flows over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/persona-agent/internal/calendar"
	"github.com/persona-agent/internal/planner"
	"github.com/persona-agent/internal/social"
	"github.com/persona-agent/internal/storage"
	"github.com/persona-agent/pkg/logger"
)

// Deps are the flows the API serves
type Deps struct {
	Persona    *planner.PersonaPlanner
	Diagnoser  *planner.Diagnoser
	Strategist *planner.Strategist
	Social     *social.Manager
	Repository storage.Repository
	Platforms  [2]string
}

// Server is the HTTP API
type Server struct {
	deps   Deps
	router chi.Router
	log    *logger.Logger
	now    func() time.Time
}

// New creates the server and registers its routes
func New(deps Deps, log *logger.Logger) *Server {
	if deps.Platforms == ([2]string{}) {
		deps.Platforms = calendar.DefaultPlatforms
	}
	s := &Server{
		deps: deps,
		log:  log.WithComponent("http"),
		now:  time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	s.registerRoutes(r)
	s.router = r
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/diagnose", s.handleDiagnose)
		r.Get("/diagnoses", s.handleListDiagnoses)

		r.Post("/sessions", s.handleAnalyze)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/topics", s.handleTopics)
		r.Get("/sessions/{id}/calendar", s.handleCalendar)

		r.Post("/brand", s.handleBrand)
		r.Post("/compare", s.handleCompare)
		r.Post("/autocorrect", s.handleAutoCorrect)

		r.Get("/history", s.handleHistory)
	})
}

// requestLogger logs each request through the component logger
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.log.Info().Msg("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}
