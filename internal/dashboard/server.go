// Package dashboard serves the JSON API behind the web dashboard:
// chat overview, on-demand user analyses with a recent-results
// history, and side-by-side comparison.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/chatinsight/insight-bot/internal/analyze"
	"github.com/chatinsight/insight-bot/internal/platform/observability"
	db "github.com/chatinsight/insight-bot/internal/storage"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

type Server struct {
	analyzer *analyze.Service
	database *db.DB
	history  *History
	logger   *zerolog.Logger

	analyzeLimit int
	port         int
}

func NewServer(analyzer *analyze.Service, database *db.DB, analyzeLimit, port int, logger *zerolog.Logger) *Server {
	return &Server{
		analyzer:     analyzer,
		database:     database,
		history:      NewHistory(defaultHistoryCap),
		logger:       logger,
		analyzeLimit: analyzeLimit,
		port:         port,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/overview", s.handleOverview)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/analyses", s.handleAnalyses)
		r.Post("/compare", s.handleCompare)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Int("port", s.port).Msg("dashboard server started")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}

	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("dashboard request")

		observability.DashboardRequests.WithLabelValues(r.URL.Path, strconv.Itoa(ww.Status())).Inc()
	})
}
