package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"regwatch/internal/config"
	"regwatch/internal/logging"
	"regwatch/internal/period"
	"regwatch/internal/store"
)

// Storage is the read surface the API exposes.
type Storage interface {
	Get(ctx context.Context, documentID string) (*period.CommentPeriod, error)
	QueryOpen(ctx context.Context, filter store.OpenFilter) ([]*period.CommentPeriod, error)
	Receipts(ctx context.Context, documentID string) ([]store.Receipt, error)
	GetStats(ctx context.Context, asOf time.Time) (store.Stats, error)
}

// Server wraps the HTTP listener and its routes.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// New builds the API server on the configured bind address.
func New(cfg *config.Config, storage Storage, logger *slog.Logger) *Server {
	logger = logging.NewComponentLogger(logger, "httpapi")
	h := &handlers{storage: storage, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", h.healthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/periods", h.listPeriods)
		r.Get("/periods/{documentID}", h.getPeriod)
		r.Get("/stats", h.stats)
	})

	return &Server{
		http: &http.Server{
			Addr:              cfg.Paths.APIBind,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving requests until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("api listening", logging.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
