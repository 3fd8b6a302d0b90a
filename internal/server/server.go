// Package server exposes the screening models and the assessment store
// over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/abhisek/wellnesswave/internal/assessment"
	"github.com/abhisek/wellnesswave/internal/metrics"
	"github.com/abhisek/wellnesswave/internal/screening"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Options wires the server's dependencies. Nil predictors or a nil
// assessment service make the matching routes report unavailability.
type Options struct {
	Anxiety     *screening.AnxietyPredictor
	Depression  *screening.DepressionPredictor
	Assessments *assessment.Service
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

type Server struct {
	anxiety     *screening.AnxietyPredictor
	depression  *screening.DepressionPredictor
	assessments *assessment.Service
	log         *zap.Logger
	metrics     *metrics.Metrics

	mux     *http.ServeMux
	handler http.Handler
}

func New(opts Options) *Server {
	s := &Server{
		anxiety:     opts.Anxiety,
		depression:  opts.Depression,
		assessments: opts.Assessments,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		mux:         http.NewServeMux(),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.routes()

	// Middleware chain, applied inside out.
	var h http.Handler = s.mux
	h = newCORS(opts.CORSOrigins).Handler(h)
	h = s.observe(h)
	s.handler = h
	return s
}

func (s *Server) routes() {
	// Model services
	s.mux.HandleFunc("GET /test", s.handleTest)
	s.mux.HandleFunc("POST /predict/anxiety", s.handlePredictAnxiety)
	s.mux.HandleFunc("POST /predict/depression", s.handlePredictDepression)
	s.mux.HandleFunc("GET /feature_importance", s.handleFeatureImportance)
	s.mux.HandleFunc("GET /feature_importance/{kind}", s.handleFeatureImportance)

	// Assessments
	s.mux.HandleFunc("POST /api/assessment", s.handleSubmitAssessment)
	s.mux.HandleFunc("GET /api/assessment/{id}", s.handleGetAssessment)
	s.mux.HandleFunc("GET /api/assessments", s.handleListAssessments)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

// ServeHTTP runs a request through the full middleware chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
}
