// Package server exposes the catalog over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/siherrmann/bibliograph/core/pipeline"
	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
)

// maxRequestBodySize limits submission bodies
const maxRequestBodySize = 1 << 20

// EntityCreator stores a newly submitted entity and sets its BBID
type EntityCreator interface {
	CreateEntity(ctx context.Context, entity *model.Entity) error
}

// Backend is the entity store the routes read from and write to
type Backend interface {
	pipeline.EntityLoader
	pipeline.VocabularyFinder
	EntityCreator
}

// Server routes catalog requests through pipelines
type Server struct {
	backend  Backend
	resolver pipeline.RelationshipResolver
	metrics  *helper.Metrics
	log      *slog.Logger
	mux      *http.ServeMux

	entity          pipeline.Stage
	editionForm     *pipeline.Pipeline
	publicationForm *pipeline.Pipeline
}

// New creates a server. metrics may be nil.
func New(backend Backend, resolver pipeline.RelationshipResolver, metrics *helper.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		backend:  backend,
		resolver: resolver,
		metrics:  metrics,
		log:      logger,
		mux:      http.NewServeMux(),
	}

	var entityPipelines []*pipeline.Pipeline
	for _, kind := range model.Kinds {
		p := pipeline.NewPipeline(
			kind.Segment(),
			pipeline.MatchKind(kind),
			pipeline.MakeEntityLoader(backend, kind, string(kind)+" not found"),
			pipeline.LoadEntityRelationships(resolver),
		)
		p.SetMetrics(metrics)
		entityPipelines = append(entityPipelines, p)
	}
	s.entity = pipeline.Chain(entityPipelines...)

	s.editionForm = pipeline.NewPipeline(
		"edition-create",
		pipeline.LoadLanguages(backend),
		pipeline.LoadEditionFormats(backend),
		pipeline.LoadEditionStatuses(backend),
		pipeline.LoadIdentifierTypes(backend),
	)
	s.editionForm.SetMetrics(metrics)

	s.publicationForm = pipeline.NewPipeline(
		"publication-create",
		pipeline.LoadLanguages(backend),
		pipeline.LoadPublicationTypes(backend),
		pipeline.LoadIdentifierTypes(backend),
	)
	s.publicationForm.SetMetrics(metrics)

	s.mux.HandleFunc("GET /{kind}/{bbid}", s.handleEntity)
	s.mux.HandleFunc("GET /edition/create", s.handleForm(s.editionForm))
	s.mux.HandleFunc("GET /publication/create", s.handleForm(s.publicationForm))
	s.mux.HandleFunc("POST /edition/create/handler", s.handleCreateEdition)
	s.mux.HandleFunc("POST /publication/create/handler", s.handleCreatePublication)
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics.Handler())
	}

	return s
}

// ServeHTTP counts and logs every request
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	s.mux.ServeHTTP(rec, r)

	route := r.Pattern
	if len(route) == 0 {
		route = "unmatched"
	}
	s.metrics.CountRequest(route, rec.status)
	s.log.Debug("Handled request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rec.status),
		slog.Duration("duration", time.Since(start)),
	)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, cfg model.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", slog.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return helper.NewError("listen", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("Shutting down")
		return helper.NewError("shutdown", srv.Shutdown(shutdownCtx))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
