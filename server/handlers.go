package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/siherrmann/bibliograph/core/pipeline"
	"github.com/siherrmann/bibliograph/model"
)

// errorResponse is the JSON body of failed requests
type errorResponse struct {
	Error string `json:"error"`
}

// handleEntity serves GET /{kind}/{bbid}
func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	state := pipeline.NewState()
	if err := s.entity(r, state); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, state.Entity)
}

// handleForm serves the vocabularies a create form needs
func (s *Server) handleForm(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := pipeline.NewState()
		if err := p.Run(r, state); err != nil {
			s.writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, state)
	}
}

// handleCreateEdition serves POST /edition/create/handler
func (s *Server) handleCreateEdition(w http.ResponseWriter, r *http.Request) {
	var submission model.EditionSubmission
	if !s.decode(w, r, &submission) {
		return
	}
	if err := submission.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.create(w, r, submission.Entity(), submission.Note)
}

// handleCreatePublication serves POST /publication/create/handler
func (s *Server) handleCreatePublication(w http.ResponseWriter, r *http.Request) {
	var submission model.PublicationSubmission
	if !s.decode(w, r, &submission) {
		return
	}
	if err := submission.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.create(w, r, submission.Entity(), submission.Note)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, entity *model.Entity, note string) {
	if err := s.backend.CreateEntity(r.Context(), entity); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log.Info("Created entity", slog.String("bbid", entity.BBID.String()), slog.String("kind", string(entity.Kind)))

	writeJSON(w, http.StatusOK, model.Revision{Entity: entity.Ref(), Note: note})
}

// writeError maps pipeline and store errors to responses
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *pipeline.NotFoundError
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Message})
	case errors.Is(err, pipeline.ErrRouteMismatch):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "page not found"})
	case errors.Is(err, model.ErrInvalidSubmission):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.log.Error("Request failed", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
