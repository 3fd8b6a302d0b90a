package server

import (
	"cmp"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/abhisek/wellnesswave/internal/assessment"
	"github.com/abhisek/wellnesswave/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// envelope is the response shape of the /api routes.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeStatus(w http.ResponseWriter, code int, msg string) {
	status := "success"
	if code >= 400 {
		status = "error"
	}
	writeJSON(w, code, envelope{Status: status, Message: msg})
}

func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeBody(w, r)
	if err == nil {
		err = assessmentRequest.validate(doc)
	}
	if err != nil {
		writeStatus(w, http.StatusBadRequest, "Invalid assessment data")
		return
	}

	obj := doc.(map[string]any)
	items := obj["answers"].([]any)
	sub := assessment.Submission{Answers: make([]float64, len(items))}
	for i, it := range items {
		sub.Answers[i] = it.(float64)
	}
	sub.Type, _ = obj["type"].(string)

	if s.assessments == nil {
		s.log.Error("assessment submitted with no store configured")
		writeStatus(w, http.StatusInternalServerError, "Error processing assessment")
		return
	}
	out, err := s.assessments.Submit(r.Context(), sub)
	if err != nil {
		s.log.Error("assessment error", zap.Error(err))
		writeStatus(w, http.StatusInternalServerError, "Error processing assessment")
		return
	}

	s.metrics.ObserveAssessment(cmp.Or(sub.Type, assessment.DefaultType), out.Result)
	writeJSON(w, http.StatusCreated, envelope{
		Status:  "success",
		Message: "Assessment submitted successfully",
		Data:    out,
	})
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	if s.assessments == nil {
		writeStatus(w, http.StatusServiceUnavailable, "Assessment store unavailable")
		return
	}

	a, err := s.assessments.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeStatus(w, http.StatusNotFound, "Assessment not found")
		return
	}
	if err != nil {
		s.log.Error("get assessment", zap.String("id", r.PathValue("id")), zap.Error(err))
		writeStatus(w, http.StatusInternalServerError, "Error retrieving assessment")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: a})
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	if s.assessments == nil {
		writeStatus(w, http.StatusServiceUnavailable, "Assessment store unavailable")
		return
	}

	opts := store.ListOpts{Type: r.URL.Query().Get("type"), Limit: defaultListLimit}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeStatus(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		opts.Limit = min(n, maxListLimit)
	}

	list, err := s.assessments.List(r.Context(), opts)
	if err != nil {
		s.log.Error("list assessments", zap.Error(err))
		writeStatus(w, http.StatusInternalServerError, "Error retrieving assessments")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: list})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "API is healthy")
}
