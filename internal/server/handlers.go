package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/abhisek/wellnesswave/internal/modelfile"
	"github.com/abhisek/wellnesswave/internal/screening"
)

const msgNoAnswers = "No answers provided"

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeBody reads a JSON document of any shape. An empty body decodes
// to nil.
func decodeBody(w http.ResponseWriter, r *http.Request) (any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var doc any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// answersFromList converts decoded [{question, answer}] items.
func answersFromList(items []any) screening.Answers {
	list := make([]screening.Answer, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		q, _ := m["question"].(string)
		list = append(list, screening.Answer{Question: q, Answer: m["answer"]})
	}
	return screening.FromList(list)
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "Server is running",
		"model_loaded": s.anxiety != nil,
		"models": map[string]bool{
			string(modelfile.KindAnxiety):    s.anxiety != nil,
			string(modelfile.KindDepression): s.depression != nil,
		},
	})
}

func (s *Server) handlePredictAnxiety(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoAnswers)
		return
	}
	obj, _ := doc.(map[string]any)
	raw, ok := obj["answers"]
	if !ok || raw == nil {
		writeError(w, http.StatusBadRequest, msgNoAnswers)
		return
	}
	items, ok := raw.([]any)
	if !ok {
		writeError(w, http.StatusBadRequest, "Answers must be a list")
		return
	}
	if err := anxietyRequest.validate(doc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.anxiety == nil {
		writeError(w, http.StatusServiceUnavailable, "Anxiety model not loaded")
		return
	}

	res, err := s.anxiety.Predict(answersFromList(items))
	if err != nil {
		s.predictionError(w, "anxiety", err)
		return
	}
	s.metrics.ObservePrediction(string(modelfile.KindAnxiety), res.Category)
	s.log.Debug("anxiety prediction",
		zap.String("category", res.Category),
		zap.String("rule", res.Rule),
		zap.Float64("probability", res.Probability),
	)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePredictDepression(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeBody(w, r)
	obj, ok := doc.(map[string]any)
	if err != nil || !ok || len(obj) == 0 {
		writeError(w, http.StatusBadRequest, msgNoAnswers)
		return
	}
	if err := depressionRequest.validate(doc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ans screening.Answers
	switch v := obj["answers"].(type) {
	case []any:
		ans = answersFromList(v)
	case map[string]any:
		ans = screening.Answers(v)
	default:
		ans = screening.Answers(obj)
	}
	if len(ans) == 0 {
		writeError(w, http.StatusBadRequest, msgNoAnswers)
		return
	}
	if s.depression == nil {
		writeError(w, http.StatusServiceUnavailable, "Depression model not loaded")
		return
	}

	res, err := s.depression.Predict(ans)
	if err != nil {
		s.predictionError(w, "depression", err)
		return
	}
	s.metrics.ObservePrediction(string(modelfile.KindDepression), res.Category)
	s.log.Debug("depression prediction",
		zap.String("category", res.Category),
		zap.String("rule", res.Rule),
		zap.Float64("probability", res.Probability),
	)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) predictionError(w http.ResponseWriter, kind string, err error) {
	var inErr *screening.InputError
	if errors.As(err, &inErr) {
		writeError(w, http.StatusBadRequest, inErr.Error())
		return
	}
	s.log.Error("prediction failed", zap.String("kind", kind), zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) model(kind modelfile.Kind) *modelfile.Artifact {
	switch kind {
	case modelfile.KindAnxiety:
		if s.anxiety != nil {
			return s.anxiety.Model()
		}
	case modelfile.KindDepression:
		if s.depression != nil {
			return s.depression.Model()
		}
	}
	return nil
}

func (s *Server) handleFeatureImportance(w http.ResponseWriter, r *http.Request) {
	kind := modelfile.KindAnxiety
	if k := r.PathValue("kind"); k != "" {
		parsed, err := modelfile.ParseKind(k)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		kind = parsed
	}

	m := s.model(kind)
	if m == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("%s model not loaded", kind))
		return
	}
	writeJSON(w, http.StatusOK, m.Importance())
}
