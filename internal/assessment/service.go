package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/wellnesswave/internal/store"
)

// Submission is a completed questionnaire.
type Submission struct {
	Type    string
	Answers []float64
}

// Outcome is what a client sees after submitting.
type Outcome struct {
	ID              string   `json:"id"`
	Score           float64  `json:"score"`
	Result          string   `json:"result"`
	Recommendations []string `json:"recommendations"`
}

// Service scores submissions and stores them.
type Service struct {
	repo store.AssessmentRepo
	now  func() time.Time
}

// NewService creates a Service backed by repo.
func NewService(repo store.AssessmentRepo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Submit scores and records a submission.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	typ := sub.Type
	if typ == "" {
		typ = DefaultType
	}

	score := Score(sub.Answers)
	rec := &store.Assessment{
		Type:      typ,
		Answers:   sub.Answers,
		Score:     score,
		Result:    Band(score),
		CreatedAt: s.now().UTC(),
	}
	id, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("store assessment: %w", err)
	}

	return &Outcome{
		ID:              id,
		Score:           score,
		Result:          rec.Result,
		Recommendations: Recommendations(score),
	}, nil
}

// Get returns a stored assessment.
func (s *Service) Get(ctx context.Context, id string) (*store.Assessment, error) {
	return s.repo.Get(ctx, id)
}

// List returns stored assessments, newest first.
func (s *Service) List(ctx context.Context, opts store.ListOpts) ([]store.Assessment, error) {
	return s.repo.List(ctx, opts)
}
