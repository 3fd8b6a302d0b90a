package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an assessment does not exist.
var ErrNotFound = errors.New("assessment not found")

// Assessment is a submitted, scored questionnaire.
type Assessment struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Answers   []float64 `json:"answers"`
	Score     float64   `json:"score"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOpts filters assessment queries.
type ListOpts struct {
	Type  string // "" = all types
	Limit int    // max results (0 = unlimited)
}

// AssessmentRepo stores assessments.
type AssessmentRepo interface {
	// Insert stores a new assessment and returns its ID. A non-empty
	// a.ID is kept; otherwise the backend assigns one.
	Insert(ctx context.Context, a *Assessment) (string, error)

	// Get returns the assessment with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Assessment, error)

	// List returns assessments, newest first.
	List(ctx context.Context, opts ListOpts) ([]Assessment, error)

	// Count returns the number of stored assessments.
	Count(ctx context.Context) (int64, error)

	// DeleteAll removes every assessment and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
}

func nonNilAnswers(a []float64) []float64 {
	if a == nil {
		return []float64{}
	}
	return a
}
