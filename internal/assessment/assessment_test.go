package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/wellnesswave/internal/store"
)

func TestBand(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, ResultMinimal},
		{4, ResultMinimal},
		{4.5, ResultMild},
		{9, ResultMild},
		{10, ResultModerate},
		{14, ResultModerate},
		{14.5, ResultSevere},
		{30, ResultSevere},
		{-2, ResultMinimal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.score), "score %v", tt.score)
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(nil))
	assert.Equal(t, 7.5, Score([]float64{1, 2.5, 3, 1}))
}

func TestRecommendationsAreCopies(t *testing.T) {
	recs := Recommendations(20)
	require.Len(t, recs, 3)
	assert.Equal(t, "Strongly recommend seeking professional help", recs[0])

	recs[0] = "changed"
	assert.Equal(t, "Strongly recommend seeking professional help", Recommendations(20)[0])
}

type memRepo struct {
	rows   []store.Assessment
	insert error
}

func (m *memRepo) Insert(_ context.Context, a *store.Assessment) (string, error) {
	if m.insert != nil {
		return "", m.insert
	}
	cp := *a
	if cp.ID == "" {
		cp.ID = "id-" + string(rune('a'+len(m.rows)))
	}
	m.rows = append(m.rows, cp)
	return cp.ID, nil
}

func (m *memRepo) Get(_ context.Context, id string) (*store.Assessment, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			return &m.rows[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memRepo) List(_ context.Context, opts store.ListOpts) ([]store.Assessment, error) {
	var out []store.Assessment
	for i := len(m.rows) - 1; i >= 0; i-- {
		if opts.Type == "" || m.rows[i].Type == opts.Type {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memRepo) Count(context.Context) (int64, error) { return int64(len(m.rows)), nil }

func (m *memRepo) DeleteAll(context.Context) (int64, error) {
	n := len(m.rows)
	m.rows = nil
	return int64(n), nil
}

func TestSubmit(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	fixed := time.Date(2025, 5, 4, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	svc.now = func() time.Time { return fixed }

	out, err := svc.Submit(context.Background(), Submission{Answers: []float64{3, 3, 2, 3}})
	require.NoError(t, err)

	assert.Equal(t, "id-a", out.ID)
	assert.Equal(t, 11.0, out.Score)
	assert.Equal(t, ResultModerate, out.Result)
	assert.Equal(t, Recommendations(11), out.Recommendations)

	require.Len(t, repo.rows, 1)
	rec := repo.rows[0]
	assert.Equal(t, DefaultType, rec.Type)
	assert.Equal(t, []float64{3, 3, 2, 3}, rec.Answers)
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	assert.True(t, rec.CreatedAt.Equal(fixed))
}

func TestSubmitKeepsType(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)

	out, err := svc.Submit(context.Background(), Submission{Type: "depression"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Score)
	assert.Equal(t, ResultMinimal, out.Result)
	assert.Equal(t, "depression", repo.rows[0].Type)

	list, err := svc.List(context.Background(), store.ListOpts{Type: "depression"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := svc.Get(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, "depression", got.Type)
}

func TestSubmitStoreError(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewService(&memRepo{insert: boom})

	_, err := svc.Submit(context.Background(), Submission{Answers: []float64{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestGetNotFound(t *testing.T) {
	svc := NewService(&memRepo{})
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
