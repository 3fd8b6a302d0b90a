package forest

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable builds rows where feature 0 decides the class and feature 1 is noise.
func separable(n int) ([][]float64, []int) {
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range n {
		v := float64(i % 10)
		x[i] = []float64{v, float64((i * 7) % 5)}
		if v >= 5 {
			y[i] = 1
		}
	}
	return x, y
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.NumTrees = 15
	cfg.MaxFeatures = 2
	return cfg
}

func TestFit_LearnsSeparableData(t *testing.T) {
	x, y := separable(200)
	f, err := Fit(context.Background(), x, y, 2, smallConfig())
	require.NoError(t, err)

	for _, tc := range []struct {
		row  []float64
		want int
	}{
		{[]float64{0, 1}, 0},
		{[]float64{3, 4}, 0},
		{[]float64{6, 0}, 1},
		{[]float64{9, 2}, 1},
	} {
		got, err := f.Predict(tc.row)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "row %v", tc.row)
	}
}

func TestPredictProba_SumsToOne(t *testing.T) {
	x, y := separable(100)
	f, err := Fit(context.Background(), x, y, 2, smallConfig())
	require.NoError(t, err)

	proba, err := f.PredictProba([]float64{4.5, 2})
	require.NoError(t, err)
	require.Len(t, proba, 2)
	assert.InDelta(t, 1.0, proba[0]+proba[1], 1e-9)
}

func TestPredictProba_WrongWidth(t *testing.T) {
	x, y := separable(50)
	f, err := Fit(context.Background(), x, y, 2, smallConfig())
	require.NoError(t, err)

	_, err = f.PredictProba([]float64{1})
	assert.Error(t, err)
}

func TestFit_DeterministicAcrossWorkers(t *testing.T) {
	x, y := separable(120)

	cfg := smallConfig()
	cfg.Workers = 1
	a, err := Fit(context.Background(), x, y, 2, cfg)
	require.NoError(t, err)

	cfg.Workers = 8
	b, err := Fit(context.Background(), x, y, 2, cfg)
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestFeatureImportances(t *testing.T) {
	x, y := separable(200)
	f, err := Fit(context.Background(), x, y, 2, smallConfig())
	require.NoError(t, err)

	imp := f.FeatureImportances()
	require.Len(t, imp, 2)
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
	assert.Greater(t, imp[0], imp[1], "deciding feature should dominate")
}

func TestFit_MaxDepthOneIsStump(t *testing.T) {
	x, y := separable(100)
	cfg := smallConfig()
	cfg.MaxDepth = 1
	f, err := Fit(context.Background(), x, y, 2, cfg)
	require.NoError(t, err)

	for _, tree := range f.Trees {
		assert.LessOrEqual(t, len(tree.Nodes), 3)
	}
}

func TestFit_MinSamplesLeaf(t *testing.T) {
	x, y := separable(60)
	cfg := smallConfig()
	cfg.MinSamplesLeaf = 40
	f, err := Fit(context.Background(), x, y, 2, cfg)
	require.NoError(t, err)

	// 60 bootstrap rows cannot be split into two leaves of 40.
	for _, tree := range f.Trees {
		assert.Len(t, tree.Nodes, 1)
	}
}

func TestFit_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		x    [][]float64
		y    []int
		k    int
		cfg  Config
	}{
		{"empty", nil, nil, 2, DefaultConfig()},
		{"length mismatch", [][]float64{{1}, {2}}, []int{0}, 2, DefaultConfig()},
		{"single class", [][]float64{{1}}, []int{0}, 1, DefaultConfig()},
		{"label out of range", [][]float64{{1}, {2}}, []int{0, 2}, 2, DefaultConfig()},
		{"ragged rows", [][]float64{{1, 2}, {2}}, []int{0, 1}, 2, DefaultConfig()},
		{"zero trees", [][]float64{{1}, {2}}, []int{0, 1}, 2, Config{MinSamplesSplit: 2, MinSamplesLeaf: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(ctx, tt.x, tt.y, tt.k, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestFit_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x, y := separable(50)
	_, err := Fit(ctx, x, y, 2, smallConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSampleWeights_Balanced(t *testing.T) {
	y := []int{0, 0, 0, 1}
	w := sampleWeights(y, 2, ClassWeight{Balanced: true})
	// n / (k * count): 4/(2*3) and 4/(2*1)
	assert.InDelta(t, 4.0/6.0, w[0], 1e-12)
	assert.InDelta(t, 2.0, w[3], 1e-12)
}

func TestSampleWeights_PerClass(t *testing.T) {
	y := []int{0, 1, 1}
	w := sampleWeights(y, 2, ClassWeight{PerClass: map[int]float64{0: 1.0, 1: 0.5}})
	assert.Equal(t, []float64{1.0, 0.5, 0.5}, w)
}

func TestGini(t *testing.T) {
	assert.Equal(t, 0.0, gini([]float64{4, 0}, 4))
	assert.InDelta(t, 0.5, gini([]float64{2, 2}, 4), 1e-12)
	assert.Equal(t, 0.0, gini([]float64{0, 0}, 0))
}

func TestJSONRoundTrip_PredictsSame(t *testing.T) {
	x, y := separable(80)
	f, err := Fit(context.Background(), x, y, 2, smallConfig())
	require.NoError(t, err)

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	var decoded Forest
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NoError(t, decoded.Validate())

	row := []float64{7, 3}
	want, _ := f.PredictProba(row)
	got, _ := decoded.PredictProba(row)
	for i := range want {
		assert.False(t, math.Abs(want[i]-got[i]) > 1e-12)
	}
}

func TestValidate_RejectsBadChildren(t *testing.T) {
	f := &Forest{
		NumClasses:  2,
		NumFeatures: 1,
		Trees: []Tree{{Nodes: []Node{
			{Feature: 0, Threshold: 1, Left: 0, Right: 5},
		}}},
		Importances: []float64{1},
	}
	assert.Error(t, f.Validate())
}

func TestValidate_Importances(t *testing.T) {
	f := &Forest{
		NumClasses:  2,
		NumFeatures: 1,
		Trees:       []Tree{{Nodes: []Node{{Feature: -1, Value: []float64{0.5, 0.5}}}}},
		Importances: []float64{1},
	}
	require.NoError(t, f.Validate())

	f.Importances = nil
	assert.Error(t, f.Validate())

	f.Importances = []float64{0.5, 0.5}
	assert.Error(t, f.Validate())
}
