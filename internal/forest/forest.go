// Package forest implements a random forest of CART classification trees.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
)

// ErrEmptyDataset is returned when Fit is called without samples.
var ErrEmptyDataset = errors.New("empty dataset")

// Forest is a fitted ensemble. It is immutable after Fit and safe for
// concurrent use.
type Forest struct {
	NumClasses  int       `json:"num_classes"`
	NumFeatures int       `json:"num_features"`
	Trees       []Tree    `json:"trees"`
	Importances []float64 `json:"importances"`
}

// Fit grows cfg.NumTrees trees on bootstrap samples of (x, y). Labels must be
// class indices in [0, numClasses). The result depends only on the data and
// cfg.Seed, not on how trees are scheduled across workers.
func Fit(ctx context.Context, x [][]float64, y []int, numClasses int, cfg Config) (*Forest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(x) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and labels (%d) differ", len(x), len(y))
	}
	if numClasses < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", numClasses)
	}

	numFeatures := len(x[0])
	if numFeatures == 0 {
		return nil, fmt.Errorf("rows have no features")
	}
	for i, row := range x {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), numFeatures)
		}
	}
	for i, label := range y {
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("row %d label %d out of range [0,%d)", i, label, numClasses)
		}
	}

	weight := sampleWeights(y, numClasses, cfg.ClassWeight)
	maxFeatures := cfg.MaxFeatures
	if maxFeatures == 0 || maxFeatures > numFeatures {
		maxFeatures = max(1, int(math.Sqrt(float64(numFeatures))))
	}

	trees := make([]Tree, cfg.NumTrees)
	importances := make([][]float64, cfg.NumTrees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	for t := range cfg.NumTrees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(t)))
			samples := make([]int, len(x))
			for i := range samples {
				samples[i] = rng.IntN(len(x))
			}
			b := &treeBuilder{
				x:           x,
				y:           y,
				weight:      weight,
				numClasses:  numClasses,
				numFeatures: numFeatures,
				cfg:         cfg,
				maxFeatures: maxFeatures,
				rng:         rng,
			}
			trees[t], importances[t] = b.build(samples)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit trees: %w", err)
	}

	return &Forest{
		NumClasses:  numClasses,
		NumFeatures: numFeatures,
		Trees:       trees,
		Importances: averageImportances(importances, numFeatures),
	}, nil
}

// PredictProba returns the mean class distribution over all trees.
func (f *Forest) PredictProba(row []float64) ([]float64, error) {
	if len(row) != f.NumFeatures {
		return nil, fmt.Errorf("row has %d features, want %d", len(row), f.NumFeatures)
	}
	out := make([]float64, f.NumClasses)
	for i := range f.Trees {
		for c, p := range f.Trees[i].leaf(row) {
			out[c] += p
		}
	}
	n := float64(len(f.Trees))
	for c := range out {
		out[c] /= n
	}
	return out, nil
}

// Predict returns the most probable class. Ties go to the lower index.
func (f *Forest) Predict(row []float64) (int, error) {
	proba, err := f.PredictProba(row)
	if err != nil {
		return 0, err
	}
	best := 0
	for c, p := range proba {
		if p > proba[best] {
			best = c
		}
	}
	return best, nil
}

// FeatureImportances returns the mean decrease in impurity per feature,
// normalised to sum to 1. All zeros when no tree ever split.
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, len(f.Importances))
	copy(out, f.Importances)
	return out
}

// Validate checks the structural integrity of a decoded forest.
func (f *Forest) Validate() error {
	if f.NumClasses < 2 || f.NumFeatures < 1 {
		return fmt.Errorf("forest shape %d classes x %d features is invalid", f.NumClasses, f.NumFeatures)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	if len(f.Importances) != f.NumFeatures {
		return fmt.Errorf("forest has %d importances, want %d", len(f.Importances), f.NumFeatures)
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature == leafFeature {
				if len(n.Value) != f.NumClasses {
					return fmt.Errorf("tree %d leaf %d has %d classes, want %d", ti, ni, len(n.Value), f.NumClasses)
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= f.NumFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d", ti, ni, n.Feature)
			}
			// Children are always appended after their parent.
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
			}
		}
	}
	return nil
}

func sampleWeights(y []int, numClasses int, cw ClassWeight) []float64 {
	classWeight := make([]float64, numClasses)
	for c := range classWeight {
		classWeight[c] = 1
	}
	switch {
	case cw.Balanced:
		counts := make([]int, numClasses)
		for _, label := range y {
			counts[label]++
		}
		for c, n := range counts {
			if n > 0 {
				classWeight[c] = float64(len(y)) / float64(numClasses*n)
			}
		}
	case cw.PerClass != nil:
		for c, w := range cw.PerClass {
			if c >= 0 && c < numClasses {
				classWeight[c] = w
			}
		}
	}

	weight := make([]float64, len(y))
	for i, label := range y {
		weight[i] = classWeight[label]
	}
	return weight
}

func averageImportances(perTree [][]float64, numFeatures int) []float64 {
	out := make([]float64, numFeatures)
	for _, imp := range perTree {
		var sum float64
		for _, v := range imp {
			sum += v
		}
		if sum == 0 {
			continue
		}
		for i, v := range imp {
			out[i] += v / sum
		}
	}
	var total float64
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}
