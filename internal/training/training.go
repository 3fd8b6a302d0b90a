// Package training fits the anxiety and depression classifiers from CSV
// survey exports and packages them as model artifacts.
package training

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/wellnesswave/internal/dataset"
	"github.com/abhisek/wellnesswave/internal/forest"
	"github.com/abhisek/wellnesswave/internal/modelfile"
)

// AnxietyTarget is the label column of the anxiety survey.
const AnxietyTarget = "Anxiety_Level"

// DepressionTarget is the label column of the depression survey.
const DepressionTarget = "Depressed"

// anxietyColumns maps survey question headers to feature names.
var anxietyColumns = map[string]string{
	"Do you feel nervous or anxious often?":                     "Nervousness",
	"Do you experience sudden panic attacks?":                   "Panic_attacks",
	"Do you have trouble relaxing or staying calm?":             "Trouble_relaxing",
	"Do you avoid social situations due to anxiety?":            "Social_avoidance",
	"Do you experience excessive worry about different things?": "Excessive_worry",
	"Do you have difficulty sleeping due to anxiety?":           "Sleep_difficulty",
	"Do you feel lightheaded or dizzy when anxious?":            "Lightheadedness",
	"Do you experience a racing heart or shortness of breath?":  "Physical_symptoms",
	"Do you have trouble concentrating due to anxiety?":         "Concentration_issues",
	"Do you feel a sense of impending doom or danger?":          "Impending_doom",
}

// Options controls a training run.
type Options struct {
	Forest   forest.Config
	TestSize float64 // anxiety only; depression is scored on its training data
	Seed     uint64
	Now      func() time.Time
}

// AnxietyOptions returns the hyperparameters used for the anxiety model.
func AnxietyOptions() Options {
	cfg := forest.DefaultConfig()
	cfg.NumTrees = 200
	cfg.MaxDepth = 15
	cfg.MinSamplesSplit = 5
	cfg.MinSamplesLeaf = 2
	cfg.ClassWeight = forest.ClassWeight{Balanced: true}
	return Options{Forest: cfg, TestSize: 0.2, Seed: 42, Now: time.Now}
}

// DepressionOptions returns the hyperparameters used for the depression model.
// Class weights are derived from the data as 1/count per class.
func DepressionOptions() Options {
	cfg := forest.DefaultConfig()
	cfg.NumTrees = 100
	cfg.MinSamplesLeaf = 5
	return Options{Forest: cfg, Seed: 42, Now: time.Now}
}

// TrainAnxiety fits the anxiety model on a numeric survey table. The label
// column is encoded with sorted class names, features keep table order, and
// the model is scored on a held-out split.
func TrainAnxiety(ctx context.Context, tbl *dataset.Table, opts Options) (*modelfile.Artifact, error) {
	tbl.Rename(anxietyColumns)
	if tbl.Index(AnxietyTarget) < 0 {
		return nil, fmt.Errorf("anxiety data has no %q column", AnxietyTarget)
	}

	labels, _ := tbl.Column(AnxietyTarget)
	enc := dataset.FitLabelEncoder(labels)
	y, err := enc.Transform(labels)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", AnxietyTarget, err)
	}

	var cols [][]float64
	var features []modelfile.Feature
	for _, name := range tbl.FeatureColumns(AnxietyTarget) {
		raw, _ := tbl.Column(name)
		values, err := dataset.ParseFloats(raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		st, err := dataset.Describe(values)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		cols = append(cols, values)
		features = append(features, modelfile.Feature{
			Name:  name,
			Type:  modelfile.FeatureNumerical,
			Range: [2]float64{st.Min, st.Max},
			Mean:  st.Mean,
			Std:   st.Std,
		})
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("anxiety data has no feature columns")
	}

	split, err := dataset.TrainTestSplit(dataset.Matrix(cols...), y, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	f, err := forest.Fit(ctx, split.TrainX, split.TrainY, len(enc.Classes), opts.Forest)
	if err != nil {
		return nil, fmt.Errorf("fit anxiety model: %w", err)
	}

	metrics, err := evaluate(f, split.TestX, split.TestY, enc.Classes, "test")
	if err != nil {
		return nil, err
	}

	return &modelfile.Artifact{
		FormatVersion: modelfile.FormatVersion,
		Kind:          modelfile.KindAnxiety,
		CreatedAt:     opts.Now().UTC(),
		Target:        AnxietyTarget,
		Classes:       enc.Classes,
		Features:      features,
		Metrics:       metrics,
		Forest:        f,
	}, nil
}

// TrainDepression fits the depression model on a categorical survey table.
// The Timestamp column is dropped, gaps are filled with the column mode, and
// every feature is label encoded. The target must be Yes or No.
func TrainDepression(ctx context.Context, tbl *dataset.Table, opts Options) (*modelfile.Artifact, error) {
	if tbl.Index("Timestamp") >= 0 {
		if err := tbl.Drop("Timestamp"); err != nil {
			return nil, err
		}
	}
	if tbl.Index(DepressionTarget) < 0 {
		return nil, fmt.Errorf("depression data has no %q column", DepressionTarget)
	}
	tbl.FillMissingWithMode()

	classes := []string{"No", "Yes"}
	labels, _ := tbl.Column(DepressionTarget)
	y := make([]int, len(labels))
	counts := make([]int, len(classes))
	for i, l := range labels {
		switch l {
		case "No":
			y[i] = 0
		case "Yes":
			y[i] = 1
		default:
			return nil, fmt.Errorf("row %d: %s must be Yes or No, got %q", i, DepressionTarget, l)
		}
		counts[y[i]]++
	}

	var cols [][]float64
	var features []modelfile.Feature
	for _, name := range tbl.FeatureColumns(DepressionTarget) {
		raw, _ := tbl.Column(name)
		enc := dataset.FitLabelEncoder(raw)
		codes, err := enc.Transform(raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		cols = append(cols, dataset.IntsToFloats(codes))
		features = append(features, modelfile.Feature{
			Name:   name,
			Type:   modelfile.FeatureCategorical,
			Values: enc.Classes,
		})
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("depression data has no feature columns")
	}

	cfg := opts.Forest
	cfg.ClassWeight = forest.ClassWeight{PerClass: map[int]float64{}}
	for c, n := range counts {
		if n > 0 {
			cfg.ClassWeight.PerClass[c] = 1 / float64(n)
		}
	}

	x := dataset.Matrix(cols...)
	f, err := forest.Fit(ctx, x, y, len(classes), cfg)
	if err != nil {
		return nil, fmt.Errorf("fit depression model: %w", err)
	}

	metrics, err := evaluate(f, x, y, classes, "train")
	if err != nil {
		return nil, err
	}

	return &modelfile.Artifact{
		FormatVersion: modelfile.FormatVersion,
		Kind:          modelfile.KindDepression,
		CreatedAt:     opts.Now().UTC(),
		Target:        DepressionTarget,
		Classes:       classes,
		Features:      features,
		Metrics:       metrics,
		Forest:        f,
	}, nil
}

func evaluate(f *forest.Forest, x [][]float64, y []int, classes []string, evaluated string) (modelfile.Metrics, error) {
	pred := make([]int, len(x))
	for i, row := range x {
		p, err := f.Predict(row)
		if err != nil {
			return modelfile.Metrics{}, fmt.Errorf("evaluate row %d: %w", i, err)
		}
		pred[i] = p
	}
	return modelfile.Metrics{
		Accuracy:  dataset.Accuracy(y, pred),
		Evaluated: evaluated,
		Samples:   len(x),
		Report:    dataset.ClassificationReport(y, pred, classes),
	}, nil
}
