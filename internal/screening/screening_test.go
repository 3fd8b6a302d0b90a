package screening

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/abhisek/wellnesswave/internal/forest"
	"github.com/abhisek/wellnesswave/internal/modelfile"
)

// constantForest always predicts proba.
func constantForest(numFeatures int, proba []float64) *forest.Forest {
	return &forest.Forest{
		NumClasses:  len(proba),
		NumFeatures: numFeatures,
		Trees:       []forest.Tree{{Nodes: []forest.Node{{Feature: -1, Value: proba}}}},
		Importances: make([]float64, numFeatures),
	}
}

func anxietyModel(proba []float64) *modelfile.Artifact {
	names := []string{
		"Nervousness", "Panic_attacks", "Trouble_relaxing", "Social_avoidance",
		"Excessive_worry", "Sleep_difficulty", "Lightheadedness",
		"Physical_symptoms", "Concentration_issues", "Impending_doom",
	}
	features := make([]modelfile.Feature, len(names))
	for i, n := range names {
		features[i] = modelfile.Feature{Name: n, Type: modelfile.FeatureNumerical, Range: [2]float64{1, 5}, Mean: 2.5}
	}
	return &modelfile.Artifact{
		FormatVersion: modelfile.FormatVersion,
		Kind:          modelfile.KindAnxiety,
		Classes:       []string{"None", "Mild", "Moderate", "Severe"},
		Features:      features,
		Forest:        constantForest(len(names), proba),
	}
}

func depressionModel(proba []float64) *modelfile.Artifact {
	return &modelfile.Artifact{
		FormatVersion: modelfile.FormatVersion,
		Kind:          modelfile.KindDepression,
		Classes:       []string{"No", "Yes"},
		Features: []modelfile.Feature{
			{Name: "Age", Type: modelfile.FeatureCategorical, Values: []string{"25-30", "30-35", "35-40"}},
			{Name: "Feeling sad", Type: modelfile.FeatureCategorical, Values: []string{"No", "Sometimes", "Yes"}},
			{Name: "Trouble sleeping at night", Type: modelfile.FeatureCategorical, Values: []string{"No", "Two or more days a week", "Yes"}},
			{Name: "Suicide attempt", Type: modelfile.FeatureCategorical, Values: []string{"No", "Not interested to say", "Yes"}},
		},
		Forest: constantForest(4, proba),
	}
}

// allAt returns every anxiety symptom set to v, with overrides applied.
func allAt(v float64, overrides map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range AnxietySymptoms {
		out[s.Name] = v
	}
	for k, o := range overrides {
		out[k] = o
	}
	return out
}

func TestAnalyzeAnxiety_Buckets(t *testing.T) {
	a := AnalyzeAnxiety(allAt(1, map[string]float64{
		"Panic_attacks":  5,
		"Nervousness":    3,
		"Impending_doom": 3.5,
	}))
	if a.CriticalCount != 1 || a.ModerateCount != 1 || a.MildCount != 8 {
		t.Fatalf("counts = %d/%d/%d, want 1/1/8", a.CriticalCount, a.ModerateCount, a.MildCount)
	}
	if !reflect.DeepEqual(a.Summary.Severe, []string{"Panic_attacks"}) {
		t.Errorf("severe = %v", a.Summary.Severe)
	}
	if !reflect.DeepEqual(a.Summary.Moderate, []string{"Nervousness"}) {
		t.Errorf("moderate = %v", a.Summary.Moderate)
	}
	// 3.0 + 2.0*0.7 + (20 - 3 - 2)*0.3
	want := 3.0 + 1.4 + 4.5
	if diff := a.TotalWeight - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("total weight = %f, want %f", a.TotalWeight, want)
	}
	if a.Summary.Mild[0] != "Physical_symptoms" {
		t.Errorf("mild order starts with %q, want Physical_symptoms", a.Summary.Mild[0])
	}
}

func TestClassifyAnxiety(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]float64
		proba    []float64
		category string
		level    int
		conf     float64
	}{
		{
			name:     "two critical symptoms",
			values:   allAt(1, map[string]float64{"Nervousness": 4, "Sleep_difficulty": 5}),
			proba:    []float64{0.7, 0.1, 0.1, 0.1},
			category: "Extreme Anxiety", level: 3, conf: 0.9,
		},
		{
			name:     "severe panic attacks alone",
			values:   allAt(1, map[string]float64{"Panic_attacks": 4}),
			proba:    []float64{0, 0, 0.05, 0.95},
			category: "Extreme Anxiety", level: 3, conf: 0.95,
		},
		{
			name:     "severe physical symptoms alone",
			values:   allAt(1, map[string]float64{"Physical_symptoms": 5}),
			proba:    []float64{1, 0, 0, 0},
			category: "Extreme Anxiety", level: 3, conf: 0.9,
		},
		{
			name: "one critical with three moderate",
			values: allAt(1, map[string]float64{
				"Nervousness": 4, "Trouble_relaxing": 3, "Sleep_difficulty": 3, "Lightheadedness": 3,
			}),
			proba:    []float64{1, 0, 0, 0},
			category: "Extreme Anxiety", level: 3, conf: 0.9,
		},
		{
			name: "severe model with heavy burden",
			values: allAt(1, map[string]float64{
				"Nervousness": 4, "Panic_attacks": 3, "Physical_symptoms": 3,
			}),
			proba:    []float64{0.1, 0.05, 0.05, 0.8},
			category: "Severe Anxiety", level: 2, conf: 0.8,
		},
		{
			name:     "moderate model with all mild burden",
			values:   allAt(1, nil), // total weight 6.0
			proba:    []float64{0.1, 0.1, 0.7, 0.1},
			category: "Moderate Anxiety", level: 1, conf: 0.7,
		},
		{
			name:     "mild model",
			values:   allAt(1, nil),
			proba:    []float64{0.2, 0.6, 0.1, 0.1},
			category: "Mild Anxiety", level: 0, conf: 0.6,
		},
		{
			name:     "no anxiety",
			values:   allAt(1, nil),
			proba:    []float64{0.4, 0.5, 0.05, 0.05},
			category: "No Anxiety", level: 0, conf: 0.4,
		},
		{
			name:     "missing classes read as zero",
			values:   allAt(1, nil),
			proba:    []float64{0.3, 0.7},
			category: "Mild Anxiety", level: 0, conf: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyAnxiety(AnalyzeAnxiety(tt.values), tt.proba)
			if got.Category != tt.category {
				t.Errorf("category = %q, want %q (rule %s)", got.Category, tt.category, got.Rule)
			}
			if got.Interpretation != tt.category {
				t.Errorf("interpretation = %q, want %q", got.Interpretation, tt.category)
			}
			if got.Prediction != tt.level {
				t.Errorf("level = %d, want %d", got.Prediction, tt.level)
			}
			if got.Probability != tt.conf {
				t.Errorf("confidence = %f, want %f", got.Probability, tt.conf)
			}
		})
	}
}

func TestClassifyAnxiety_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		analysis AnxietyAnalysis
		proba    []float64
		category string
	}{
		{
			name:     "severe probability at 0.7",
			analysis: AnxietyAnalysis{TotalWeight: 12},
			proba:    []float64{0.1, 0.1, 0.1, 0.7},
			category: "No Anxiety",
		},
		{
			name:     "burden exactly 8",
			analysis: AnxietyAnalysis{TotalWeight: 8},
			proba:    []float64{0.1, 0.05, 0.05, 0.8},
			category: "No Anxiety",
		},
		{
			name:     "burden just above 8",
			analysis: AnxietyAnalysis{TotalWeight: 8.01},
			proba:    []float64{0.1, 0.05, 0.05, 0.8},
			category: "Severe Anxiety",
		},
		{
			name:     "moderate probability at 0.6",
			analysis: AnxietyAnalysis{TotalWeight: 9, ModerateCount: 3},
			proba:    []float64{0.2, 0.1, 0.6, 0.1},
			category: "No Anxiety",
		},
		{
			name:     "moderate burden exactly 5 with one moderate symptom",
			analysis: AnxietyAnalysis{TotalWeight: 5, ModerateCount: 1},
			proba:    []float64{0.1, 0.1, 0.7, 0.1},
			category: "No Anxiety",
		},
		{
			name:     "mild probability at 0.5",
			analysis: AnxietyAnalysis{TotalWeight: 6},
			proba:    []float64{0.5, 0.5, 0, 0},
			category: "No Anxiety",
		},
		{
			name: "one critical with two moderate",
			analysis: AnxietyAnalysis{
				CriticalCount: 1, ModerateCount: 2, TotalWeight: 4,
				Summary: SymptomSummary{Severe: []string{"Nervousness"}},
			},
			proba:    []float64{0.9, 0.1, 0, 0},
			category: "No Anxiety",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyAnxiety(tt.analysis, tt.proba)
			if got.Category != tt.category {
				t.Errorf("category = %q, want %q (rule %s)", got.Category, tt.category, got.Rule)
			}
		})
	}
}

func TestAnxietyPredictor_Preprocess(t *testing.T) {
	p, err := NewAnxietyPredictor(anxietyModel([]float64{0.25, 0.25, 0.25, 0.25}))
	if err != nil {
		t.Fatal(err)
	}

	row, err := p.Preprocess(Answers{
		"panic_attacks": 5.0,
		"Nervousness":   "4",
		"unrelated":     "ignored",
	})
	if err != nil {
		t.Fatal(err)
	}
	if row[0] != 4 {
		t.Errorf("Nervousness = %f, want 4", row[0])
	}
	if row[1] != 5 {
		t.Errorf("Panic_attacks = %f, want 5", row[1])
	}
	if row[2] != 2.5 {
		t.Errorf("missing Trouble_relaxing = %f, want mean 2.5", row[2])
	}
}

func TestAnxietyPredictor_NonNumeric(t *testing.T) {
	p, err := NewAnxietyPredictor(anxietyModel([]float64{1, 0, 0, 0}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Predict(Answers{"nervousness": "often"})
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("err = %v, want *InputError", err)
	}
	if inputErr.Question != "nervousness" {
		t.Errorf("question = %q", inputErr.Question)
	}
}

func TestAnxietyPredictor_CollidingKeys(t *testing.T) {
	p, err := NewAnxietyPredictor(anxietyModel([]float64{0.25, 0.25, 0.25, 0.25}))
	if err != nil {
		t.Fatal(err)
	}

	for range 50 {
		row, err := p.Preprocess(Answers{"Panic_attacks": 5.0, "panic_attacks": 1.0, "PANIC ATTACKS": 2.0})
		if err != nil {
			t.Fatal(err)
		}
		if row[1] != 5 {
			t.Fatalf("Panic_attacks = %f, want the exact-name answer 5", row[1])
		}

		row, err = p.Preprocess(Answers{"nervousness": 4.0, "NERVOUSNESS": 1.0})
		if err != nil {
			t.Fatal(err)
		}
		// "NERVOUSNESS" sorts first.
		if row[0] != 1 {
			t.Fatalf("Nervousness = %f, want 1", row[0])
		}
	}
}

func TestAnxietyPredictor_NonFinite(t *testing.T) {
	p, err := NewAnxietyPredictor(anxietyModel([]float64{1, 0, 0, 0}))
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []any{"NaN", "Inf", "-inf", math.NaN(), math.Inf(1)} {
		_, err := p.Predict(Answers{"Nervousness": v})
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Errorf("%v: err = %v, want *InputError", v, err)
		}
	}
}

func TestAnxietyPredictor_Predict(t *testing.T) {
	p, err := NewAnxietyPredictor(anxietyModel([]float64{0.1, 0.1, 0.1, 0.7}))
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Predict(FromList([]Answer{
		{Question: "panic_attacks", Answer: 5.0},
		{Question: "physical_symptoms", Answer: 2.0},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.Category != "Extreme Anxiety" || res.Probability != 0.9 {
		t.Errorf("got %q %f, want Extreme Anxiety 0.9", res.Category, res.Probability)
	}
	// Unanswered symptoms take the mean (2.5), which is mild.
	if len(res.SymptomSummary.Mild) != 9 {
		t.Errorf("mild = %v, want 9 symptoms", res.SymptomSummary.Mild)
	}
}

func TestNewAnxietyPredictor_Rejects(t *testing.T) {
	if _, err := NewAnxietyPredictor(depressionModel([]float64{0.5, 0.5})); err == nil {
		t.Error("accepted a depression model")
	}

	m := anxietyModel([]float64{1, 0, 0, 0})
	m.Features[1].Name = "Panic"
	if _, err := NewAnxietyPredictor(m); err == nil {
		t.Error("accepted a model without Panic_attacks")
	}
}

func TestAnalyzeDepression(t *testing.T) {
	s := AnalyzeDepression(Answers{
		"Suicidal thoughts":         "Not interested to say",
		"Feeling sad":               "Yes",
		"Appetite changes":          "Not at all",
		"Trouble sleeping at night": "No",
		"Age":                       "25-30",
	})
	if !reflect.DeepEqual(s.Severe, []string{"Feeling sad"}) {
		t.Errorf("severe = %v", s.Severe)
	}
	if !reflect.DeepEqual(s.Moderate, []string{"loss of appetite", "Suicide attempt"}) {
		t.Errorf("moderate = %v", s.Moderate)
	}
	if !reflect.DeepEqual(s.Mild, []string{"Trouble sleeping at night"}) {
		t.Errorf("mild = %v", s.Mild)
	}
}

func TestClassifyDepression(t *testing.T) {
	proba := []float64{0.3, 0.7}
	tests := []struct {
		name     string
		answers  Answers
		category string
		conf     float64
	}{
		{"nothing answered", Answers{}, "Not Depressed", 0.95},
		{"only mild answers", Answers{"Feeling sad": "No", "Sleep problems": "No"}, "Not Depressed", 0.95},
		{"suicidal thoughts", Answers{"Suicidal thoughts": "Yes"}, "High Risk of Depression", 0.9},
		{
			"three severe",
			Answers{"Feeling sad": "Yes", "Sleep problems": "Yes", "Feeling of guilt": "Yes"},
			"High Risk of Depression", 0.9,
		},
		{"two severe", Answers{"Feeling sad": "Yes", "Sleep problems": "Yes"}, "Likely Depressed", 0.7},
		{"one severe", Answers{"Feeling of guilt": "Yes"}, "Moderate Risk of Depression", 0.7},
		{
			"three moderate",
			Answers{"Feeling sad": "Sometimes", "Feeling of guilt": "Maybe", "Irritable towards people": "Sometimes"},
			"Moderate Risk of Depression", 0.7,
		},
		{"one moderate", Answers{"Feeling sad": "Sometimes"}, "Low Risk of Depression", 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDepression(AnalyzeDepression(tt.answers), proba)
			if got.Category != tt.category {
				t.Errorf("category = %q, want %q (rule %s)", got.Category, tt.category, got.Rule)
			}
			if got.Probability != tt.conf {
				t.Errorf("confidence = %f, want %f", got.Probability, tt.conf)
			}
		})
	}
}

func TestClassifyDepression_HighRiskUsesModelWhenAbove(t *testing.T) {
	got := ClassifyDepression(AnalyzeDepression(Answers{"Suicidal thoughts": "Yes"}), []float64{0.02, 0.98})
	if got.Probability != 0.98 {
		t.Errorf("confidence = %f, want 0.98", got.Probability)
	}
}

func TestDepressionPredictor_Preprocess(t *testing.T) {
	p, err := NewDepressionPredictor(depressionModel([]float64{0.5, 0.5}))
	if err != nil {
		t.Fatal(err)
	}
	row := p.Preprocess(Answers{
		"Age":                       "35-40",
		"Sleep problems":            "Two or more days a week",
		"Trouble sleeping at night": "Yes",
		"Suicidal thoughts":         "Unknown answer",
	})
	want := []float64{2, 0, 1, 0}
	if !reflect.DeepEqual(row, want) {
		t.Errorf("row = %v, want %v", row, want)
	}
}

func TestDepressionPredictor_Predict(t *testing.T) {
	p, err := NewDepressionPredictor(depressionModel([]float64{0.4, 0.6}))
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Predict(Answers{"Feeling sad": "Yes", "Sleep problems": "Yes"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Category != "Likely Depressed" || res.Probability != 0.6 {
		t.Errorf("got %q %f", res.Category, res.Probability)
	}
}

func TestNewDepressionPredictor_RejectsAnxiety(t *testing.T) {
	if _, err := NewDepressionPredictor(anxietyModel([]float64{1, 0, 0, 0})); err == nil {
		t.Error("accepted an anxiety model")
	}
}

func TestFromList(t *testing.T) {
	got := FromList([]Answer{
		{Question: "a", Answer: 1.0},
		{Question: "", Answer: 2.0},
		{Question: "b", Answer: nil},
		{Question: "a", Answer: 3.0},
	})
	if !reflect.DeepEqual(got, Answers{"a": 3.0}) {
		t.Errorf("got %v", got)
	}
}

func TestFeatureKey(t *testing.T) {
	for _, in := range []string{"Panic_attacks", "panic attacks", " Panic-Attacks "} {
		if got := featureKey(in); got != "panic_attacks" {
			t.Errorf("featureKey(%q) = %q", in, got)
		}
	}
}

func TestAsString(t *testing.T) {
	if got := asString(3.0); got != "3" {
		t.Errorf("asString(3.0) = %q", got)
	}
	if got := asString(" Yes "); got != "Yes" {
		t.Errorf("asString = %q", got)
	}
}
