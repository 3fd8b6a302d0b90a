package screening

import (
	"fmt"
	"maps"
	"slices"

	"github.com/abhisek/wellnesswave/internal/modelfile"
)

// WeightedSymptom is an anxiety feature and its contribution to the
// symptom burden.
type WeightedSymptom struct {
	Name   string
	Weight float64
}

// AnxietySymptoms are analysed in this order.
var AnxietySymptoms = []WeightedSymptom{
	{"Panic_attacks", 3.0},
	{"Physical_symptoms", 2.5},
	{"Impending_doom", 2.5},
	{"Social_avoidance", 2.0},
	{"Nervousness", 2.0},
	{"Excessive_worry", 2.0},
	{"Trouble_relaxing", 1.5},
	{"Sleep_difficulty", 1.5},
	{"Lightheadedness", 1.5},
	{"Concentration_issues", 1.5},
}

const (
	anxietySevereAt    = 4.0
	anxietyModerateAt  = 3.0
	moderateWeightRate = 0.7
	mildWeightRate     = 0.3
)

// AnxietyAnalysis is the symptom burden derived from anxiety answers.
type AnxietyAnalysis struct {
	CriticalCount int
	ModerateCount int
	MildCount     int
	TotalWeight   float64
	Summary       SymptomSummary
}

func (a AnxietyAnalysis) isSevere(symptom string) bool {
	return slices.Contains(a.Summary.Severe, symptom)
}

// AnalyzeAnxiety buckets each weighted symptom by its value: 4 and above is
// severe, exactly 3 is moderate, anything else mild. Missing symptoms read
// as 0.
func AnalyzeAnxiety(values map[string]float64) AnxietyAnalysis {
	a := AnxietyAnalysis{Summary: newSummary()}
	for _, s := range AnxietySymptoms {
		v := values[s.Name]
		switch {
		case v >= anxietySevereAt:
			a.CriticalCount++
			a.TotalWeight += s.Weight
			a.Summary.add(SeveritySevere, s.Name)
		case v == anxietyModerateAt:
			a.ModerateCount++
			a.TotalWeight += s.Weight * moderateWeightRate
			a.Summary.add(SeverityModerate, s.Name)
		default:
			a.MildCount++
			a.TotalWeight += s.Weight * mildWeightRate
			a.Summary.add(SeverityMild, s.Name)
		}
	}
	return a
}

// AnxietyInput is what the anxiety decision table sees.
type AnxietyInput struct {
	Analysis AnxietyAnalysis
	Proba    []float64
}

// AnxietyRules is the anxiety decision table, highest risk first.
// Probabilities are read by class position: 0 none, 1 mild, 2 moderate,
// 3 severe.
var AnxietyRules = []Rule[AnxietyInput]{
	{
		Name:     "critical-symptoms",
		Category: "Extreme Anxiety",
		Level:    3,
		Match: func(in AnxietyInput) bool {
			a := in.Analysis
			return a.CriticalCount >= 2 ||
				a.isSevere("Panic_attacks") ||
				a.isSevere("Physical_symptoms") ||
				(a.CriticalCount == 1 && a.ModerateCount >= 3)
		},
		Confidence: func(in AnxietyInput) float64 { return max(prob(in.Proba, 3), 0.9) },
	},
	{
		Name:     "severe-model",
		Category: "Severe Anxiety",
		Level:    2,
		Match: func(in AnxietyInput) bool {
			return prob(in.Proba, 3) > 0.7 && in.Analysis.TotalWeight > 8
		},
		Confidence: func(in AnxietyInput) float64 { return prob(in.Proba, 3) },
	},
	{
		Name:     "moderate-model",
		Category: "Moderate Anxiety",
		Level:    1,
		Match: func(in AnxietyInput) bool {
			return prob(in.Proba, 2) > 0.6 &&
				(in.Analysis.ModerateCount >= 2 || in.Analysis.TotalWeight > 5)
		},
		Confidence: func(in AnxietyInput) float64 { return prob(in.Proba, 2) },
	},
	{
		Name:       "mild-model",
		Category:   "Mild Anxiety",
		Level:      0,
		Match:      func(in AnxietyInput) bool { return prob(in.Proba, 1) > 0.5 },
		Confidence: func(in AnxietyInput) float64 { return prob(in.Proba, 1) },
	},
	{
		Name:       "no-anxiety",
		Category:   "No Anxiety",
		Level:      0,
		Match:      always[AnxietyInput],
		Confidence: func(in AnxietyInput) float64 { return prob(in.Proba, 0) },
	},
}

// AnxietyResult is the outcome of an anxiety screening.
type AnxietyResult struct {
	Category       string         `json:"category"`
	Probability    float64        `json:"probability"`
	Prediction     int            `json:"prediction"`
	Interpretation string         `json:"interpretation"`
	SymptomSummary SymptomSummary `json:"symptom_summary"`
	Rule           string         `json:"-"`
}

// ClassifyAnxiety applies AnxietyRules to an analysis and class probabilities.
func ClassifyAnxiety(a AnxietyAnalysis, proba []float64) AnxietyResult {
	in := AnxietyInput{Analysis: a, Proba: proba}
	rule, _ := RunRules(AnxietyRules, in)
	return AnxietyResult{
		Category:       rule.Category,
		Probability:    rule.Confidence(in),
		Prediction:     rule.Level,
		Interpretation: rule.Category,
		SymptomSummary: a.Summary,
		Rule:           rule.Name,
	}
}

// AnxietyPredictor scores anxiety answers with a loaded model.
// It is immutable and safe for concurrent use.
type AnxietyPredictor struct {
	model *modelfile.Artifact
	index map[string]int // featureKey(name) -> position
}

// NewAnxietyPredictor wraps an anxiety artifact. Every analysed symptom must
// be a numerical model feature.
func NewAnxietyPredictor(m *modelfile.Artifact) (*AnxietyPredictor, error) {
	if m.Kind != modelfile.KindAnxiety {
		return nil, fmt.Errorf("model kind is %q, want %q", m.Kind, modelfile.KindAnxiety)
	}
	index := make(map[string]int, len(m.Features))
	for i, f := range m.Features {
		if f.Type != modelfile.FeatureNumerical {
			return nil, fmt.Errorf("anxiety feature %q is %s, want numerical", f.Name, f.Type)
		}
		index[featureKey(f.Name)] = i
	}
	for _, s := range AnxietySymptoms {
		if _, ok := index[featureKey(s.Name)]; !ok {
			return nil, fmt.Errorf("anxiety model lacks feature %q", s.Name)
		}
	}
	return &AnxietyPredictor{model: m, index: index}, nil
}

// Model returns the underlying artifact.
func (p *AnxietyPredictor) Model() *modelfile.Artifact { return p.model }

// Preprocess builds the model input row. Missing features take the training
// mean; answers to unknown questions are ignored. When several questions map
// to one feature, the exact feature name wins, then the first key in sorted
// order.
func (p *AnxietyPredictor) Preprocess(ans Answers) ([]float64, error) {
	row := make([]float64, len(p.model.Features))
	src := make([]string, len(row))
	for _, q := range slices.Sorted(maps.Keys(ans)) {
		i, ok := p.index[featureKey(q)]
		if !ok {
			continue
		}
		name := p.model.Features[i].Name
		if src[i] != "" && (src[i] == name || q != name) {
			continue
		}
		v := ans[q]
		f, ok := asFloat(v)
		if !ok {
			return nil, &InputError{Question: q, Reason: fmt.Sprintf("%v is not a finite number", v)}
		}
		row[i] = f
		src[i] = q
	}
	for i, f := range p.model.Features {
		if src[i] == "" {
			row[i] = f.Mean
		}
	}
	return row, nil
}

// Predict runs the model and the anxiety decision table.
func (p *AnxietyPredictor) Predict(ans Answers) (*AnxietyResult, error) {
	row, err := p.Preprocess(ans)
	if err != nil {
		return nil, err
	}
	values := make(map[string]float64, len(AnxietySymptoms))
	for _, s := range AnxietySymptoms {
		values[s.Name] = row[p.index[featureKey(s.Name)]]
	}

	proba, err := p.model.Forest.PredictProba(row)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	res := ClassifyAnxiety(AnalyzeAnxiety(values), proba)
	return &res, nil
}
