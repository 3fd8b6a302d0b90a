package screening

import (
	"fmt"
	"slices"

	"github.com/abhisek/wellnesswave/internal/modelfile"
)

// DepressionQuestions maps the questions clients ask to the survey column
// the model was trained on.
var DepressionQuestions = map[string]string{
	"Age":                      "Age",
	"Feeling sad":              "Feeling sad",
	"Irritable towards people": "Irritable towards people",
	"Sleep problems":           "Trouble sleeping at night",
	"Problems concentrating or making decision": "Problems concentrating or making decision",
	"Appetite changes":                "loss of appetite",
	"Feeling of guilt":                "Feeling of guilt",
	"Problems of bonding with people": "Problems of bonding with people",
	"Suicidal thoughts":               "Suicide attempt",
}

// SeverityRule buckets a categorical symptom answer.
type SeverityRule struct {
	Question string // as asked
	Symptom  string // survey column
	Severe   []string
	Moderate []string
}

func (r SeverityRule) classify(answer string) Severity {
	switch {
	case slices.Contains(r.Severe, answer):
		return SeveritySevere
	case slices.Contains(r.Moderate, answer):
		return SeverityModerate
	}
	return SeverityMild
}

// DepressionSymptoms are analysed in this order.
var DepressionSymptoms = []SeverityRule{
	{"Feeling sad", "Feeling sad", []string{"Yes"}, []string{"Sometimes"}},
	{"Sleep problems", "Trouble sleeping at night", []string{"Yes"}, []string{"Two or more days a week"}},
	{"Problems concentrating or making decision", "Problems concentrating or making decision", []string{"Yes"}, []string{"Often"}},
	{"Appetite changes", "loss of appetite", []string{"Yes"}, []string{"Not at all"}},
	{"Feeling of guilt", "Feeling of guilt", []string{"Yes"}, []string{"Maybe"}},
	{"Irritable towards people", "Irritable towards people", []string{"Yes"}, []string{"Sometimes"}},
	{"Problems of bonding with people", "Problems of bonding with people", []string{"Yes"}, []string{"Sometimes"}},
	{"Suicidal thoughts", "Suicide attempt", []string{"Yes"}, []string{"Not interested to say"}},
}

const suicideSymptom = "Suicide attempt"

// lookup finds the answer to a symptom by the asked question first, then by
// the survey column name.
func lookup(ans Answers, r SeverityRule) (any, bool) {
	if v, ok := ans[r.Question]; ok {
		return v, true
	}
	v, ok := ans[r.Symptom]
	return v, ok
}

// AnalyzeDepression buckets every answered symptom. Unanswered symptoms are
// left out of the summary.
func AnalyzeDepression(ans Answers) SymptomSummary {
	s := newSummary()
	for _, r := range DepressionSymptoms {
		v, ok := lookup(ans, r)
		if !ok {
			continue
		}
		s.add(r.classify(asString(v)), r.Symptom)
	}
	return s
}

// DepressionInput is what the depression decision table sees.
type DepressionInput struct {
	Summary SymptomSummary
	Proba   []float64
}

// DepressionRules is the depression decision table. Probabilities are read by
// class position: 0 not depressed, 1 depressed.
var DepressionRules = []Rule[DepressionInput]{
	{
		Name:     "no-symptoms",
		Category: "Not Depressed",
		Match: func(in DepressionInput) bool {
			return len(in.Summary.Severe) == 0 && len(in.Summary.Moderate) == 0
		},
		Confidence: func(DepressionInput) float64 { return 0.95 },
	},
	{
		Name:     "high-risk",
		Category: "High Risk of Depression",
		Match: func(in DepressionInput) bool {
			return slices.Contains(in.Summary.Severe, suicideSymptom) || len(in.Summary.Severe) >= 3
		},
		Confidence: func(in DepressionInput) float64 { return max(prob(in.Proba, 1), 0.9) },
	},
	{
		Name:       "likely",
		Category:   "Likely Depressed",
		Match:      func(in DepressionInput) bool { return len(in.Summary.Severe) >= 2 },
		Confidence: func(in DepressionInput) float64 { return prob(in.Proba, 1) },
	},
	{
		Name:     "moderate-risk",
		Category: "Moderate Risk of Depression",
		Match: func(in DepressionInput) bool {
			return len(in.Summary.Severe) >= 1 || len(in.Summary.Moderate) >= 3
		},
		Confidence: func(in DepressionInput) float64 { return prob(in.Proba, 1) },
	},
	{
		Name:       "low-risk",
		Category:   "Low Risk of Depression",
		Match:      always[DepressionInput],
		Confidence: func(in DepressionInput) float64 { return prob(in.Proba, 0) },
	},
}

// DepressionResult is the outcome of a depression screening.
type DepressionResult struct {
	Category       string         `json:"category"`
	Probability    float64        `json:"probability"`
	SymptomSummary SymptomSummary `json:"symptom_summary"`
	Rule           string         `json:"-"`
}

// ClassifyDepression applies DepressionRules.
func ClassifyDepression(summary SymptomSummary, proba []float64) DepressionResult {
	in := DepressionInput{Summary: summary, Proba: proba}
	rule, _ := RunRules(DepressionRules, in)
	return DepressionResult{
		Category:       rule.Category,
		Probability:    rule.Confidence(in),
		SymptomSummary: summary,
		Rule:           rule.Name,
	}
}

// DepressionPredictor scores depression answers with a loaded model.
// It is immutable and safe for concurrent use.
type DepressionPredictor struct {
	model *modelfile.Artifact
}

// NewDepressionPredictor wraps a depression artifact.
func NewDepressionPredictor(m *modelfile.Artifact) (*DepressionPredictor, error) {
	if m.Kind != modelfile.KindDepression {
		return nil, fmt.Errorf("model kind is %q, want %q", m.Kind, modelfile.KindDepression)
	}
	for _, f := range m.Features {
		if f.Type != modelfile.FeatureCategorical {
			return nil, fmt.Errorf("depression feature %q is %s, want categorical", f.Name, f.Type)
		}
	}
	return &DepressionPredictor{model: m}, nil
}

// Model returns the underlying artifact.
func (p *DepressionPredictor) Model() *modelfile.Artifact { return p.model }

// Preprocess renames asked questions to survey columns and encodes each
// model feature by its training value index. Unknown or missing values
// encode as 0.
func (p *DepressionPredictor) Preprocess(ans Answers) []float64 {
	// Asked questions take precedence over raw column names.
	byColumn := make(map[string]string, len(ans))
	for q, v := range ans {
		if _, ok := DepressionQuestions[q]; !ok {
			byColumn[q] = asString(v)
		}
	}
	for q, v := range ans {
		if col, ok := DepressionQuestions[q]; ok {
			byColumn[col] = asString(v)
		}
	}

	row := make([]float64, len(p.model.Features))
	for i, f := range p.model.Features {
		if v, ok := byColumn[f.Name]; ok {
			row[i] = f.Encode(v)
		}
	}
	return row
}

// Predict runs the model and the depression decision table.
func (p *DepressionPredictor) Predict(ans Answers) (*DepressionResult, error) {
	proba, err := p.model.Forest.PredictProba(p.Preprocess(ans))
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	res := ClassifyDepression(AnalyzeDepression(ans), proba)
	return &res, nil
}
