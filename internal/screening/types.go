// Package screening turns questionnaire answers and classifier output into a
// risk category, a confidence score and a symptom breakdown.
package screening

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Severity buckets a single symptom answer.
type Severity string

const (
	SeveritySevere   Severity = "severe"
	SeverityModerate Severity = "moderate"
	SeverityMild     Severity = "mild"
)

// SymptomSummary lists symptom names by severity, in analysis order.
type SymptomSummary struct {
	Severe   []string `json:"severe"`
	Moderate []string `json:"moderate"`
	Mild     []string `json:"mild"`
}

func newSummary() SymptomSummary {
	return SymptomSummary{Severe: []string{}, Moderate: []string{}, Mild: []string{}}
}

func (s *SymptomSummary) add(sev Severity, symptom string) {
	switch sev {
	case SeveritySevere:
		s.Severe = append(s.Severe, symptom)
	case SeverityModerate:
		s.Moderate = append(s.Moderate, symptom)
	default:
		s.Mild = append(s.Mild, symptom)
	}
}

// Answer is one questionnaire item as submitted by a client.
type Answer struct {
	Question string `json:"question"`
	Answer   any    `json:"answer"`
}

// Answers maps question keys to raw JSON-decoded answer values
// (string, float64 or bool).
type Answers map[string]any

// FromList builds Answers from a list. Later duplicates win and items with
// an empty question are skipped.
func FromList(list []Answer) Answers {
	out := make(Answers, len(list))
	for _, a := range list {
		if a.Question == "" || a.Answer == nil {
			continue
		}
		out[a.Question] = a.Answer
	}
	return out
}

// InputError reports an answer that cannot be used for prediction.
type InputError struct {
	Question string
	Reason   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid answer for %q: %s", e.Question, e.Reason)
}

// asFloat converts a numeric or numeric-string answer. NaN and infinities
// are rejected.
func asFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(x), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	return f, !math.IsNaN(f) && !math.IsInf(f, 0)
}

// asString renders an answer the way it appears in survey exports.
func asString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	}
	return fmt.Sprint(v)
}

// featureKey normalises question keys so that "panic_attacks",
// "Panic attacks" and "Panic-Attacks" all match.
func featureKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// prob reads a class probability by position. Classes the model does not
// have read as zero.
func prob(p []float64, i int) float64 {
	if i < 0 || i >= len(p) {
		return 0
	}
	return p[i]
}
