// Package assessment scores self-reported questionnaires and records them.
package assessment

// Result bands for a summed questionnaire score.
const (
	ResultMinimal  = "Minimal"
	ResultMild     = "Mild"
	ResultModerate = "Moderate"
	ResultSevere   = "Severe"
)

// DefaultType is recorded when a submission does not name its questionnaire.
const DefaultType = "anxiety"

// Score sums the item answers.
func Score(answers []float64) float64 {
	var total float64
	for _, a := range answers {
		total += a
	}
	return total
}

// Band maps a score to its result band.
func Band(score float64) string {
	switch {
	case score <= 4:
		return ResultMinimal
	case score <= 9:
		return ResultMild
	case score <= 14:
		return ResultModerate
	default:
		return ResultSevere
	}
}

var recommendations = map[string][]string{
	ResultMinimal: {
		"Continue monitoring your mental health",
		"Practice regular self-care",
		"Maintain healthy lifestyle habits",
	},
	ResultMild: {
		"Consider talking to a trusted friend or family member",
		"Practice relaxation techniques",
		"Maintain a regular sleep schedule",
	},
	ResultModerate: {
		"Consider consulting a mental health professional",
		"Practice mindfulness and meditation",
		"Establish a regular exercise routine",
	},
	ResultSevere: {
		"Strongly recommend seeking professional help",
		"Contact a mental health Crisis hotline if needed",
		"Don't hesitate to reach out to support systems",
	},
}

// Recommendations returns the guidance for a score. The slice is a copy.
func Recommendations(score float64) []string {
	return append([]string(nil), recommendations[Band(score)]...)
}
