package screening

// Rule is one row of a risk decision table.
type Rule[In any] struct {
	Name       string
	Category   string
	Level      int
	Match      func(in In) bool
	Confidence func(in In) float64
}

// RunRules returns the first rule in order whose Match reports true.
func RunRules[In any](rules []Rule[In], in In) (Rule[In], bool) {
	for _, r := range rules {
		if r.Match(in) {
			return r, true
		}
	}
	return Rule[In]{}, false
}

func always[In any](In) bool { return true }
