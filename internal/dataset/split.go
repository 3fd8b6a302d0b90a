package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// Split holds a train/test partition of a feature matrix.
type Split struct {
	TrainX [][]float64
	TrainY []int
	TestX  [][]float64
	TestY  []int
}

// TrainTestSplit shuffles rows with seed and holds out ceil(testSize * n)
// of them. testSize must be in (0, 1).
func TrainTestSplit(x [][]float64, y []int, testSize float64, seed uint64) (*Split, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and labels (%d) differ", len(x), len(y))
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, fmt.Errorf("test size must be in (0,1), got %g", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(len(x))))
	if nTest < 1 || nTest >= len(x) {
		return nil, fmt.Errorf("cannot hold out %d of %d rows", nTest, len(x))
	}

	perm := rand.New(rand.NewPCG(seed, 0)).Perm(len(x))
	s := &Split{}
	for i, idx := range perm {
		if i < nTest {
			s.TestX = append(s.TestX, x[idx])
			s.TestY = append(s.TestY, y[idx])
		} else {
			s.TrainX = append(s.TrainX, x[idx])
			s.TrainY = append(s.TrainY, y[idx])
		}
	}
	return s, nil
}

// Accuracy returns the fraction of predictions equal to the truth.
func Accuracy(truth, pred []int) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return 0
	}
	correct := 0
	for i := range truth {
		if truth[i] == pred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}

// ClassReport holds per-class precision, recall and F1.
type ClassReport struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport computes per-class metrics. labels[i] names class i.
func ClassificationReport(truth, pred []int, labels []string) []ClassReport {
	k := len(labels)
	tp := make([]int, k)
	predicted := make([]int, k)
	support := make([]int, k)
	for i := range truth {
		if truth[i] < k {
			support[truth[i]]++
		}
		if pred[i] < k {
			predicted[pred[i]]++
		}
		if truth[i] == pred[i] && truth[i] < k {
			tp[truth[i]]++
		}
	}

	out := make([]ClassReport, k)
	for c := range k {
		r := ClassReport{Label: labels[c], Support: support[c]}
		if predicted[c] > 0 {
			r.Precision = float64(tp[c]) / float64(predicted[c])
		}
		if support[c] > 0 {
			r.Recall = float64(tp[c]) / float64(support[c])
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		out[c] = r
	}
	return out
}

// FormatReport renders a report as an aligned text table.
func FormatReport(report []ClassReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	for _, r := range report {
		fmt.Fprintf(&b, "%-20s %9.2f %9.2f %9.2f %9d\n", r.Label, r.Precision, r.Recall, r.F1, r.Support)
	}
	return b.String()
}
