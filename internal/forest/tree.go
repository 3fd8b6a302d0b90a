package forest

import (
	"math/rand/v2"
	"slices"
)

const leafFeature = -1

// Node is one node of a flattened decision tree. Leaves have Feature == -1
// and carry the normalised class distribution in Value.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Value     []float64 `json:"v,omitempty"`
}

// Tree is a fitted CART classification tree. Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// leaf returns the class distribution of the leaf that row falls into.
func (t *Tree) leaf(row []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leafFeature {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// treeBuilder grows one tree over a bootstrap sample.
type treeBuilder struct {
	x           [][]float64
	y           []int
	weight      []float64 // per original row
	numClasses  int
	numFeatures int
	cfg         Config
	maxFeatures int
	rng         *rand.Rand

	nodes      []Node
	importance []float64
}

type split struct {
	feature   int
	threshold float64
	pos       int // samples[:pos] go left after sorting by feature
	gain      float64
}

func (b *treeBuilder) build(samples []int) (Tree, []float64) {
	b.importance = make([]float64, b.numFeatures)
	b.grow(samples, 0)
	return Tree{Nodes: b.nodes}, b.importance
}

// grow appends the subtree for samples and returns its node index.
func (b *treeBuilder) grow(samples []int, depth int) int {
	counts, total := b.classWeights(samples)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leafFeature})

	if b.isTerminal(samples, counts, total, depth) {
		b.nodes[idx].Value = normalise(counts, total)
		return idx
	}

	best, ok := b.bestSplit(samples, counts, total)
	if !ok {
		b.nodes[idx].Value = normalise(counts, total)
		return idx
	}

	b.sortByFeature(samples, best.feature)
	left := slices.Clone(samples[:best.pos])
	right := slices.Clone(samples[best.pos:])
	b.importance[best.feature] += best.gain

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      l,
		Right:     r,
	}
	return idx
}

func (b *treeBuilder) isTerminal(samples []int, counts []float64, total float64, depth int) bool {
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return true
	}
	if len(samples) < b.cfg.MinSamplesSplit || len(samples) < 2*b.cfg.MinSamplesLeaf {
		return true
	}
	return gini(counts, total) <= 0
}

// bestSplit scans a random subset of features and returns the split with the
// largest weighted Gini decrease.
func (b *treeBuilder) bestSplit(samples []int, counts []float64, total float64) (split, bool) {
	parent := total * gini(counts, total)
	var best split
	found := false

	left := make([]float64, b.numClasses)
	right := make([]float64, b.numClasses)

	// Constant features do not count towards maxFeatures.
	visited := 0
	for _, f := range b.rng.Perm(b.numFeatures) {
		if visited == b.maxFeatures {
			break
		}
		b.sortByFeature(samples, f)
		if b.x[samples[0]][f] == b.x[samples[len(samples)-1]][f] {
			continue
		}
		visited++

		clear(left)
		copy(right, counts)
		var wl float64
		wr := total

		for i := 0; i < len(samples)-1; i++ {
			s := samples[i]
			w := b.weight[s]
			left[b.y[s]] += w
			right[b.y[s]] -= w
			wl += w
			wr -= w

			cur, next := b.x[s][f], b.x[samples[i+1]][f]
			if cur == next {
				continue
			}
			pos := i + 1
			if pos < b.cfg.MinSamplesLeaf || len(samples)-pos < b.cfg.MinSamplesLeaf {
				continue
			}

			gain := parent - wl*gini(left, wl) - wr*gini(right, wr)
			if gain > 1e-12 && (!found || gain > best.gain) {
				best = split{
					feature:   f,
					threshold: cur + (next-cur)/2,
					pos:       pos,
					gain:      gain,
				}
				found = true
			}
		}
	}
	return best, found
}

func (b *treeBuilder) sortByFeature(samples []int, f int) {
	slices.SortStableFunc(samples, func(i, j int) int {
		a, c := b.x[i][f], b.x[j][f]
		switch {
		case a < c:
			return -1
		case a > c:
			return 1
		}
		return 0
	})
}

func (b *treeBuilder) classWeights(samples []int) ([]float64, float64) {
	counts := make([]float64, b.numClasses)
	var total float64
	for _, s := range samples {
		counts[b.y[s]] += b.weight[s]
		total += b.weight[s]
	}
	return counts, total
}

func gini(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / total
		sum += p * p
	}
	return 1 - sum
}

func normalise(counts []float64, total float64) []float64 {
	out := make([]float64, len(counts))
	if total <= 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}
