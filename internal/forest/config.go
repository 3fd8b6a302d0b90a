package forest

import (
	"fmt"
	"runtime"
)

// ClassWeight controls how samples of each class are weighted while fitting.
// The zero value weights every sample equally.
type ClassWeight struct {
	// Balanced weights class c by n / (k * count(c)).
	Balanced bool

	// PerClass assigns an explicit weight per class index. Classes not listed
	// keep weight 1. Ignored when Balanced is set.
	PerClass map[int]float64
}

// Config holds the hyperparameters for fitting a Forest.
type Config struct {
	NumTrees        int
	MaxDepth        int // 0 = unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 = floor(sqrt(features))
	ClassWeight     ClassWeight
	Seed            uint64
	Workers         int // 0 = GOMAXPROCS
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		NumTrees:        100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
	}
}

// Validate checks that the hyperparameters are usable.
func (c Config) Validate() error {
	if c.NumTrees < 1 {
		return fmt.Errorf("num trees must be positive, got %d", c.NumTrees)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}
	if c.MinSamplesSplit < 2 {
		return fmt.Errorf("min samples split must be at least 2, got %d", c.MinSamplesSplit)
	}
	if c.MinSamplesLeaf < 1 {
		return fmt.Errorf("min samples leaf must be at least 1, got %d", c.MinSamplesLeaf)
	}
	if c.MaxFeatures < 0 {
		return fmt.Errorf("max features must not be negative, got %d", c.MaxFeatures)
	}
	for class, w := range c.ClassWeight.PerClass {
		if w <= 0 {
			return fmt.Errorf("class %d weight must be positive, got %g", class, w)
		}
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
