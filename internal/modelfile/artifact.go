// Package modelfile persists a fitted classifier together with the metadata
// needed to encode questionnaire answers for it.
package modelfile

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/mod/semver"

	"github.com/abhisek/wellnesswave/internal/dataset"
	"github.com/abhisek/wellnesswave/internal/forest"
)

// FormatVersion is written into every artifact. Load accepts any artifact
// with the same major version.
const FormatVersion = "v1.0.0"

// ErrIncompatible is returned for artifacts written by an unsupported format.
var ErrIncompatible = errors.New("incompatible model artifact")

// Kind identifies which questionnaire a model serves.
type Kind string

const (
	KindAnxiety    Kind = "anxiety"
	KindDepression Kind = "depression"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindAnxiety, KindDepression:
		return k, nil
	}
	return "", fmt.Errorf("unknown model kind %q", s)
}

// FeatureType distinguishes how a feature is encoded.
type FeatureType string

const (
	FeatureCategorical FeatureType = "categorical"
	FeatureNumerical   FeatureType = "numerical"
)

// Feature describes one model input column.
type Feature struct {
	Name string      `json:"name"`
	Type FeatureType `json:"type"`

	// Categorical: training values; a value is encoded as its index.
	Values []string `json:"values,omitempty"`

	// Numerical: training statistics.
	Range [2]float64 `json:"range,omitzero"`
	Mean  float64    `json:"mean,omitempty"`
	Std   float64    `json:"std,omitempty"`
}

// Encode returns the categorical code of v, or 0 for unknown values.
func (f Feature) Encode(v string) float64 {
	if i := slices.Index(f.Values, v); i >= 0 {
		return float64(i)
	}
	return 0
}

// Metrics records how the model scored when it was trained.
type Metrics struct {
	Accuracy  float64               `json:"accuracy"`
	Evaluated string                `json:"evaluated"` // "train" or "test"
	Samples   int                   `json:"samples"`
	Report    []dataset.ClassReport `json:"report,omitempty"`
}

// Artifact is a persisted classifier plus metadata.
type Artifact struct {
	FormatVersion string         `json:"format_version"`
	Kind          Kind           `json:"kind"`
	CreatedAt     time.Time      `json:"created_at"`
	Target        string         `json:"target"`
	Classes       []string       `json:"classes"`
	Features      []Feature      `json:"features"`
	Metrics       Metrics        `json:"metrics"`
	Forest        *forest.Forest `json:"forest"`
}

// FeatureImportance pairs a feature name with its importance.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Validate checks the artifact is complete and self-consistent.
func (a *Artifact) Validate() error {
	if !semver.IsValid(a.FormatVersion) || semver.Major(a.FormatVersion) != semver.Major(FormatVersion) {
		return fmt.Errorf("%w: format %q, want %s.x", ErrIncompatible, a.FormatVersion, semver.Major(FormatVersion))
	}
	if _, err := ParseKind(string(a.Kind)); err != nil {
		return err
	}
	if a.Forest == nil {
		return fmt.Errorf("artifact has no forest")
	}
	if err := a.Forest.Validate(); err != nil {
		return fmt.Errorf("invalid forest: %w", err)
	}
	if len(a.Features) != a.Forest.NumFeatures {
		return fmt.Errorf("artifact lists %d features, forest expects %d", len(a.Features), a.Forest.NumFeatures)
	}
	if len(a.Classes) != a.Forest.NumClasses {
		return fmt.Errorf("artifact lists %d classes, forest has %d", len(a.Classes), a.Forest.NumClasses)
	}
	return nil
}

// FeatureNames returns feature names in model input order.
func (a *Artifact) FeatureNames() []string {
	names := make([]string, len(a.Features))
	for i, f := range a.Features {
		names[i] = f.Name
	}
	return names
}

// Importance returns per-feature importance, most important first.
func (a *Artifact) Importance() []FeatureImportance {
	imp := a.Forest.FeatureImportances()
	out := make([]FeatureImportance, len(a.Features))
	for i, f := range a.Features {
		out[i] = FeatureImportance{Feature: f.Name, Importance: imp[i]}
	}
	slices.SortStableFunc(out, func(x, y FeatureImportance) int {
		return cmp.Compare(y.Importance, x.Importance)
	})
	return out
}

// Save writes the artifact as JSON. The file is replaced atomically.
func (a *Artifact) Save(path string) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("validate artifact: %w", err)
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// Load reads and validates an artifact.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &a, nil
}
