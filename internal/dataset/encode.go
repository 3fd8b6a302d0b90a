package dataset

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// LabelEncoder maps categorical values to dense integer codes. Classes are
// the sorted distinct values, numerically when every value is a number; a
// value's code is its index in Classes.
type LabelEncoder struct {
	Classes []string
}

// FitLabelEncoder builds an encoder over values.
func FitLabelEncoder(values []string) *LabelEncoder {
	classes := slices.Clone(values)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	nums := make(map[string]float64, len(classes))
	for _, c := range classes {
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return &LabelEncoder{Classes: classes}
		}
		nums[c] = f
	}
	slices.SortStableFunc(classes, func(a, b string) int {
		return cmp.Compare(nums[a], nums[b])
	})
	return &LabelEncoder{Classes: classes}
}

// Encode returns the code of v and whether v is a known class.
func (e *LabelEncoder) Encode(v string) (int, bool) {
	i := slices.Index(e.Classes, v)
	return i, i >= 0
}

// Transform encodes every value. Unknown values are an error.
func (e *LabelEncoder) Transform(values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		code, ok := e.Encode(v)
		if !ok {
			return nil, fmt.Errorf("row %d: unknown label %q", i, v)
		}
		out[i] = code
	}
	return out, nil
}

// ParseFloats converts a column to float64.
func ParseFloats(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %q is not numeric", i, v)
		}
		out[i] = f
	}
	return out, nil
}

// NumericStats summarises a numeric column.
type NumericStats struct {
	Min  float64
	Max  float64
	Mean float64
	Std  float64 // sample standard deviation
}

// Describe computes NumericStats for a non-empty column.
func Describe(values []float64) (NumericStats, error) {
	if len(values) == 0 {
		return NumericStats{}, fmt.Errorf("describe: no values")
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return NumericStats{
		Min:  slices.Min(values),
		Max:  slices.Max(values),
		Mean: mean,
		Std:  std,
	}, nil
}

// Matrix builds a row-major feature matrix from equal-length columns.
func Matrix(columns ...[]float64) [][]float64 {
	if len(columns) == 0 {
		return nil
	}
	rows := make([][]float64, len(columns[0]))
	for r := range rows {
		row := make([]float64, len(columns))
		for c, col := range columns {
			row[c] = col[r]
		}
		rows[r] = row
	}
	return rows
}

// IntsToFloats converts integer codes for use as features.
func IntsToFloats(codes []int) []float64 {
	out := make([]float64, len(codes))
	for i, c := range codes {
		out[i] = float64(c)
	}
	return out
}
