package modelfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteImportanceCSV writes a feature,importance table with a header row.
func WriteImportanceCSV(w io.Writer, imp []FeatureImportance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"feature", "importance"}); err != nil {
		return err
	}
	for _, fi := range imp {
		if err := cw.Write([]string{fi.Feature, strconv.FormatFloat(fi.Importance, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveImportanceCSV writes the artifact's importance table to path.
func (a *Artifact) SaveImportanceCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteImportanceCSV(f, a.Importance()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
