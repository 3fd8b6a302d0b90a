package store

import (
	"context"
	"fmt"
)

// Copy replaces the contents of dst with every assessment in src. IDs are
// preserved. It returns the number of assessments copied.
func Copy(ctx context.Context, src, dst AssessmentRepo) (int, error) {
	all, err := src.List(ctx, ListOpts{})
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}
	if _, err := dst.DeleteAll(ctx); err != nil {
		return 0, fmt.Errorf("clear destination: %w", err)
	}

	// Insert oldest first so backends that break created_at ties by
	// insertion order list them the same way as the source.
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := dst.Insert(ctx, &all[i]); err != nil {
			return len(all) - 1 - i, fmt.Errorf("copy assessment %s: %w", all[i].ID, err)
		}
	}
	return len(all), nil
}
