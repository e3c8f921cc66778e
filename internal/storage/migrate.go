// ABOUTME: Data migration between storage backends.
// ABOUTME: Copies measurements and goals from source to destination.

package storage

import (
	"context"
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Measurements int
	Goals        int
}

// MigrateData copies all data from src to dst storage. The destination
// should be empty before calling this function. Active goals stay active.
func MigrateData(ctx context.Context, src, dst Repository) (*MigrateSummary, error) {
	data, err := CollectExportData(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	if err := ImportInto(ctx, dst, data); err != nil {
		return nil, fmt.Errorf("write destination: %w", err)
	}

	return &MigrateSummary{
		Measurements: len(data.Measurements),
		Goals:        len(data.Goals),
	}, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
