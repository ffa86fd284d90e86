package store

import (
	"fmt"
	"sort"

	"nsesync/internal/domain"
)

// NewStagingStore creates a staging store for the given format ("csv" or
// "parquet") rooted at dataDir.
func NewStagingStore(format, dataDir string) (StagingStore, error) {
	switch format {
	case "csv":
		return NewCSVStagingStore(dataDir), nil
	case "parquet":
		return NewParquetStagingStore(dataDir), nil
	default:
		return nil, fmt.Errorf("unknown staging format %q", format)
	}
}

// mergeBars unions existing and incoming series, deduplicating by calendar
// date with incoming bars winning (later fetches refresh provisional data).
// The result is sorted ascending by date.
func mergeBars[T domain.Bar](existing, incoming []T) []T {
	seen := make(map[string]T, len(existing)+len(incoming))
	for _, b := range existing {
		seen[b.Day().String()] = b
	}
	for _, b := range incoming {
		seen[b.Day().String()] = b
	}

	merged := make([]T, 0, len(seen))
	for _, b := range seen {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Day().Before(merged[j].Day())
	})
	return merged
}
