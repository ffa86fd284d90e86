// Package gather is the incremental synchronization core: it resolves which
// date ranges are missing per instrument, fetches them from the upstream
// source in bounded chunks, merges the results into staging, and loads only
// genuinely new rows into the query store.
package gather

import (
	"context"

	"nsesync/internal/dates"
	"nsesync/internal/domain"
)

// Gatherer is the interface for all data gathering processes.
type Gatherer interface {
	// Name returns the gatherer identifier.
	Name() string
	// Run executes one gathering pass. It blocks until done or ctx is
	// cancelled.
	Run(ctx context.Context) error
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From dates.Date
	To   dates.Date
}

// Days returns the number of calendar days the range spans, inclusive.
func (r DateRange) Days() int {
	n := 0
	for d := r.From; !d.After(r.To); d = d.Add(1) {
		n++
	}
	return n
}

// Empty reports whether the range contains no days.
func (r DateRange) Empty() bool { return r.To.Before(r.From) }

// Extent is the [min, max] date coverage of a stored series.
type Extent struct {
	Min dates.Date
	Max dates.Date
}

// ExtentOf returns the extent of a staged series, or nil for an empty
// series. Staged series are sorted ascending, so the extent is the first and
// last element.
func ExtentOf[T domain.Bar](bars []T) *Extent {
	if len(bars) == 0 {
		return nil
	}
	return &Extent{Min: bars[0].Day(), Max: bars[len(bars)-1].Day()}
}
