package gather

import (
	"testing"

	"nsesync/internal/dates"
	"nsesync/internal/domain"
)

func day(s string) dates.Date {
	d, err := dates.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func rng(from, to string) DateRange {
	return DateRange{From: day(from), To: day(to)}
}

func TestResolveRangesNoCoverage(t *testing.T) {
	requested := rng("2023-01-01", "2023-01-31")

	got := ResolveRanges(requested, nil)
	if len(got) != 1 || got[0] != requested {
		t.Errorf("empty store should fetch the whole window, got %v", got)
	}
}

func TestResolveRangesBothBoundaries(t *testing.T) {
	requested := rng("2023-01-01", "2023-01-31")
	extent := &Extent{Min: day("2023-01-10"), Max: day("2023-01-20")}

	got := ResolveRanges(requested, extent)
	if len(got) != 2 {
		t.Fatalf("expected 2 boundary ranges, got %v", got)
	}
	if got[0] != rng("2023-01-01", "2023-01-09") {
		t.Errorf("leading range = %v..%v", got[0].From, got[0].To)
	}
	if got[1] != rng("2023-01-21", "2023-01-31") {
		t.Errorf("trailing range = %v..%v", got[1].From, got[1].To)
	}
}

func TestResolveRangesFullyCovered(t *testing.T) {
	requested := rng("2023-01-10", "2023-01-20")
	extent := &Extent{Min: day("2023-01-01"), Max: day("2023-01-31")}

	if got := ResolveRanges(requested, extent); len(got) != 0 {
		t.Errorf("covered window should resolve to nothing, got %v", got)
	}
}

func TestResolveRangesForwardOnly(t *testing.T) {
	requested := rng("2023-01-01", "2023-03-31")
	extent := &Extent{Min: day("2023-01-01"), Max: day("2023-02-15")}

	got := ResolveRanges(requested, extent)
	if len(got) != 1 || got[0] != rng("2023-02-16", "2023-03-31") {
		t.Errorf("expected only the trailing range, got %v", got)
	}
}

func TestResolveRangesIgnoresInteriorGaps(t *testing.T) {
	// The extent spans the window even if dates are missing inside it;
	// coverage only extends at the boundaries.
	requested := rng("2023-01-01", "2023-01-31")
	extent := &Extent{Min: day("2023-01-01"), Max: day("2023-01-31")}

	if got := ResolveRanges(requested, extent); len(got) != 0 {
		t.Errorf("interior gaps are not re-fetched, got %v", got)
	}
}

func TestResolveRangesEmptyWindow(t *testing.T) {
	requested := rng("2023-01-31", "2023-01-01")

	if got := ResolveRanges(requested, nil); got != nil {
		t.Errorf("inverted window should resolve to nil, got %v", got)
	}
}

func TestExtentOf(t *testing.T) {
	if ExtentOf[domain.EquityBar](nil) != nil {
		t.Error("empty series has no extent")
	}

	bars := []domain.EquityBar{
		{Date: day("2023-01-02")},
		{Date: day("2023-01-05")},
		{Date: day("2023-01-09")},
	}
	e := ExtentOf(bars)
	if e == nil || e.Min != day("2023-01-02") || e.Max != day("2023-01-09") {
		t.Errorf("extent = %+v", e)
	}
}

func TestDateRangeDays(t *testing.T) {
	if got := rng("2023-01-01", "2023-01-01").Days(); got != 1 {
		t.Errorf("single-day range spans %d days, want 1", got)
	}
	if got := rng("2023-01-01", "2023-01-31").Days(); got != 31 {
		t.Errorf("january spans %d days, want 31", got)
	}
}
