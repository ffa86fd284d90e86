package gather

// ResolveRanges computes the sub-ranges of the requested window that are not
// already covered by the stored extent. It is a pure function.
//
// Coverage only extends at the boundaries: a range before the extent's
// minimum and a range after its maximum. Gaps inside the extent (for
// example, a missing week in the middle of an already-spanned series) are
// not detected or re-fetched. This is a deliberate freshness policy, not a
// full-coverage guarantee; the staged series ends up extended
// forward/backward only.
func ResolveRanges(requested DateRange, extent *Extent) []DateRange {
	if requested.Empty() {
		return nil
	}
	if extent == nil {
		return []DateRange{requested}
	}

	var missing []DateRange
	if requested.From.Before(extent.Min) {
		missing = append(missing, DateRange{From: requested.From, To: extent.Min.Add(-1)})
	}
	if requested.To.After(extent.Max) {
		missing = append(missing, DateRange{From: extent.Max.Add(1), To: requested.To})
	}
	return missing
}
