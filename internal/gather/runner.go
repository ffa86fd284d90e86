package gather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nsesync/internal/dates"
	"nsesync/internal/domain"
	"nsesync/internal/store"
)

// Compile-time interface check.
var _ Gatherer = (*Runner)(nil)

// Per-instrument synchronization states.
type state string

const (
	stateIdle      state = "idle"
	stateResolving state = "resolving"
	stateFetching  state = "fetching"
	stateMerging   state = "merging"
	stateLoading   state = "loading"
	stateDone      state = "done"
	stateFailed    state = "failed"
)

// Outcome is the per-instrument result of a run.
type Outcome struct {
	Instrument domain.Instrument
	Inserted   int64
	Err        error
}

// Summary aggregates a whole run.
type Summary struct {
	Outcomes []Outcome
	Started  time.Time
	Finished time.Time
}

// Failed returns the outcomes that ended in failure.
func (s *Summary) Failed() []Outcome {
	var failed []Outcome
	for _, o := range s.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Inserted returns the total number of rows inserted across instruments.
func (s *Summary) Inserted() int64 {
	var total int64
	for _, o := range s.Outcomes {
		total += o.Inserted
	}
	return total
}

// Runner synchronizes every catalog instrument over the requested window,
// sequentially and in catalog order. One failing instrument never halts the
// run; partial progress is a valid terminal state.
type Runner struct {
	instruments []domain.Instrument
	window      DateRange
	fetcher     *ChunkedFetcher
	staging     store.StagingStore
	loader      *IncrementalLoader
	prices      store.PriceStore
	log         *slog.Logger
}

// NewRunner creates a Runner over the given instruments (already in catalog
// order) and requested window.
func NewRunner(
	instruments []domain.Instrument,
	window DateRange,
	fetcher *ChunkedFetcher,
	staging store.StagingStore,
	prices store.PriceStore,
	log *slog.Logger,
) *Runner {
	return &Runner{
		instruments: instruments,
		window:      window,
		fetcher:     fetcher,
		staging:     staging,
		loader:      NewIncrementalLoader(staging, prices, log),
		prices:      prices,
		log:         log.With("gatherer", "nse-daily"),
	}
}

// Name returns the gatherer identifier.
func (r *Runner) Name() string { return "nse-daily" }

// Run executes one synchronization pass and returns an error only when the
// run could not complete (cancellation) or every instrument failed.
func (r *Runner) Run(ctx context.Context) error {
	summary, err := r.Sync(ctx)
	if err != nil {
		return err
	}
	if failed := summary.Failed(); len(failed) == len(summary.Outcomes) && len(failed) > 0 {
		return fmt.Errorf("all %d instruments failed", len(failed))
	}
	return nil
}

// Sync processes every instrument once and returns the run summary. It stops
// early only on context cancellation; per-instrument errors are recorded in
// the summary and logged, never propagated across instrument boundaries.
func (r *Runner) Sync(ctx context.Context) (*Summary, error) {
	summary := &Summary{Started: time.Now()}

	r.log.Info("starting sync",
		"instruments", len(r.instruments),
		"from", r.window.From,
		"to", r.window.To,
	)

	for i, inst := range r.instruments {
		if err := ctx.Err(); err != nil {
			summary.Finished = time.Now()
			return summary, err
		}

		log := r.log.With("instrument", inst.Key(), "progress", fmt.Sprintf("%d/%d", i+1, len(r.instruments)))

		inserted, err := r.syncOne(ctx, inst, log)
		if err != nil {
			// Cancellation mid-instrument ends the run; anything else is
			// attributed to the instrument and the run continues.
			if ctx.Err() != nil {
				summary.Finished = time.Now()
				return summary, ctx.Err()
			}
			log.Error("instrument failed", "state", stateFailed, "error", err)
			summary.Outcomes = append(summary.Outcomes, Outcome{Instrument: inst, Err: err})
			continue
		}

		log.Info("instrument synced", "state", stateDone, "inserted", inserted)
		summary.Outcomes = append(summary.Outcomes, Outcome{Instrument: inst, Inserted: inserted})
	}

	summary.Finished = time.Now()
	r.log.Info("sync finished",
		"instruments", len(summary.Outcomes),
		"failed", len(summary.Failed()),
		"inserted", summary.Inserted(),
		"elapsed", summary.Finished.Sub(summary.Started).Round(time.Millisecond),
	)
	return summary, nil
}

// syncOne drives one instrument through resolve → fetch → merge → load.
func (r *Runner) syncOne(ctx context.Context, inst domain.Instrument, log *slog.Logger) (int64, error) {
	switch inst.Category {
	case domain.CategoryEquity:
		return r.syncEquity(ctx, inst, log)
	case domain.CategoryIndex:
		return r.syncIndex(ctx, inst, log)
	default:
		return 0, fmt.Errorf("unknown category %q", inst.Category)
	}
}

func (r *Runner) syncEquity(ctx context.Context, inst domain.Instrument, log *slog.Logger) (int64, error) {
	log.Debug("sync state", "state", stateResolving)
	staged, err := r.staging.ReadEquity(inst.Symbol)
	if err != nil {
		return 0, fmt.Errorf("staging read: %w", err)
	}

	extent := ExtentOf(staged)
	watermark, ok, err := r.prices.MaxEquityDate(ctx, inst.Symbol, inst.Venue)
	if err != nil {
		return 0, fmt.Errorf("watermark: %w", err)
	}
	extent = effectiveExtent(extent, watermark, ok, r.window.From)

	ranges := ResolveRanges(r.window, extent)
	if len(ranges) == 0 {
		log.Debug("already covered, loading only")
	}

	log.Debug("sync state", "state", stateFetching, "ranges", len(ranges))
	var fetched []domain.EquityBar
	for _, rng := range ranges {
		bars, err := r.fetcher.FetchEquity(ctx, inst.Symbol, rng)
		if err != nil {
			return 0, err
		}
		fetched = append(fetched, bars...)
	}

	// The merge is a single atomic write per instrument: either every
	// fetched chunk lands in staging or none does.
	if len(fetched) > 0 {
		log.Debug("sync state", "state", stateMerging, "fetched", len(fetched))
		if _, err := r.staging.MergeEquity(inst.Symbol, fetched); err != nil {
			return 0, fmt.Errorf("staging merge: %w", err)
		}
	}

	log.Debug("sync state", "state", stateLoading)
	return r.loader.LoadEquity(ctx, inst.Symbol, inst.Venue)
}

func (r *Runner) syncIndex(ctx context.Context, inst domain.Instrument, log *slog.Logger) (int64, error) {
	log.Debug("sync state", "state", stateResolving)
	staged, err := r.staging.ReadIndex(inst.Symbol)
	if err != nil {
		return 0, fmt.Errorf("staging read: %w", err)
	}

	extent := ExtentOf(staged)
	watermark, ok, err := r.prices.MaxIndexDate(ctx, inst.Symbol)
	if err != nil {
		return 0, fmt.Errorf("watermark: %w", err)
	}
	extent = effectiveExtent(extent, watermark, ok, r.window.From)

	ranges := ResolveRanges(r.window, extent)

	log.Debug("sync state", "state", stateFetching, "ranges", len(ranges))
	var fetched []domain.IndexBar
	for _, rng := range ranges {
		bars, err := r.fetcher.FetchIndex(ctx, inst.Symbol, rng)
		if err != nil {
			return 0, err
		}
		fetched = append(fetched, bars...)
	}

	if len(fetched) > 0 {
		log.Debug("sync state", "state", stateMerging, "fetched", len(fetched))
		if _, err := r.staging.MergeIndex(inst.Symbol, fetched); err != nil {
			return 0, fmt.Errorf("staging merge: %w", err)
		}
	}

	log.Debug("sync state", "state", stateLoading)
	return r.loader.LoadIndex(ctx, inst.Symbol)
}

// effectiveExtent folds the query-store watermark into the staged extent.
// The watermark is authoritative for the forward edge: if rows are already
// loaded past the staged series (say the staging file was removed), there is
// no point re-fetching them. Without any staged series the watermark alone
// anchors the forward edge, and only newer dates are fetched.
func effectiveExtent(extent *Extent, watermark dates.Date, ok bool, requestedFrom dates.Date) *Extent {
	if !ok {
		return extent
	}
	if extent == nil {
		return &Extent{Min: requestedFrom, Max: watermark}
	}
	if watermark.After(extent.Max) {
		return &Extent{Min: extent.Min, Max: watermark}
	}
	return extent
}
