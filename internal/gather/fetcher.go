package gather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nsesync/internal/dates"
	"nsesync/internal/domain"
	"nsesync/internal/nse"
	"nsesync/internal/util"
)

// ChunkedFetcher retrieves one instrument's history over a date range,
// splitting the range into chunks no larger than the upstream source
// tolerates and pacing requests through a shared rate limiter. It performs
// no storage writes.
type ChunkedFetcher struct {
	client     nse.Client
	limiter    *util.RateLimiter
	chunkDays  int
	maxRetries int
	backoff    time.Duration
	log        *slog.Logger
}

// NewChunkedFetcher creates a ChunkedFetcher. chunkDays is the maximum span
// of a single upstream request; maxRetries bounds attempts per chunk on
// transient failures, with exponential backoff starting at backoff.
func NewChunkedFetcher(client nse.Client, limiter *util.RateLimiter, chunkDays, maxRetries int, backoff time.Duration, log *slog.Logger) *ChunkedFetcher {
	return &ChunkedFetcher{
		client:     client,
		limiter:    limiter,
		chunkDays:  chunkDays,
		maxRetries: maxRetries,
		backoff:    backoff,
		log:        log.With("component", "fetcher"),
	}
}

// SplitChunks splits r into consecutive sub-ranges of at most chunkDays
// days, in chronological order, with no overlap and no gap.
func SplitChunks(r DateRange, chunkDays int) []DateRange {
	if r.Empty() {
		return nil
	}
	if chunkDays < 1 {
		chunkDays = 1
	}

	var chunks []DateRange
	for start := r.From; !start.After(r.To); start = start.Add(chunkDays) {
		end := start.Add(chunkDays - 1)
		if end.After(r.To) {
			end = r.To
		}
		chunks = append(chunks, DateRange{From: start, To: end})
	}
	return chunks
}

// FetchEquity fetches normalized equity bars for r, chunk by chunk. Chunks
// are concatenated in chronological order. Transient failures are retried
// per chunk; a permanent failure (or retry exhaustion) aborts the fetch for
// this instrument.
func (f *ChunkedFetcher) FetchEquity(ctx context.Context, symbol string, r DateRange) ([]domain.EquityBar, error) {
	var bars []domain.EquityBar
	for _, chunk := range SplitChunks(r, f.chunkDays) {
		chunkBars, err := fetchChunk(ctx, f, symbol, chunk, f.client.EquityHistory)
		if err != nil {
			return nil, err
		}
		bars = append(bars, chunkBars...)
	}
	return bars, nil
}

// FetchIndex fetches normalized index bars for r, chunk by chunk.
func (f *ChunkedFetcher) FetchIndex(ctx context.Context, name string, r DateRange) ([]domain.IndexBar, error) {
	var bars []domain.IndexBar
	for _, chunk := range SplitChunks(r, f.chunkDays) {
		chunkBars, err := fetchChunk(ctx, f, name, chunk, f.client.IndexHistory)
		if err != nil {
			return nil, err
		}
		bars = append(bars, chunkBars...)
	}
	return bars, nil
}

// fetchChunk issues one rate-limited upstream request with bounded retries
// on transient errors.
func fetchChunk[T any](
	ctx context.Context,
	f *ChunkedFetcher,
	key string,
	chunk DateRange,
	fetch func(ctx context.Context, key string, from, to dates.Date) ([]T, error),
) ([]T, error) {
	var out []T
	attempt := func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
		f.log.Debug("fetching chunk", "instrument", key, "from", chunk.From, "to", chunk.To)
		res, err := fetch(ctx, key, chunk.From, chunk.To)
		if err != nil {
			return err
		}
		out = res
		return nil
	}

	if err := util.RetryIf(ctx, f.maxRetries, f.backoff, attempt, nse.IsTransient); err != nil {
		return nil, fmt.Errorf("fetching %s %s..%s: %w", key, chunk.From, chunk.To, err)
	}
	return out, nil
}
