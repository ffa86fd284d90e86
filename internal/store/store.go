// Package store defines the persistence interfaces of the pipeline and their
// implementations: the per-instrument staging series (CSV or Parquet files)
// and the queryable SQLite store the visualization layer reads.
package store

import (
	"context"

	"nsesync/internal/dates"
	"nsesync/internal/domain"
)

// StagingStore holds every bar ever fetched for an instrument, one durable
// series per instrument, deduplicated by date and sorted ascending. Writes
// replace the whole series atomically.
type StagingStore interface {
	// ReadEquity returns the staged series for an equity, or nil if none
	// has been staged yet.
	ReadEquity(symbol string) ([]domain.EquityBar, error)

	// WriteEquity persists the full series for an equity.
	WriteEquity(symbol string, bars []domain.EquityBar) error

	// MergeEquity unions newBars into the staged series, newest fetch
	// winning on duplicate dates, and persists the re-sorted result.
	MergeEquity(symbol string, newBars []domain.EquityBar) ([]domain.EquityBar, error)

	// ReadIndex returns the staged series for an index, or nil.
	ReadIndex(name string) ([]domain.IndexBar, error)

	// WriteIndex persists the full series for an index.
	WriteIndex(name string, bars []domain.IndexBar) error

	// MergeIndex is MergeEquity for index series.
	MergeIndex(name string, newBars []domain.IndexBar) ([]domain.IndexBar, error)
}

// PriceStore is the durable queryable store. Rows are inserted at most once
// per natural key and never updated or deleted by the pipeline.
type PriceStore interface {
	// EnsureSchema creates the bar tables if they do not exist.
	EnsureSchema(ctx context.Context) error

	// MaxEquityDate returns the watermark for an equity; ok is false when
	// no rows exist.
	MaxEquityDate(ctx context.Context, symbol, venue string) (d dates.Date, ok bool, err error)

	// MaxIndexDate returns the watermark for an index.
	MaxIndexDate(ctx context.Context, name string) (d dates.Date, ok bool, err error)

	// InsertEquityBars inserts bars whose natural key is absent and reports
	// how many rows were actually inserted.
	InsertEquityBars(ctx context.Context, bars []domain.EquityBar) (int64, error)

	// InsertIndexBars is InsertEquityBars for index rows.
	InsertIndexBars(ctx context.Context, bars []domain.IndexBar) (int64, error)

	// EquityBars returns an equity's rows within [from, to], ascending.
	EquityBars(ctx context.Context, symbol, venue string, from, to dates.Date) ([]domain.EquityBar, error)

	// IndexBars returns an index's rows within [from, to], ascending.
	IndexBars(ctx context.Context, name string, from, to dates.Date) ([]domain.IndexBar, error)

	// ListEquitySymbols returns the distinct equity symbols present.
	ListEquitySymbols(ctx context.Context) ([]string, error)

	// ListIndexNames returns the distinct index names present.
	ListIndexNames(ctx context.Context) ([]string, error)

	// EquitySummary returns per-symbol coverage of the equity table.
	EquitySummary(ctx context.Context) ([]SeriesSummary, error)

	// IndexSummary returns per-index coverage of the index table.
	IndexSummary(ctx context.Context) ([]SeriesSummary, error)
}

// SeriesSummary describes the stored coverage of one instrument's series.
type SeriesSummary struct {
	Symbol string
	Venue  string // empty for indices
	Rows   int64
	First  dates.Date
	Last   dates.Date
}

// CatalogStore maintains the universe of tracked instruments. The sync core
// only reads it; population happens out of band (nse-init).
type CatalogStore interface {
	// EnsureCatalogSchema creates the universe tables if they do not exist.
	EnsureCatalogSchema(ctx context.Context) error

	// UpsertStocks inserts or replaces equity catalog entries.
	UpsertStocks(ctx context.Context, stocks []domain.Instrument) error

	// UpsertIndexes inserts or replaces index catalog entries.
	UpsertIndexes(ctx context.Context, indexes []domain.Instrument) error

	// ListStocks returns equity instruments for a venue, ordered by symbol.
	ListStocks(ctx context.Context, venue string) ([]domain.Instrument, error)

	// ListIndexes returns index instruments for a venue, ordered by name,
	// optionally filtered by index type.
	ListIndexes(ctx context.Context, venue, indexType string) ([]domain.Instrument, error)
}
