// Package catalog bootstraps and enumerates the universe of tracked
// instruments. The sync core reads the catalog only to know what to
// synchronize; maintaining it is a separate concern (nse-init).
package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"nsesync/internal/domain"
	"nsesync/internal/store"
)

// stockRow mirrors the header of the published NIFTY constituent list.
type stockRow struct {
	CompanyName string `csv:"Company Name"`
	Industry    string `csv:"Industry"`
	Symbol      string `csv:"Symbol"`
	Series      string `csv:"Series"`
	ISIN        string `csv:"ISIN Code"`
}

// indexRow mirrors the maintained index universe file.
type indexRow struct {
	Index    string `csv:"Index"`
	Exchange string `csv:"Exchange"`
	Type     string `csv:"Type"`
}

// LoadStocksCSV parses a stock universe CSV into equity instruments.
func LoadStocksCSV(path, venue string) ([]domain.Instrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stock universe %s: %w", path, err)
	}
	defer f.Close()

	var rows []stockRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing stock universe %s: %w", path, err)
	}

	instruments := make([]domain.Instrument, 0, len(rows))
	for _, r := range rows {
		if r.Symbol == "" {
			continue
		}
		instruments = append(instruments, domain.Instrument{
			Symbol:   r.Symbol,
			Venue:    venue,
			Category: domain.CategoryEquity,
			Name:     r.CompanyName,
			Industry: r.Industry,
			ISIN:     r.ISIN,
		})
	}
	return instruments, nil
}

// LoadIndexesCSV parses an index universe CSV into index instruments. Rows
// without an explicit exchange default to the given venue.
func LoadIndexesCSV(path, venue string) ([]domain.Instrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index universe %s: %w", path, err)
	}
	defer f.Close()

	var rows []indexRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing index universe %s: %w", path, err)
	}

	instruments := make([]domain.Instrument, 0, len(rows))
	for _, r := range rows {
		if r.Index == "" {
			continue
		}
		v := r.Exchange
		if v == "" {
			v = venue
		}
		instruments = append(instruments, domain.Instrument{
			Symbol:   r.Index,
			Venue:    v,
			Category: domain.CategoryIndex,
			Name:     r.Index,
			Type:     r.Type,
		})
	}
	return instruments, nil
}

// Populate loads both universe CSVs into the catalog store. A missing file
// is skipped, not fatal, so partial universes can be bootstrapped.
func Populate(ctx context.Context, cs store.CatalogStore, stocksCSV, indexesCSV, venue string) error {
	if err := cs.EnsureCatalogSchema(ctx); err != nil {
		return err
	}

	if _, err := os.Stat(stocksCSV); err == nil {
		stocks, err := LoadStocksCSV(stocksCSV, venue)
		if err != nil {
			return err
		}
		if err := cs.UpsertStocks(ctx, stocks); err != nil {
			return err
		}
	}

	if _, err := os.Stat(indexesCSV); err == nil {
		indexes, err := LoadIndexesCSV(indexesCSV, venue)
		if err != nil {
			return err
		}
		if err := cs.UpsertIndexes(ctx, indexes); err != nil {
			return err
		}
	}
	return nil
}

// Instruments returns the full processing order for a run: equities sorted
// by symbol, then indices sorted by name.
func Instruments(ctx context.Context, cs store.CatalogStore, venue string) ([]domain.Instrument, error) {
	stocks, err := cs.ListStocks(ctx, venue)
	if err != nil {
		return nil, fmt.Errorf("listing stocks: %w", err)
	}
	indexes, err := cs.ListIndexes(ctx, venue, "")
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}
	return append(stocks, indexes...), nil
}
