package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"nsesync/internal/dates"
	"nsesync/internal/domain"
)

// Compile-time interface checks.
var _ PriceStore = (*SQLiteStore)(nil)
var _ CatalogStore = (*SQLiteStore)(nil)

// SQLiteStore implements PriceStore and CatalogStore backed by a SQLite
// database. The primary keys on the bar tables are the final arbiter of
// duplicate-safety: inserts go through INSERT OR IGNORE, so overlapping or
// repeated loads never duplicate or overwrite a row.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns
// a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// The pipeline is single-writer, but the read-only API may share the
	// file; WAL keeps readers unblocked during loads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

const equityBarsSchema = `
CREATE TABLE IF NOT EXISTS equity_bars (
	date       TEXT    NOT NULL,
	symbol     TEXT    NOT NULL,
	venue      TEXT    NOT NULL,
	series     TEXT,
	open       REAL,
	high       REAL,
	low        REAL,
	prev_close REAL,
	ltp        REAL,
	close      REAL,
	vwap       REAL,
	volume     INTEGER,
	value      REAL,
	trades     INTEGER,
	PRIMARY KEY (date, symbol, venue)
)`

const indexBarsSchema = `
CREATE TABLE IF NOT EXISTS index_bars (
	date     TEXT NOT NULL,
	symbol   TEXT NOT NULL,
	open     REAL,
	high     REAL,
	low      REAL,
	close    REAL,
	volume   INTEGER,
	turnover REAL,
	PRIMARY KEY (date, symbol)
)`

const universeStocksSchema = `
CREATE TABLE IF NOT EXISTS universe_stocks (
	symbol       TEXT NOT NULL,
	venue        TEXT NOT NULL DEFAULT 'NSE',
	company_name TEXT,
	industry     TEXT,
	isin         TEXT,
	PRIMARY KEY (symbol, venue)
)`

const universeIndexesSchema = `
CREATE TABLE IF NOT EXISTS universe_indexes (
	name  TEXT NOT NULL,
	venue TEXT NOT NULL DEFAULT 'NSE',
	type  TEXT,
	PRIMARY KEY (name, venue)
)`

// EnsureSchema creates the bar tables if they do not exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	for _, ddl := range []string{equityBarsSchema, indexBarsSchema} {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating bar tables: %w", err)
		}
	}
	return nil
}

// EnsureCatalogSchema creates the universe tables if they do not exist.
func (s *SQLiteStore) EnsureCatalogSchema(ctx context.Context) error {
	for _, ddl := range []string{universeStocksSchema, universeIndexesSchema} {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating universe tables: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// PriceStore implementation
// ---------------------------------------------------------------------------

// MaxEquityDate returns the watermark for an equity.
func (s *SQLiteStore) MaxEquityDate(ctx context.Context, symbol, venue string) (dates.Date, bool, error) {
	return s.maxDate(ctx, "SELECT MAX(date) FROM equity_bars WHERE symbol = ? AND venue = ?", symbol, venue)
}

// MaxIndexDate returns the watermark for an index.
func (s *SQLiteStore) MaxIndexDate(ctx context.Context, name string) (dates.Date, bool, error) {
	return s.maxDate(ctx, "SELECT MAX(date) FROM index_bars WHERE symbol = ?", name)
}

func (s *SQLiteStore) maxDate(ctx context.Context, query string, args ...any) (dates.Date, bool, error) {
	var max sql.NullString
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&max); err != nil {
		return dates.Date{}, false, fmt.Errorf("querying watermark: %w", err)
	}
	if !max.Valid || max.String == "" {
		return dates.Date{}, false, nil
	}
	d, err := dates.Parse(max.String)
	if err != nil {
		return dates.Date{}, false, fmt.Errorf("stored watermark: %w", err)
	}
	return d, true, nil
}

// InsertEquityBars inserts equity rows with absent keys inside a single
// transaction and returns the number actually inserted.
func (s *SQLiteStore) InsertEquityBars(ctx context.Context, bars []domain.EquityBar) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO equity_bars
		(date, symbol, venue, series, open, high, low, prev_close, ltp, close, vwap, volume, value, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var inserted int64
	for _, b := range bars {
		res, err := stmt.ExecContext(ctx,
			b.Date.String(), b.Symbol, b.Venue, b.Series,
			b.Open, b.High, b.Low, b.PrevClose, b.LTP, b.Close, b.VWAP,
			b.Volume, b.Value, b.Trades)
		if err != nil {
			return 0, fmt.Errorf("inserting %s %s: %w", b.Symbol, b.Date, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// InsertIndexBars inserts index rows with absent keys and returns the number
// actually inserted.
func (s *SQLiteStore) InsertIndexBars(ctx context.Context, bars []domain.IndexBar) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO index_bars
		(date, symbol, open, high, low, close, volume, turnover)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var inserted int64
	for _, b := range bars {
		res, err := stmt.ExecContext(ctx,
			b.Date.String(), b.Symbol,
			b.Open, b.High, b.Low, b.Close, b.Volume, b.Turnover)
		if err != nil {
			return 0, fmt.Errorf("inserting %s %s: %w", b.Symbol, b.Date, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// EquityBars returns an equity's rows within [from, to], ascending by date.
func (s *SQLiteStore) EquityBars(ctx context.Context, symbol, venue string, from, to dates.Date) ([]domain.EquityBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, symbol, venue, series, open, high, low, prev_close, ltp, close, vwap, volume, value, trades
		FROM equity_bars
		WHERE symbol = ? AND venue = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		symbol, venue, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.EquityBar
	for rows.Next() {
		var b domain.EquityBar
		var day string
		if err := rows.Scan(&day, &b.Symbol, &b.Venue, &b.Series,
			&b.Open, &b.High, &b.Low, &b.PrevClose, &b.LTP, &b.Close, &b.VWAP,
			&b.Volume, &b.Value, &b.Trades); err != nil {
			return nil, err
		}
		if b.Date, err = dates.Parse(day); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// IndexBars returns an index's rows within [from, to], ascending by date.
func (s *SQLiteStore) IndexBars(ctx context.Context, name string, from, to dates.Date) ([]domain.IndexBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, symbol, open, high, low, close, volume, turnover
		FROM index_bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		name, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.IndexBar
	for rows.Next() {
		var b domain.IndexBar
		var day string
		if err := rows.Scan(&day, &b.Symbol,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Turnover); err != nil {
			return nil, err
		}
		if b.Date, err = dates.Parse(day); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ListEquitySymbols returns the distinct equity symbols present, sorted.
func (s *SQLiteStore) ListEquitySymbols(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, "SELECT DISTINCT symbol FROM equity_bars ORDER BY symbol")
}

// ListIndexNames returns the distinct index names present, sorted.
func (s *SQLiteStore) ListIndexNames(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, "SELECT DISTINCT symbol FROM index_bars ORDER BY symbol")
}

// EquitySummary returns per-symbol coverage of the equity table.
func (s *SQLiteStore) EquitySummary(ctx context.Context) ([]SeriesSummary, error) {
	return s.seriesSummary(ctx, `
		SELECT symbol, venue, COUNT(*), MIN(date), MAX(date)
		FROM equity_bars GROUP BY symbol, venue ORDER BY symbol, venue`)
}

// IndexSummary returns per-index coverage of the index table.
func (s *SQLiteStore) IndexSummary(ctx context.Context) ([]SeriesSummary, error) {
	return s.seriesSummary(ctx, `
		SELECT symbol, '', COUNT(*), MIN(date), MAX(date)
		FROM index_bars GROUP BY symbol ORDER BY symbol`)
}

func (s *SQLiteStore) seriesSummary(ctx context.Context, query string) ([]SeriesSummary, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeriesSummary
	for rows.Next() {
		var sum SeriesSummary
		var first, last string
		if err := rows.Scan(&sum.Symbol, &sum.Venue, &sum.Rows, &first, &last); err != nil {
			return nil, err
		}
		if sum.First, err = dates.Parse(first); err != nil {
			return nil, err
		}
		if sum.Last, err = dates.Parse(last); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// CatalogStore implementation
// ---------------------------------------------------------------------------

// UpsertStocks inserts or replaces equity catalog entries.
func (s *SQLiteStore) UpsertStocks(ctx context.Context, stocks []domain.Instrument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO universe_stocks (symbol, venue, company_name, industry, isin)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range stocks {
		venue := st.Venue
		if venue == "" {
			venue = "NSE"
		}
		if _, err := stmt.ExecContext(ctx, st.Symbol, venue, st.Name, st.Industry, st.ISIN); err != nil {
			return fmt.Errorf("upserting stock %s: %w", st.Symbol, err)
		}
	}
	return tx.Commit()
}

// UpsertIndexes inserts or replaces index catalog entries.
func (s *SQLiteStore) UpsertIndexes(ctx context.Context, indexes []domain.Instrument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO universe_indexes (name, venue, type)
		VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ix := range indexes {
		venue := ix.Venue
		if venue == "" {
			venue = "NSE"
		}
		if _, err := stmt.ExecContext(ctx, ix.Symbol, venue, ix.Type); err != nil {
			return fmt.Errorf("upserting index %s: %w", ix.Symbol, err)
		}
	}
	return tx.Commit()
}

// ListStocks returns equity instruments for a venue, ordered by symbol.
func (s *SQLiteStore) ListStocks(ctx context.Context, venue string) ([]domain.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, venue, company_name, industry, isin
		FROM universe_stocks
		WHERE venue = ?
		ORDER BY symbol`, venue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Instrument
	for rows.Next() {
		var inst domain.Instrument
		var name, industry, isin sql.NullString
		if err := rows.Scan(&inst.Symbol, &inst.Venue, &name, &industry, &isin); err != nil {
			return nil, err
		}
		inst.Category = domain.CategoryEquity
		inst.Name = name.String
		inst.Industry = industry.String
		inst.ISIN = isin.String
		out = append(out, inst)
	}
	return out, rows.Err()
}

// ListIndexes returns index instruments for a venue, ordered by name. An
// empty indexType matches all types.
func (s *SQLiteStore) ListIndexes(ctx context.Context, venue, indexType string) ([]domain.Instrument, error) {
	query := `SELECT name, venue, type FROM universe_indexes WHERE venue = ?`
	args := []any{venue}
	if indexType != "" {
		query += ` AND type = ?`
		args = append(args, indexType)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Instrument
	for rows.Next() {
		var inst domain.Instrument
		var typ sql.NullString
		if err := rows.Scan(&inst.Symbol, &inst.Venue, &typ); err != nil {
			return nil, err
		}
		inst.Category = domain.CategoryIndex
		inst.Name = inst.Symbol
		inst.Type = typ.String
		out = append(out, inst)
	}
	return out, rows.Err()
}
