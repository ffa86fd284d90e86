package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"nsesync/internal/dates"
	"nsesync/internal/domain"
)

// Compile-time interface check.
var _ StagingStore = (*ParquetStagingStore)(nil)

// ParquetStagingStore keeps one Parquet file per instrument. It offers the
// same semantics as the CSV backend with a columnar on-disk format, for
// deployments where the staging files feed analytical tools directly.
//
// Layout:
//
//	<dataDir>/price_history/<SYMBOL>.parquet
//	<dataDir>/index_history/<NAME>.parquet
type ParquetStagingStore struct {
	DataDir string
}

// NewParquetStagingStore creates a ParquetStagingStore rooted at dataDir.
func NewParquetStagingStore(dataDir string) *ParquetStagingStore {
	return &ParquetStagingStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// equityParquetRecord is the Parquet schema for staged equity bars.
type equityParquetRecord struct {
	Date      string  `parquet:"date"` // ISO-8601
	Symbol    string  `parquet:"symbol"`
	Venue     string  `parquet:"venue"`
	Series    string  `parquet:"series"`
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	PrevClose float64 `parquet:"prev_close"`
	LTP       float64 `parquet:"ltp"`
	Close     float64 `parquet:"close"`
	VWAP      float64 `parquet:"vwap"`
	Volume    int64   `parquet:"volume"`
	Value     float64 `parquet:"value"`
	Trades    int64   `parquet:"trades"`
}

// indexParquetRecord is the Parquet schema for staged index bars.
type indexParquetRecord struct {
	Date     string  `parquet:"date"` // ISO-8601
	Symbol   string  `parquet:"symbol"`
	Open     float64 `parquet:"open"`
	High     float64 `parquet:"high"`
	Low      float64 `parquet:"low"`
	Close    float64 `parquet:"close"`
	Volume   int64   `parquet:"volume"`
	Turnover float64 `parquet:"turnover"`
}

// ---------------------------------------------------------------------------
// StagingStore implementation
// ---------------------------------------------------------------------------

// ReadEquity returns the staged series for an equity, or nil if the file
// does not exist.
func (s *ParquetStagingStore) ReadEquity(symbol string) ([]domain.EquityBar, error) {
	records, err := readParquetFile[equityParquetRecord](s.equityPath(symbol))
	if err != nil {
		return nil, err
	}
	bars := make([]domain.EquityBar, 0, len(records))
	for _, r := range records {
		day, err := dates.Parse(r.Date)
		if err != nil {
			return nil, fmt.Errorf("staged equity record for %s: %w", symbol, err)
		}
		bars = append(bars, domain.EquityBar{
			Date: day, Symbol: r.Symbol, Venue: r.Venue, Series: r.Series,
			Open: r.Open, High: r.High, Low: r.Low, PrevClose: r.PrevClose,
			LTP: r.LTP, Close: r.Close, VWAP: r.VWAP,
			Volume: r.Volume, Value: r.Value, Trades: r.Trades,
		})
	}
	return bars, nil
}

// WriteEquity persists the full series for an equity atomically.
func (s *ParquetStagingStore) WriteEquity(symbol string, bars []domain.EquityBar) error {
	records := make([]equityParquetRecord, 0, len(bars))
	for _, b := range bars {
		records = append(records, equityParquetRecord{
			Date: b.Date.String(), Symbol: b.Symbol, Venue: b.Venue, Series: b.Series,
			Open: b.Open, High: b.High, Low: b.Low, PrevClose: b.PrevClose,
			LTP: b.LTP, Close: b.Close, VWAP: b.VWAP,
			Volume: b.Volume, Value: b.Value, Trades: b.Trades,
		})
	}
	return writeParquetFile(s.equityPath(symbol), records)
}

// MergeEquity unions newBars into the staged series and persists the result.
func (s *ParquetStagingStore) MergeEquity(symbol string, newBars []domain.EquityBar) ([]domain.EquityBar, error) {
	existing, err := s.ReadEquity(symbol)
	if err != nil {
		return nil, err
	}
	merged := mergeBars(existing, newBars)
	if err := s.WriteEquity(symbol, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// ReadIndex returns the staged series for an index, or nil.
func (s *ParquetStagingStore) ReadIndex(name string) ([]domain.IndexBar, error) {
	records, err := readParquetFile[indexParquetRecord](s.indexPath(name))
	if err != nil {
		return nil, err
	}
	bars := make([]domain.IndexBar, 0, len(records))
	for _, r := range records {
		day, err := dates.Parse(r.Date)
		if err != nil {
			return nil, fmt.Errorf("staged index record for %s: %w", name, err)
		}
		bars = append(bars, domain.IndexBar{
			Date: day, Symbol: r.Symbol,
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
			Volume: r.Volume, Turnover: r.Turnover,
		})
	}
	return bars, nil
}

// WriteIndex persists the full series for an index atomically.
func (s *ParquetStagingStore) WriteIndex(name string, bars []domain.IndexBar) error {
	records := make([]indexParquetRecord, 0, len(bars))
	for _, b := range bars {
		records = append(records, indexParquetRecord{
			Date: b.Date.String(), Symbol: b.Symbol,
			Open: b.Open, High: b.High, Low: b.Low, Close: b.Close,
			Volume: b.Volume, Turnover: b.Turnover,
		})
	}
	return writeParquetFile(s.indexPath(name), records)
}

// MergeIndex unions newBars into the staged series and persists the result.
func (s *ParquetStagingStore) MergeIndex(name string, newBars []domain.IndexBar) ([]domain.IndexBar, error) {
	existing, err := s.ReadIndex(name)
	if err != nil {
		return nil, err
	}
	merged := mergeBars(existing, newBars)
	if err := s.WriteIndex(name, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

func (s *ParquetStagingStore) equityPath(symbol string) string {
	return filepath.Join(s.DataDir, "price_history", strings.ToUpper(symbol)+".parquet")
}

func (s *ParquetStagingStore) indexPath(name string) string {
	return filepath.Join(s.DataDir, "index_history", strings.ReplaceAll(name, " ", "_")+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("reading staging file %s: %w", path, err)
	}
	return rows, nil
}

// writeParquetFile writes to a temp file and renames it into place, so a
// reader never observes a partial series.
func writeParquetFile[T any](path string, records []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := parquet.WriteFile(tmpName, records); err != nil {
		return fmt.Errorf("writing staging file %s: %w", path, err)
	}
	return os.Rename(tmpName, path)
}
