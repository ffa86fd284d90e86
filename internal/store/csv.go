package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"nsesync/internal/domain"
)

// Compile-time interface check.
var _ StagingStore = (*CSVStagingStore)(nil)

// CSVStagingStore keeps one CSV file per instrument. CSV is the default
// staging format because the files double as a human-inspectable record of
// everything ever fetched.
//
// Layout:
//
//	<dataDir>/price_history/<SYMBOL>.csv
//	<dataDir>/index_history/<NAME>.csv   (spaces replaced by underscores)
type CSVStagingStore struct {
	DataDir string
}

// NewCSVStagingStore creates a CSVStagingStore rooted at dataDir.
func NewCSVStagingStore(dataDir string) *CSVStagingStore {
	return &CSVStagingStore{DataDir: dataDir}
}

// ReadEquity returns the staged series for an equity, or nil if the file
// does not exist.
func (s *CSVStagingStore) ReadEquity(symbol string) ([]domain.EquityBar, error) {
	return readCSVFile[domain.EquityBar](s.equityPath(symbol))
}

// WriteEquity persists the full series for an equity atomically.
func (s *CSVStagingStore) WriteEquity(symbol string, bars []domain.EquityBar) error {
	return writeCSVFile(s.equityPath(symbol), bars)
}

// MergeEquity unions newBars into the staged series and persists the result.
func (s *CSVStagingStore) MergeEquity(symbol string, newBars []domain.EquityBar) ([]domain.EquityBar, error) {
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
func (s *CSVStagingStore) ReadIndex(name string) ([]domain.IndexBar, error) {
	return readCSVFile[domain.IndexBar](s.indexPath(name))
}

// WriteIndex persists the full series for an index atomically.
func (s *CSVStagingStore) WriteIndex(name string, bars []domain.IndexBar) error {
	return writeCSVFile(s.indexPath(name), bars)
}

// MergeIndex unions newBars into the staged series and persists the result.
func (s *CSVStagingStore) MergeIndex(name string, newBars []domain.IndexBar) ([]domain.IndexBar, error) {
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

func (s *CSVStagingStore) equityPath(symbol string) string {
	return filepath.Join(s.DataDir, "price_history", strings.ToUpper(symbol)+".csv")
}

// Index names contain spaces ("NIFTY 50"), which make poor filenames.
func (s *CSVStagingStore) indexPath(name string) string {
	return filepath.Join(s.DataDir, "index_history", strings.ReplaceAll(name, " ", "_")+".csv")
}

// ---------------------------------------------------------------------------
// CSV file helpers
// ---------------------------------------------------------------------------

func readCSVFile[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening staging file %s: %w", path, err)
	}
	defer f.Close()

	var records []T
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("reading staging file %s: %w", path, err)
	}
	return records, nil
}

// writeCSVFile writes the series to a temp file in the target directory and
// renames it into place, so a reader never observes a partial series.
func writeCSVFile[T any](path string, records []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gocsv.MarshalFile(&records, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing staging file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
