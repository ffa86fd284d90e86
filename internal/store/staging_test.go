package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nsesync/internal/dates"
	"nsesync/internal/domain"
)

func equityBar(day string, close float64) domain.EquityBar {
	d, err := dates.Parse(day)
	if err != nil {
		panic(err)
	}
	return domain.EquityBar{
		Date:   d,
		Symbol: "RELIANCE",
		Venue:  "NSE",
		Series: "EQ",
		Close:  close,
	}
}

func indexBar(day string, close float64) domain.IndexBar {
	d, err := dates.Parse(day)
	if err != nil {
		panic(err)
	}
	return domain.IndexBar{Date: d, Symbol: "NIFTY 50", Close: close}
}

func TestNewStagingStore(t *testing.T) {
	if _, err := NewStagingStore("csv", t.TempDir()); err != nil {
		t.Errorf("csv format: %v", err)
	}
	if _, err := NewStagingStore("parquet", t.TempDir()); err != nil {
		t.Errorf("parquet format: %v", err)
	}
	if _, err := NewStagingStore("xml", t.TempDir()); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestMergeBarsDedupAndSort(t *testing.T) {
	existing := []domain.EquityBar{
		equityBar("2023-01-02", 100),
		equityBar("2023-01-03", 101),
	}
	incoming := []domain.EquityBar{
		equityBar("2023-01-03", 999), // same date, refreshed close
		equityBar("2023-01-01", 99),
	}

	merged := mergeBars(existing, incoming)
	if len(merged) != 3 {
		t.Fatalf("expected 3 bars after merge, got %d", len(merged))
	}

	// Sorted ascending by date.
	for i := 1; i < len(merged); i++ {
		if !merged[i-1].Date.Before(merged[i].Date) {
			t.Errorf("merge result not sorted at %d: %s then %s", i, merged[i-1].Date, merged[i].Date)
		}
	}

	// The incoming bar wins on a date collision.
	if merged[2].Date.String() != "2023-01-03" || merged[2].Close != 999 {
		t.Errorf("incoming bar should win collision, got %+v", merged[2])
	}
}

func TestMergeBarsIdempotent(t *testing.T) {
	bars := []domain.EquityBar{
		equityBar("2023-01-02", 100),
		equityBar("2023-01-03", 101),
	}

	once := mergeBars(nil, bars)
	twice := mergeBars(once, bars)
	if len(twice) != len(once) {
		t.Errorf("re-merging the same bars changed the count: %d then %d", len(once), len(twice))
	}
}

// stagingBackends runs a subtest against each staging format.
func stagingBackends(t *testing.T, fn func(t *testing.T, s StagingStore, dir string)) {
	t.Helper()
	for _, format := range []string{"csv", "parquet"} {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			s, err := NewStagingStore(format, dir)
			if err != nil {
				t.Fatalf("NewStagingStore: %v", err)
			}
			fn(t, s, dir)
		})
	}
}

func TestStagingReadMissingFile(t *testing.T) {
	stagingBackends(t, func(t *testing.T, s StagingStore, dir string) {
		bars, err := s.ReadEquity("NOSUCH")
		if err != nil {
			t.Fatalf("reading missing file should not error: %v", err)
		}
		if bars != nil {
			t.Errorf("expected nil series, got %d bars", len(bars))
		}
	})
}

func TestStagingWriteReadRoundTrip(t *testing.T) {
	stagingBackends(t, func(t *testing.T, s StagingStore, dir string) {
		in := []domain.EquityBar{
			equityBar("2023-01-02", 2541.5),
			equityBar("2023-01-03", 2550),
		}
		in[0].Open, in[0].Volume, in[0].Trades = 2500, 1000000, 50000

		if err := s.WriteEquity("RELIANCE", in); err != nil {
			t.Fatalf("WriteEquity: %v", err)
		}
		out, err := s.ReadEquity("RELIANCE")
		if err != nil {
			t.Fatalf("ReadEquity: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("expected 2 bars, got %d", len(out))
		}
		if out[0] != in[0] || out[1] != in[1] {
			t.Errorf("round trip mismatch:\n  got  %+v\n  want %+v", out, in)
		}
	})
}

func TestStagingMergeAcrossCalls(t *testing.T) {
	stagingBackends(t, func(t *testing.T, s StagingStore, dir string) {
		if _, err := s.MergeIndex("NIFTY 50", []domain.IndexBar{
			indexBar("2023-01-03", 18250),
			indexBar("2023-01-02", 18200),
		}); err != nil {
			t.Fatalf("first merge: %v", err)
		}

		merged, err := s.MergeIndex("NIFTY 50", []domain.IndexBar{
			indexBar("2023-01-03", 18260), // refreshed
			indexBar("2023-01-04", 18300),
		})
		if err != nil {
			t.Fatalf("second merge: %v", err)
		}

		if len(merged) != 3 {
			t.Fatalf("expected 3 bars, got %d", len(merged))
		}
		if merged[0].Date.String() != "2023-01-02" || merged[2].Date.String() != "2023-01-04" {
			t.Errorf("wrong order: %s..%s", merged[0].Date, merged[2].Date)
		}
		if merged[1].Close != 18260 {
			t.Errorf("refreshed bar should win, got close %v", merged[1].Close)
		}

		// The merge is persisted, not just returned.
		reread, err := s.ReadIndex("NIFTY 50")
		if err != nil {
			t.Fatalf("ReadIndex: %v", err)
		}
		if len(reread) != 3 {
			t.Errorf("persisted series has %d bars, want 3", len(reread))
		}
	})
}

func TestStagingFileLayout(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStagingStore(dir)

	if err := s.WriteEquity("reliance", []domain.EquityBar{equityBar("2023-01-02", 100)}); err != nil {
		t.Fatalf("WriteEquity: %v", err)
	}
	if err := s.WriteIndex("NIFTY 50", []domain.IndexBar{indexBar("2023-01-02", 18200)}); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}

	// Symbols are uppercased, index names lose their spaces.
	if _, err := os.Stat(filepath.Join(dir, "price_history", "RELIANCE.csv")); err != nil {
		t.Errorf("equity staging file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "index_history", "NIFTY_50.csv")); err != nil {
		t.Errorf("index staging file missing: %v", err)
	}

	// No leftover temp files from the atomic write.
	entries, err := os.ReadDir(filepath.Join(dir, "price_history"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestCSVStagingIsHumanReadable(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStagingStore(dir)

	d := dates.New(2023, time.January, 2)
	bar := domain.EquityBar{Date: d, Symbol: "TCS", Venue: "NSE", Series: "EQ", Close: 3301}
	if err := s.WriteEquity("TCS", []domain.EquityBar{bar}); err != nil {
		t.Fatalf("WriteEquity: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "price_history", "TCS.csv"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(raw)
	if !strings.Contains(text, "2023-01-02") {
		t.Errorf("date should render as ISO text, got:\n%s", text)
	}
	if !strings.Contains(text, "date") || !strings.Contains(text, "close") {
		t.Errorf("expected a header row, got:\n%s", text)
	}
}
