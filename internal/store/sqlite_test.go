package store

import (
	"context"
	"path/filepath"
	"testing"

	"nsesync/internal/dates"
	"nsesync/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "stock.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := s.EnsureCatalogSchema(ctx); err != nil {
		t.Fatalf("EnsureCatalogSchema: %v", err)
	}
	return s
}

func TestInsertEquityBarsCountsOnlyNewRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bars := []domain.EquityBar{
		equityBar("2023-01-02", 100),
		equityBar("2023-01-03", 101),
		equityBar("2023-01-04", 102),
	}

	n, err := s.InsertEquityBars(ctx, bars)
	if err != nil {
		t.Fatalf("InsertEquityBars: %v", err)
	}
	if n != 3 {
		t.Errorf("first insert: got %d rows, want 3", n)
	}

	// Re-inserting the identical batch is a no-op.
	n, err = s.InsertEquityBars(ctx, bars)
	if err != nil {
		t.Fatalf("second InsertEquityBars: %v", err)
	}
	if n != 0 {
		t.Errorf("duplicate insert: got %d rows, want 0", n)
	}

	// An overlapping batch inserts only the genuinely new row, and never
	// overwrites an existing one.
	refreshed := equityBar("2023-01-04", 999)
	n, err = s.InsertEquityBars(ctx, []domain.EquityBar{refreshed, equityBar("2023-01-05", 103)})
	if err != nil {
		t.Fatalf("overlapping InsertEquityBars: %v", err)
	}
	if n != 1 {
		t.Errorf("overlapping insert: got %d rows, want 1", n)
	}

	got, err := s.EquityBars(ctx, "RELIANCE", "NSE", mustDate("2023-01-04"), mustDate("2023-01-04"))
	if err != nil {
		t.Fatalf("EquityBars: %v", err)
	}
	if len(got) != 1 || got[0].Close != 102 {
		t.Errorf("existing row should be untouched, got %+v", got)
	}
}

func TestMaxEquityDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.MaxEquityDate(ctx, "RELIANCE", "NSE"); err != nil {
		t.Fatalf("MaxEquityDate: %v", err)
	} else if ok {
		t.Error("empty table should report no watermark")
	}

	if _, err := s.InsertEquityBars(ctx, []domain.EquityBar{
		equityBar("2023-01-02", 100),
		equityBar("2023-01-10", 101),
		equityBar("2023-01-05", 102),
	}); err != nil {
		t.Fatalf("InsertEquityBars: %v", err)
	}

	max, ok, err := s.MaxEquityDate(ctx, "RELIANCE", "NSE")
	if err != nil {
		t.Fatalf("MaxEquityDate: %v", err)
	}
	if !ok || max.String() != "2023-01-10" {
		t.Errorf("watermark = %s ok=%v, want 2023-01-10", max, ok)
	}

	// The watermark is scoped per symbol and venue.
	if _, ok, _ := s.MaxEquityDate(ctx, "RELIANCE", "BSE"); ok {
		t.Error("watermark should not leak across venues")
	}
}

func TestEquityBarsRangeQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertEquityBars(ctx, []domain.EquityBar{
		equityBar("2023-01-02", 100),
		equityBar("2023-01-03", 101),
		equityBar("2023-01-04", 102),
		equityBar("2023-01-05", 103),
	}); err != nil {
		t.Fatalf("InsertEquityBars: %v", err)
	}

	got, err := s.EquityBars(ctx, "RELIANCE", "NSE", mustDate("2023-01-03"), mustDate("2023-01-04"))
	if err != nil {
		t.Fatalf("EquityBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bars in range, got %d", len(got))
	}
	if got[0].Date.String() != "2023-01-03" || got[1].Date.String() != "2023-01-04" {
		t.Errorf("range bounds are inclusive and ascending: %s, %s", got[0].Date, got[1].Date)
	}
	if got[0].Symbol != "RELIANCE" || got[0].Venue != "NSE" {
		t.Errorf("identity columns round trip: %+v", got[0])
	}
}

func TestIndexBarsInsertAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.InsertIndexBars(ctx, []domain.IndexBar{
		indexBar("2023-01-02", 18200),
		indexBar("2023-01-03", 18250),
	})
	if err != nil {
		t.Fatalf("InsertIndexBars: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d rows, want 2", n)
	}

	max, ok, err := s.MaxIndexDate(ctx, "NIFTY 50")
	if err != nil {
		t.Fatalf("MaxIndexDate: %v", err)
	}
	if !ok || max.String() != "2023-01-03" {
		t.Errorf("watermark = %s ok=%v", max, ok)
	}

	got, err := s.IndexBars(ctx, "NIFTY 50", mustDate("2023-01-01"), mustDate("2023-12-31"))
	if err != nil {
		t.Fatalf("IndexBars: %v", err)
	}
	if len(got) != 2 || got[1].Close != 18250 {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestListSymbols(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertEquityBars(ctx, []domain.EquityBar{
		equityBar("2023-01-02", 100),
		{Date: mustDate("2023-01-02"), Symbol: "TCS", Venue: "NSE", Close: 3301},
	}); err != nil {
		t.Fatalf("InsertEquityBars: %v", err)
	}
	if _, err := s.InsertIndexBars(ctx, []domain.IndexBar{indexBar("2023-01-02", 18200)}); err != nil {
		t.Fatalf("InsertIndexBars: %v", err)
	}

	symbols, err := s.ListEquitySymbols(ctx)
	if err != nil {
		t.Fatalf("ListEquitySymbols: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "RELIANCE" || symbols[1] != "TCS" {
		t.Errorf("symbols = %v", symbols)
	}

	names, err := s.ListIndexNames(ctx)
	if err != nil {
		t.Fatalf("ListIndexNames: %v", err)
	}
	if len(names) != 1 || names[0] != "NIFTY 50" {
		t.Errorf("names = %v", names)
	}
}

func TestCatalogUpsertAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stocks := []domain.Instrument{
		{Symbol: "RELIANCE", Venue: "NSE", Category: domain.CategoryEquity, Name: "Reliance Industries Ltd.", Industry: "Energy", ISIN: "INE002A01018"},
		{Symbol: "TCS", Venue: "NSE", Category: domain.CategoryEquity, Name: "Tata Consultancy Services Ltd.", Industry: "IT", ISIN: "INE467B01029"},
	}
	if err := s.UpsertStocks(ctx, stocks); err != nil {
		t.Fatalf("UpsertStocks: %v", err)
	}

	// Re-running with a changed row replaces it instead of duplicating.
	stocks[1].Industry = "Information Technology"
	if err := s.UpsertStocks(ctx, stocks); err != nil {
		t.Fatalf("second UpsertStocks: %v", err)
	}

	got, err := s.ListStocks(ctx, "NSE")
	if err != nil {
		t.Fatalf("ListStocks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 stocks, got %d", len(got))
	}
	for _, inst := range got {
		if inst.Category != domain.CategoryEquity {
			t.Errorf("stock %s has category %q", inst.Symbol, inst.Category)
		}
		if inst.Symbol == "TCS" && inst.Industry != "Information Technology" {
			t.Errorf("upsert did not replace: %+v", inst)
		}
	}

	indexes := []domain.Instrument{
		{Symbol: "NIFTY 50", Venue: "NSE", Category: domain.CategoryIndex, Type: "broad"},
		{Symbol: "NIFTY BANK", Venue: "NSE", Category: domain.CategoryIndex, Type: "sectoral"},
	}
	if err := s.UpsertIndexes(ctx, indexes); err != nil {
		t.Fatalf("UpsertIndexes: %v", err)
	}

	gotIdx, err := s.ListIndexes(ctx, "NSE", "")
	if err != nil {
		t.Fatalf("ListIndexes: %v", err)
	}
	if len(gotIdx) != 2 {
		t.Errorf("expected 2 indexes, got %d", len(gotIdx))
	}

	sectoral, err := s.ListIndexes(ctx, "NSE", "sectoral")
	if err != nil {
		t.Fatalf("ListIndexes filtered: %v", err)
	}
	if len(sectoral) != 1 || sectoral[0].Symbol != "NIFTY BANK" {
		t.Errorf("type filter: %+v", sectoral)
	}
}

func TestSeriesSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertEquityBars(ctx, []domain.EquityBar{
		equityBar("2023-01-02", 100),
		equityBar("2023-01-05", 101),
		{Date: mustDate("2023-01-03"), Symbol: "TCS", Venue: "NSE", Close: 3301},
	}); err != nil {
		t.Fatalf("InsertEquityBars: %v", err)
	}
	if _, err := s.InsertIndexBars(ctx, []domain.IndexBar{indexBar("2023-01-02", 18200)}); err != nil {
		t.Fatalf("InsertIndexBars: %v", err)
	}

	sums, err := s.EquitySummary(ctx)
	if err != nil {
		t.Fatalf("EquitySummary: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 equity summaries, got %d", len(sums))
	}
	rel := sums[0]
	if rel.Symbol != "RELIANCE" || rel.Venue != "NSE" || rel.Rows != 2 {
		t.Errorf("RELIANCE summary = %+v", rel)
	}
	if rel.First.String() != "2023-01-02" || rel.Last.String() != "2023-01-05" {
		t.Errorf("RELIANCE coverage = %s..%s", rel.First, rel.Last)
	}

	idx, err := s.IndexSummary(ctx)
	if err != nil {
		t.Fatalf("IndexSummary: %v", err)
	}
	if len(idx) != 1 || idx[0].Symbol != "NIFTY 50" || idx[0].Venue != "" || idx[0].Rows != 1 {
		t.Errorf("index summary = %+v", idx)
	}
}

func mustDate(s string) dates.Date {
	d, err := dates.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}
