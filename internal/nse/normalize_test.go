package nse

import (
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeEquity(t *testing.T) {
	records := []equityRecord{
		{
			Timestamp: "2023-01-02",
			Symbol:    "RELIANCE",
			Series:    "EQ",
			Open:      2500, High: 2550, Low: 2480,
			PrevClose: 2490, LTP: 2540, Close: 2541.5,
			VWAP:   2520.3,
			Volume: 1000000, Value: 2.5e9, Trades: 50000,
		},
		{Timestamp: "", Close: 100},           // missing date, dropped
		{Timestamp: "2023-01-03", Close: 0},   // missing close, dropped
		{Timestamp: "2023-01-04", Close: 200}, // empty series defaults to EQ
	}

	bars := normalizeEquity(records, "RELIANCE", "NSE", discardLogger())
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}

	b := bars[0]
	if b.Date.String() != "2023-01-02" {
		t.Errorf("date = %s", b.Date)
	}
	if b.Symbol != "RELIANCE" || b.Venue != "NSE" {
		t.Errorf("identity = %s@%s", b.Symbol, b.Venue)
	}
	if b.Close != 2541.5 || b.VWAP != 2520.3 || b.Volume != 1000000 {
		t.Errorf("unexpected values in %+v", b)
	}
	if bars[1].Series != DefaultSeries {
		t.Errorf("empty series should default to %s, got %q", DefaultSeries, bars[1].Series)
	}
}

func TestLooseFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`18200.45`, 18200.45},
		{`"18,200.45"`, 18200.45},
		{`"1,23,456.78"`, 123456.78}, // Indian digit grouping
		{`""`, 0},
		{`null`, 0},
		{`"-"`, 0},
	}
	for _, c := range cases {
		var f looseFloat
		if err := f.UnmarshalJSON([]byte(c.in)); err != nil {
			t.Errorf("UnmarshalJSON(%s): %v", c.in, err)
			continue
		}
		if float64(f) != c.want {
			t.Errorf("UnmarshalJSON(%s) = %v, want %v", c.in, float64(f), c.want)
		}
	}

	var f looseFloat
	if err := f.UnmarshalJSON([]byte(`"abc"`)); err == nil {
		t.Error("expected error for non-numeric string")
	}
}

func TestNormalizeIndexJoinsTurnover(t *testing.T) {
	resp := &indexHistoryResponse{}
	resp.Data.CloseRecords = []indexCloseRecord{
		{Timestamp: "02-Jan-2023", Open: 18100, High: 18250, Low: 18050, Close: 18200},
		{Timestamp: "03-Jan-2023", Open: 18200, High: 18300, Low: 18150, Close: 18250},
		{Timestamp: "04-Jan-2023", Close: 0}, // dropped
	}
	resp.Data.TurnoverRecords = []indexTurnoverRecord{
		{Timestamp: "02-Jan-2023", Volume: 350000000, Turnover: 2.1e11},
		// no turnover row for 03-Jan
	}

	bars := normalizeIndex(resp, "NIFTY 50", discardLogger())
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}

	if bars[0].Date.String() != "2023-01-02" {
		t.Errorf("date = %s", bars[0].Date)
	}
	if bars[0].Volume != 350000000 || bars[0].Turnover != 2.1e11 {
		t.Errorf("turnover join failed: %+v", bars[0])
	}
	if bars[1].Volume != 0 || bars[1].Turnover != 0 {
		t.Errorf("missing turnover row should leave zeros: %+v", bars[1])
	}
	if bars[0].Symbol != "NIFTY 50" {
		t.Errorf("symbol = %q", bars[0].Symbol)
	}
}
