// Package httpapi serves the query store to the external visualization
// layer as a read-only JSON API.
package httpapi

import (
	"nsesync/internal/domain"
	"nsesync/internal/store"
)

// SymbolsResponse lists every instrument with rows in the query store.
type SymbolsResponse struct {
	Equities []string `json:"equities"`
	Indexes  []string `json:"indexes"`
}

// EquityBarsResponse is the history payload for one equity.
type EquityBarsResponse struct {
	Symbol string          `json:"symbol"`
	Venue  string          `json:"venue"`
	Bars   []EquityBarJSON `json:"bars"`
	Count  int             `json:"count"`
}

// EquityBarJSON is the JSON representation of one equity bar.
type EquityBarJSON struct {
	Date      string  `json:"date"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	PrevClose float64 `json:"prevClose"`
	LTP       float64 `json:"ltp"`
	Close     float64 `json:"close"`
	VWAP      float64 `json:"vwap"`
	Volume    int64   `json:"volume"`
	Value     float64 `json:"value"`
	Trades    int64   `json:"trades"`
}

// IndexBarsResponse is the history payload for one index.
type IndexBarsResponse struct {
	Symbol string         `json:"symbol"`
	Bars   []IndexBarJSON `json:"bars"`
	Count  int            `json:"count"`
}

// IndexBarJSON is the JSON representation of one index bar.
type IndexBarJSON struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	Turnover float64 `json:"turnover"`
}

// SummaryResponse reports the stored coverage per instrument.
type SummaryResponse struct {
	Equities []SeriesSummaryJSON `json:"equities"`
	Indexes  []SeriesSummaryJSON `json:"indexes"`
}

// SeriesSummaryJSON is the coverage of one instrument's series.
type SeriesSummaryJSON struct {
	Symbol string `json:"symbol"`
	Venue  string `json:"venue,omitempty"`
	Rows   int64  `json:"rows"`
	First  string `json:"first"`
	Last   string `json:"last"`
}

func toSummaryJSON(sums []store.SeriesSummary) []SeriesSummaryJSON {
	out := make([]SeriesSummaryJSON, len(sums))
	for i, s := range sums {
		out[i] = SeriesSummaryJSON{
			Symbol: s.Symbol,
			Venue:  s.Venue,
			Rows:   s.Rows,
			First:  s.First.String(),
			Last:   s.Last.String(),
		}
	}
	return out
}

func toEquityJSON(bars []domain.EquityBar) []EquityBarJSON {
	out := make([]EquityBarJSON, len(bars))
	for i, b := range bars {
		out[i] = EquityBarJSON{
			Date:      b.Date.String(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			PrevClose: b.PrevClose,
			LTP:       b.LTP,
			Close:     b.Close,
			VWAP:      b.VWAP,
			Volume:    b.Volume,
			Value:     b.Value,
			Trades:    b.Trades,
		}
	}
	return out
}

func toIndexJSON(bars []domain.IndexBar) []IndexBarJSON {
	out := make([]IndexBarJSON, len(bars))
	for i, b := range bars {
		out[i] = IndexBarJSON{
			Date:     b.Date.String(),
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			Volume:   b.Volume,
			Turnover: b.Turnover,
		}
	}
	return out
}
