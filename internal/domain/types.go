// Package domain defines the core data types shared across the
// synchronization pipeline: instruments, daily bars, and run outcomes.
package domain

import (
	"fmt"

	"nsesync/internal/dates"
)

// Category distinguishes the two kinds of tracked instruments.
type Category string

const (
	CategoryEquity Category = "equity"
	CategoryIndex  Category = "index"
)

// Instrument is a tracked equity or index from the universe catalog.
type Instrument struct {
	Symbol   string
	Venue    string // exchange; empty for indices
	Category Category
	Name     string
	Industry string // equities: sector classification
	ISIN     string // equities: security identifier
	Type     string // indices: index type (broad, sectoral, ...)
}

// Key returns the instrument's identity key: "SYMBOL@VENUE" for equities,
// the bare symbol for indices.
func (i Instrument) Key() string {
	if i.Category == CategoryEquity && i.Venue != "" {
		return fmt.Sprintf("%s@%s", i.Symbol, i.Venue)
	}
	return i.Symbol
}

// EquityBar is one equity's trading data for one calendar date.
type EquityBar struct {
	Date      dates.Date `csv:"date"`
	Symbol    string     `csv:"symbol"`
	Venue     string     `csv:"venue"`
	Series    string     `csv:"series"`
	Open      float64    `csv:"open"`
	High      float64    `csv:"high"`
	Low       float64    `csv:"low"`
	PrevClose float64    `csv:"prev_close"`
	LTP       float64    `csv:"ltp"`
	Close     float64    `csv:"close"`
	VWAP      float64    `csv:"vwap"`
	Volume    int64      `csv:"volume"`
	Value     float64    `csv:"value"`
	Trades    int64      `csv:"trades"`
}

// Day returns the bar's calendar date. It satisfies the Bar constraint used
// by the staging merge.
func (b EquityBar) Day() dates.Date { return b.Date }

// IndexBar is one index's trading data for one calendar date.
type IndexBar struct {
	Date     dates.Date `csv:"date"`
	Symbol   string     `csv:"symbol"`
	Open     float64    `csv:"open"`
	High     float64    `csv:"high"`
	Low      float64    `csv:"low"`
	Close    float64    `csv:"close"`
	Volume   int64      `csv:"volume"`
	Turnover float64    `csv:"turnover"`
}

// Day returns the bar's calendar date.
func (b IndexBar) Day() dates.Date { return b.Date }

// Bar is the constraint satisfied by both bar kinds. Staging stores and the
// merge helpers are generic over it.
type Bar interface {
	EquityBar | IndexBar
	Day() dates.Date
}
