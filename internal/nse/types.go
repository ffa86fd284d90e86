package nse

import (
	"fmt"
	"strconv"
	"strings"
)

// Upstream response shapes. Each struct is the static mapping from the NSE
// field names to the canonical bar fields; normalize.go performs the typed,
// validated conversion.

// equityHistoryResponse wraps the historical equity endpoint payload.
type equityHistoryResponse struct {
	Data []equityRecord `json:"data"`
}

// equityRecord is one raw daily row from /api/historical/cm/equity.
type equityRecord struct {
	Timestamp string  `json:"CH_TIMESTAMP"` // YYYY-MM-DD
	Symbol    string  `json:"CH_SYMBOL"`
	Series    string  `json:"CH_SERIES"`
	Open      float64 `json:"CH_OPENING_PRICE"`
	High      float64 `json:"CH_TRADE_HIGH_PRICE"`
	Low       float64 `json:"CH_TRADE_LOW_PRICE"`
	PrevClose float64 `json:"CH_PREVIOUS_CLS_PRICE"`
	LTP       float64 `json:"CH_LAST_TRADED_PRICE"`
	Close     float64 `json:"CH_CLOSING_PRICE"`
	VWAP      float64 `json:"VWAP"`
	Volume    int64   `json:"CH_TOT_TRADED_QTY"`
	Value     float64 `json:"CH_TOT_TRADED_VAL"`
	Trades    int64   `json:"CH_TOTAL_TRADES"`
}

// indexHistoryResponse wraps the historical index endpoint payload. Close
// and turnover figures arrive in two parallel record lists joined on the
// trading day.
type indexHistoryResponse struct {
	Data struct {
		CloseRecords    []indexCloseRecord    `json:"indexCloseOnlineRecords"`
		TurnoverRecords []indexTurnoverRecord `json:"indexTurnoverRecords"`
	} `json:"data"`
}

// indexCloseRecord is one raw daily OHLC row for an index. The index
// endpoint renders numbers as strings with thousands separators.
type indexCloseRecord struct {
	Timestamp string     `json:"EOD_TIMESTAMP"` // DD-Mon-YYYY
	Index     string     `json:"EOD_INDEX_NAME"`
	Open      looseFloat `json:"EOD_OPEN_INDEX_VAL"`
	High      looseFloat `json:"EOD_HIGH_INDEX_VAL"`
	Low       looseFloat `json:"EOD_LOW_INDEX_VAL"`
	Close     looseFloat `json:"EOD_CLOSE_INDEX_VAL"`
}

// indexTurnoverRecord carries the traded quantity and turnover for one day.
type indexTurnoverRecord struct {
	Timestamp string     `json:"HIT_TIMESTAMP"` // DD-Mon-YYYY
	Volume    looseFloat `json:"HIT_TRADED_QTY"`
	Turnover  looseFloat `json:"HIT_TURN_OVER"`
}

// looseFloat accepts a JSON number, a numeric string, or a numeric string
// with comma thousands separators ("18,200.45"). Null and empty strings
// decode to zero.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "null" || s == "-" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing numeric value %q: %w", string(data), err)
	}
	*f = looseFloat(v)
	return nil
}
