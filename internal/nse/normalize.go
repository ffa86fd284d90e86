package nse

import (
	"fmt"
	"log/slog"

	"nsesync/internal/dates"
	"nsesync/internal/domain"
)

// Timestamp layouts seen across the NSE endpoints.
const (
	equityDateLayout = "2006-01-02"
	indexDateLayout  = "02-Jan-2006"
)

// normalizeEquity converts raw equity records into canonical bars. A record
// missing a mandatory field (date or close) is dropped with a warning rather
// than failing the chunk. Venue is the fixed exchange of this client.
func normalizeEquity(records []equityRecord, symbol, venue string, log *slog.Logger) []domain.EquityBar {
	bars := make([]domain.EquityBar, 0, len(records))
	for _, r := range records {
		day, err := parseDay(r.Timestamp, equityDateLayout)
		if err != nil {
			log.Warn("dropping equity record", "symbol", symbol, "reason", err)
			continue
		}
		if r.Close == 0 {
			log.Warn("dropping equity record", "symbol", symbol, "date", day, "reason", "missing close")
			continue
		}
		series := r.Series
		if series == "" {
			series = DefaultSeries
		}
		bars = append(bars, domain.EquityBar{
			Date:      day,
			Symbol:    symbol,
			Venue:     venue,
			Series:    series,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			PrevClose: r.PrevClose,
			LTP:       r.LTP,
			Close:     r.Close,
			VWAP:      r.VWAP,
			Volume:    r.Volume,
			Value:     r.Value,
			Trades:    r.Trades,
		})
	}
	return bars
}

// normalizeIndex joins the OHLC and turnover record lists on the trading day
// and converts them into canonical index bars. Days without a close record
// are dropped; a missing turnover row leaves volume and turnover at zero.
func normalizeIndex(resp *indexHistoryResponse, name string, log *slog.Logger) []domain.IndexBar {
	turnover := make(map[dates.Date]indexTurnoverRecord, len(resp.Data.TurnoverRecords))
	for _, t := range resp.Data.TurnoverRecords {
		day, err := parseDay(t.Timestamp, indexDateLayout)
		if err != nil {
			continue
		}
		turnover[day] = t
	}

	bars := make([]domain.IndexBar, 0, len(resp.Data.CloseRecords))
	for _, r := range resp.Data.CloseRecords {
		day, err := parseDay(r.Timestamp, indexDateLayout)
		if err != nil {
			log.Warn("dropping index record", "index", name, "reason", err)
			continue
		}
		if r.Close == 0 {
			log.Warn("dropping index record", "index", name, "date", day, "reason", "missing close")
			continue
		}
		bar := domain.IndexBar{
			Date:   day,
			Symbol: name,
			Open:   float64(r.Open),
			High:   float64(r.High),
			Low:    float64(r.Low),
			Close:  float64(r.Close),
		}
		if t, ok := turnover[day]; ok {
			bar.Volume = int64(t.Volume)
			bar.Turnover = float64(t.Turnover)
		}
		bars = append(bars, bar)
	}
	return bars
}

func parseDay(s, layout string) (dates.Date, error) {
	if s == "" {
		return dates.Date{}, fmt.Errorf("missing timestamp")
	}
	t, err := dates.ParseLayout(s, layout)
	if err != nil {
		return dates.Date{}, fmt.Errorf("bad timestamp %q", s)
	}
	return t, nil
}
