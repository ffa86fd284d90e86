package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"nsesync/internal/dates"
	"nsesync/internal/nse"
	"nsesync/internal/store"
)

// Server serves the query store read-only. It never writes; the sync
// pipeline is the only writer.
type Server struct {
	prices store.PriceStore
	log    *slog.Logger
}

// NewServer creates a Server over the given query store.
func NewServer(prices store.PriceStore, log *slog.Logger) *Server {
	return &Server{
		prices: prices,
		log:    log.With("component", "httpapi"),
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/symbols", s.handleSymbols)
	mux.HandleFunc("GET /api/equity/{symbol}/bars", s.handleEquityBars)
	mux.HandleFunc("GET /api/index/{name}/bars", s.handleIndexBars)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	return corsMiddleware(mux)
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	var resp SymbolsResponse

	// Both legs are independent reads; fetch them concurrently.
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		equities, err := s.prices.ListEquitySymbols(ctx)
		resp.Equities = equities
		return err
	})
	g.Go(func() error {
		indexes, err := s.prices.ListIndexNames(ctx)
		resp.Indexes = indexes
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("listing symbols", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if resp.Equities == nil {
		resp.Equities = []string{}
	}
	if resp.Indexes == nil {
		resp.Indexes = []string{}
	}
	writeJSON(w, resp)
}

func (s *Server) handleEquityBars(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		http.Error(w, "symbol required", http.StatusBadRequest)
		return
	}
	venue := r.URL.Query().Get("venue")
	if venue == "" {
		venue = nse.Venue
	}

	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	bars, err := s.prices.EquityBars(r.Context(), symbol, venue, from, to)
	if err != nil {
		s.log.Error("reading equity bars", "symbol", symbol, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, EquityBarsResponse{
		Symbol: symbol,
		Venue:  venue,
		Bars:   toEquityJSON(bars),
		Count:  len(bars),
	})
}

func (s *Server) handleIndexBars(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "index name required", http.StatusBadRequest)
		return
	}

	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}

	bars, err := s.prices.IndexBars(r.Context(), name, from, to)
	if err != nil {
		s.log.Error("reading index bars", "index", name, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, IndexBarsResponse{
		Symbol: name,
		Bars:   toIndexJSON(bars),
		Count:  len(bars),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var resp SummaryResponse

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		sums, err := s.prices.EquitySummary(ctx)
		resp.Equities = toSummaryJSON(sums)
		return err
	})
	g.Go(func() error {
		sums, err := s.prices.IndexSummary(ctx)
		resp.Indexes = toSummaryJSON(sums)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("computing summary", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp)
}

// parseWindow reads the optional from/to query parameters. Defaults: the
// epoch of the pipeline's history through today.
func parseWindow(w http.ResponseWriter, r *http.Request) (from, to dates.Date, ok bool) {
	from = dates.New(1990, 1, 1)
	to = dates.Today()

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := dates.Parse(v)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return from, to, false
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := dates.Parse(v)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return from, to, false
		}
		to = parsed
	}
	return from, to, true
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing JSON response", "error", err)
	}
}
