// Package nsesync provides a Go SDK for the nse-server HTTP API.
package nsesync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running nse-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Symbols lists every equity symbol and index name in the store.
type Symbols struct {
	Equities []string `json:"equities"`
	Indexes  []string `json:"indexes"`
}

// EquityBar is one equity's daily trading data.
type EquityBar struct {
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

// EquityBars is the history payload for one equity.
type EquityBars struct {
	Symbol string      `json:"symbol"`
	Venue  string      `json:"venue"`
	Bars   []EquityBar `json:"bars"`
	Count  int         `json:"count"`
}

// IndexBar is one index's daily trading data.
type IndexBar struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	Turnover float64 `json:"turnover"`
}

// IndexBars is the history payload for one index.
type IndexBars struct {
	Symbol string     `json:"symbol"`
	Bars   []IndexBar `json:"bars"`
	Count  int        `json:"count"`
}

// GetSymbols retrieves the full symbol universe.
func (c *Client) GetSymbols(ctx context.Context) (*Symbols, error) {
	var out Symbols
	if err := c.get(ctx, "/api/symbols", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEquityBars retrieves daily bars for an equity symbol. from and to are
// optional "YYYY-MM-DD" bounds; empty means unbounded.
func (c *Client) GetEquityBars(ctx context.Context, symbol, from, to string) (*EquityBars, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	var out EquityBars
	path := "/api/equity/" + url.PathEscape(symbol) + "/bars"
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetIndexBars retrieves daily bars for an index by name.
func (c *Client) GetIndexBars(ctx context.Context, name, from, to string) (*IndexBars, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	var out IndexBars
	path := "/api/index/" + url.PathEscape(name) + "/bars"
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", path, err)
	}
	return nil
}
