// Package nse fetches daily equity and index history from the NSE public
// endpoints and normalizes the responses into canonical bars.
package nse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	"nsesync/internal/dates"
	"nsesync/internal/domain"
)

// DefaultSeries is the equity series synchronized by this pipeline.
const DefaultSeries = "EQ"

// Venue is the exchange identity attached to every equity bar.
const Venue = "NSE"

// Client retrieves daily history for one instrument over one date range.
// Implementations must return a *TransientError for retryable failures and a
// *PermanentError for failures that retrying cannot fix.
type Client interface {
	EquityHistory(ctx context.Context, symbol string, from, to dates.Date) ([]domain.EquityBar, error)
	IndexHistory(ctx context.Context, name string, from, to dates.Date) ([]domain.IndexBar, error)
}

// HTTPClient is the real Client against the NSE endpoints. The site rejects
// requests without a browser User-Agent and a session cookie, so the client
// performs a warm-up request against the base URL before the first fetch.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	log     *slog.Logger
	warmed  bool
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient for the given base URL with the given
// request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, log *slog.Logger) *HTTPClient {
	jar, _ := cookiejar.New(nil)
	return &HTTPClient{
		baseURL: baseURL,
		hc: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		log: log.With("component", "nse"),
	}
}

// EquityHistory fetches daily equity bars for [from, to].
func (c *HTTPClient) EquityHistory(ctx context.Context, symbol string, from, to dates.Date) ([]domain.EquityBar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("series", `["`+DefaultSeries+`"]`)
	q.Set("from", from.Time().Format("02-01-2006"))
	q.Set("to", to.Time().Format("02-01-2006"))

	op := fmt.Sprintf("equity history %s %s..%s", symbol, from, to)
	body, err := c.get(ctx, "/api/historical/cm/equity", q, op)
	if err != nil {
		return nil, err
	}

	var resp equityHistoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &PermanentError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	// An empty but well-formed payload is zero rows (holidays, pre-listing
	// gaps), not a failure.
	return normalizeEquity(resp.Data, symbol, Venue, c.log), nil
}

// IndexHistory fetches daily index bars for [from, to].
func (c *HTTPClient) IndexHistory(ctx context.Context, name string, from, to dates.Date) ([]domain.IndexBar, error) {
	q := url.Values{}
	q.Set("indexType", name)
	q.Set("from", from.Time().Format("02-01-2006"))
	q.Set("to", to.Time().Format("02-01-2006"))

	op := fmt.Sprintf("index history %s %s..%s", name, from, to)
	body, err := c.get(ctx, "/api/historical/indicesHistory", q, op)
	if err != nil {
		return nil, err
	}

	var resp indexHistoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &PermanentError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return normalizeIndex(&resp, name, c.log), nil
}

// get performs one GET against the API, classifying failures into the fetch
// error taxonomy.
func (c *HTTPClient) get(ctx context.Context, path string, q url.Values, op string) ([]byte, error) {
	if err := c.warmup(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &PermanentError{Op: op, Err: err}
	}
	setBrowserHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, classifyTransportErr(op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &TransientError{Op: op, Err: fmt.Errorf("upstream status %d", resp.StatusCode)}
	default:
		return nil, &PermanentError{Op: op, Err: fmt.Errorf("upstream status %d", resp.StatusCode)}
	}

	// Five years of daily rows fits well under this cap.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, &TransientError{Op: op, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

// warmup hits the site root once to obtain the session cookies the API
// endpoints require.
func (c *HTTPClient) warmup(ctx context.Context) error {
	if c.warmed {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return &PermanentError{Op: "session warmup", Err: err}
	}
	setBrowserHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return classifyTransportErr("session warmup", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &TransientError{Op: "session warmup", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	c.warmed = true
	c.log.Debug("session established")
	return nil
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

// classifyTransportErr maps transport-level failures: timeouts and temporary
// network errors are transient, everything else permanent.
func classifyTransportErr(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransientError{Op: op, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return &TransientError{Op: op, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &TransientError{Op: op, Err: err}
	}
	return &PermanentError{Op: op, Err: err}
}

