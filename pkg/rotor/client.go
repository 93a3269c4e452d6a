// Package rotor provides a Go SDK for the rotor-server HTTP API.
package rotor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a rotor-server instance.
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

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

// Instrument is one pool member.
type Instrument struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Pool is a named instrument universe.
type Pool struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Instruments []Instrument `json:"instruments"`
}

// Candidate is one ranked instrument in a selection.
type Candidate struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Close         float64 `json:"close"`
	MovingAverage float64 `json:"movingAverage"`
	Momentum      float64 `json:"momentum"`
	AboveTrend    bool    `json:"aboveTrend"`
	Selected      bool    `json:"selected"`
}

// Exclusion records an instrument dropped from an evaluation.
type Exclusion struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Params echoes the strategy parameters a response was computed with.
type Params struct {
	MomentumLookback int `json:"momentumLookback"`
	MAWindow         int `json:"maWindow"`
	MaxPositions     int `json:"maxPositions"`
}

// Selection is a point-in-time evaluation of the rotation rule.
type Selection struct {
	Pool     string      `json:"pool"`
	Date     string      `json:"date,omitempty"`
	Ranked   []Candidate `json:"ranked"`
	Selected []string    `json:"selected"`
	Excluded []Exclusion `json:"excluded"`
	Params   Params      `json:"params"`
}

// Trade is one buy or sell in a backtest.
type Trade struct {
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
	Name   string  `json:"name,omitempty"`
	Action string  `json:"action"`
	Price  float64 `json:"price"`
}

// Holding is the basket held at one date's close.
type Holding struct {
	Date    string   `json:"date"`
	Symbols []string `json:"symbols"`
	Count   int      `json:"count"`
}

// Backtest is a completed simulation.
type Backtest struct {
	Pool         string      `json:"pool"`
	Dates        []string    `json:"dates"`
	Values       []float64   `json:"values"`
	TotalReturn  float64     `json:"totalReturn"`
	AnnualReturn float64     `json:"annualReturn"`
	MaxDrawdown  float64     `json:"maxDrawdown"`
	SharpeRatio  float64     `json:"sharpeRatio"`
	TradeCount   int         `json:"tradeCount"`
	Trades       []Trade     `json:"trades"`
	Holdings     []Holding   `json:"holdings"`
	Excluded     []Exclusion `json:"excluded"`
	Params       Params      `json:"params"`
}

// BiasRow is one instrument's bias readings.
type BiasRow struct {
	Symbol       string             `json:"symbol"`
	Name         string             `json:"name"`
	Date         string             `json:"date"`
	Close        float64            `json:"close"`
	Bias         map[string]float64 `json:"bias"`
	Trend        string             `json:"trend"`
	Verdict      string             `json:"verdict"`
	DynamicUpper float64            `json:"dynamicUpper"`
	DynamicLower float64            `json:"dynamicLower"`
}

// BiasTable is the bias monitor output for a pool.
type BiasTable struct {
	Pool     string      `json:"pool"`
	Rows     []BiasRow   `json:"rows"`
	Excluded []Exclusion `json:"excluded"`
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode  int
	Kind        string      `json:"kind"`
	Message     string      `json:"error"`
	Instruments int         `json:"instruments,omitempty"`
	Calendar    int         `json:"calendar,omitempty"`
	Excluded    []Exclusion `json:"excluded,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rotor api: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

// IsInsufficientData reports whether err is the server declining a backtest
// for lack of usable data.
func IsInsufficientData(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Kind == "insufficient_data"
}

// ---------------------------------------------------------------------------
// Request options
// ---------------------------------------------------------------------------

// Query customizes a selection or backtest request.
type Query struct {
	Pool             string
	MomentumLookback int
	MAWindow         int
	MaxPositions     int
	Start            string // YYYY-MM-DD, backtest only
	End              string // YYYY-MM-DD, backtest only
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Pool != "" {
		v.Set("pool", q.Pool)
	}
	if q.MomentumLookback > 0 {
		v.Set("momentum", strconv.Itoa(q.MomentumLookback))
	}
	if q.MAWindow > 0 {
		v.Set("ma", strconv.Itoa(q.MAWindow))
	}
	if q.MaxPositions > 0 {
		v.Set("max", strconv.Itoa(q.MaxPositions))
	}
	if q.Start != "" {
		v.Set("start", q.Start)
	}
	if q.End != "" {
		v.Set("end", q.End)
	}
	return v
}

// ---------------------------------------------------------------------------
// Methods
// ---------------------------------------------------------------------------

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.get(ctx, "/healthz", nil, &out)
}

// Pools lists the configured instrument pools.
func (c *Client) Pools(ctx context.Context) ([]Pool, error) {
	var out struct {
		Pools []Pool `json:"pools"`
	}
	if err := c.get(ctx, "/api/pools", nil, &out); err != nil {
		return nil, err
	}
	return out.Pools, nil
}

// Pool fetches a single pool by key.
func (c *Client) Pool(ctx context.Context, key string) (*Pool, error) {
	var out Pool
	if err := c.get(ctx, "/api/pools/"+url.PathEscape(key), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Selection evaluates the rotation rule on the latest data.
func (c *Client) Selection(ctx context.Context, q Query) (*Selection, error) {
	var out Selection
	if err := c.get(ctx, "/api/selection", q.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Backtest runs a historical simulation.
func (c *Client) Backtest(ctx context.Context, q Query) (*Backtest, error) {
	var out Backtest
	if err := c.get(ctx, "/api/backtest", q.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bias fetches the bias monitor table for a pool.
func (c *Client) Bias(ctx context.Context, pool string) (*BiasTable, error) {
	v := url.Values{}
	if pool != "" {
		v.Set("pool", pool)
	}
	var out BiasTable
	if err := c.get(ctx, "/api/bias", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Kind: "internal"}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = resp.Status
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
