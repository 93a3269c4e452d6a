// Package httpapi exposes the rotation engine over an HTTP REST API: pool
// listing, daily selection, historical backtests, and the bias monitor.
package httpapi

// InstrumentJSON is one pool member.
type InstrumentJSON struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// PoolJSON is the JSON representation of an instrument pool.
type PoolJSON struct {
	Key         string           `json:"key"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Instruments []InstrumentJSON `json:"instruments"`
}

// PoolsResponse lists the configured pools.
type PoolsResponse struct {
	Pools []PoolJSON `json:"pools"`
}

// CandidateJSON is one ranked instrument in a selection response.
type CandidateJSON struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Close         float64 `json:"close"`
	MovingAverage float64 `json:"movingAverage"`
	Momentum      float64 `json:"momentum"`
	AboveTrend    bool    `json:"aboveTrend"`
	Selected      bool    `json:"selected"`
}

// ExclusionJSON records an instrument dropped from an evaluation.
type ExclusionJSON struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// SelectionResponse is the result of evaluating the rotation rule on the
// latest data.
type SelectionResponse struct {
	Pool     string          `json:"pool"`
	Date     string          `json:"date,omitempty"`
	Ranked   []CandidateJSON `json:"ranked"`
	Selected []string        `json:"selected"`
	Excluded []ExclusionJSON `json:"excluded"`
	Params   ParamsJSON      `json:"params"`
}

// ParamsJSON echoes the strategy parameters a response was computed with.
type ParamsJSON struct {
	MomentumLookback int `json:"momentumLookback"`
	MAWindow         int `json:"maWindow"`
	MaxPositions     int `json:"maxPositions"`
}

// TradeJSON is one buy or sell in a backtest.
type TradeJSON struct {
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
	Name   string  `json:"name,omitempty"`
	Action string  `json:"action"`
	Price  float64 `json:"price"`
}

// HoldingJSON is the basket held at one date's close.
type HoldingJSON struct {
	Date    string   `json:"date"`
	Symbols []string `json:"symbols"`
	Count   int      `json:"count"`
}

// BacktestResponse is a completed simulation.
type BacktestResponse struct {
	Pool         string          `json:"pool"`
	Dates        []string        `json:"dates"`
	Values       []float64       `json:"values"`
	TotalReturn  float64         `json:"totalReturn"`
	AnnualReturn float64         `json:"annualReturn"`
	MaxDrawdown  float64         `json:"maxDrawdown"`
	SharpeRatio  float64         `json:"sharpeRatio"`
	TradeCount   int             `json:"tradeCount"`
	Trades       []TradeJSON     `json:"trades"`
	Holdings     []HoldingJSON   `json:"holdings"`
	Excluded     []ExclusionJSON `json:"excluded"`
	Params       ParamsJSON      `json:"params"`
}

// BiasRowJSON is one instrument's bias readings.
type BiasRowJSON struct {
	Symbol       string             `json:"symbol"`
	Name         string             `json:"name"`
	Date         string             `json:"date"`
	Close        float64            `json:"close"`
	Bias         map[string]float64 `json:"bias"` // period → percent, NaN omitted
	Trend        string             `json:"trend"`
	Verdict      string             `json:"verdict"`
	DynamicUpper float64            `json:"dynamicUpper"`
	DynamicLower float64            `json:"dynamicLower"`
}

// BiasResponse is the bias monitor table for a pool.
type BiasResponse struct {
	Pool     string          `json:"pool"`
	Rows     []BiasRowJSON   `json:"rows"`
	Excluded []ExclusionJSON `json:"excluded"`
}

// ErrorResponse is the body of every non-2xx reply. Kind is
// "insufficient_data" for expected thin-data failures, "bad_request" for
// malformed parameters, and "internal" otherwise.
type ErrorResponse struct {
	Kind        string          `json:"kind"`
	Error       string          `json:"error"`
	Instruments int             `json:"instruments,omitempty"`
	Calendar    int             `json:"calendar,omitempty"`
	Excluded    []ExclusionJSON `json:"excluded,omitempty"`
}
