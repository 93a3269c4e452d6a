package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"rotor/internal/backtest"
	"rotor/internal/domain"
	"rotor/internal/strategy"
	"rotor/internal/universe"
)

const dateLayout = "2006-01-02"

// Server serves the rotation API.
type Server struct {
	selector  *strategy.Selector
	simulator *backtest.Simulator
	defaults  strategy.Params
	log       *slog.Logger
}

// NewServer creates a Server. defaults supplies the strategy parameters used
// when a request does not override them.
func NewServer(selector *strategy.Selector, simulator *backtest.Simulator, defaults strategy.Params, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		selector:  selector,
		simulator: simulator,
		defaults:  defaults,
		log:       log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/pools", s.handlePools)
	mux.HandleFunc("GET /api/pools/{key}", s.handlePool)
	mux.HandleFunc("GET /api/selection", s.handleSelection)
	mux.HandleFunc("GET /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/bias", s.handleBias)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
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
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Kind: kind, Error: msg})
}

// ---------------------------------------------------------------------------
// Request parsing
// ---------------------------------------------------------------------------

// poolFromQuery resolves the "pool" query param, defaulting to the default
// pool.
func poolFromQuery(r *http.Request) (universe.Pool, bool) {
	key := r.URL.Query().Get("pool")
	if key == "" {
		key = universe.DefaultPoolKey
	}
	return universe.ByKey(key)
}

// intQuery parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func intQuery(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// paramsFromQuery builds strategy parameters from the request, starting from
// the server defaults.
func (s *Server) paramsFromQuery(r *http.Request) strategy.Params {
	p := s.defaults
	p.MomentumLookback = intQuery(r, "momentum", p.MomentumLookback)
	p.MAWindow = intQuery(r, "ma", p.MAWindow)
	p.MaxPositions = intQuery(r, "max", p.MaxPositions)
	return p
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	pools := universe.Pools()
	resp := PoolsResponse{Pools: make([]PoolJSON, 0, len(pools))}
	for _, p := range pools {
		resp.Pools = append(resp.Pools, convertPool(p))
	}
	writeJSON(w, resp)
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	pool, ok := universe.ByKey(r.PathValue("key"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown pool "+r.PathValue("key"))
		return
	}
	writeJSON(w, convertPool(pool))
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	pool, ok := poolFromQuery(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown pool "+r.URL.Query().Get("pool"))
		return
	}
	p := s.paramsFromQuery(r)

	sel, err := s.selector.Evaluate(r.Context(), pool, p)
	if err != nil {
		s.log.Error("selection failed", "pool", pool.Key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "selection failed")
		return
	}

	writeJSON(w, convertSelection(pool.Key, sel, p))
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	pool, ok := poolFromQuery(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown pool "+r.URL.Query().Get("pool"))
		return
	}

	bp := backtest.Params{Params: s.paramsFromQuery(r)}
	var err error
	if bp.Start, err = dateQuery(r, "start"); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if bp.End, err = dateQuery(r, "end"); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	res, err := s.simulator.Run(r.Context(), pool, bp)
	if err != nil {
		var ide *backtest.InsufficientDataError
		if errors.As(err, &ide) {
			resp := ErrorResponse{
				Kind:        "insufficient_data",
				Error:       ide.Error(),
				Instruments: ide.Instruments,
				Calendar:    ide.Calendar,
				Excluded:    convertExclusions(ide.Excluded),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(resp)
			return
		}
		s.log.Error("backtest failed", "pool", pool.Key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "backtest failed")
		return
	}

	writeJSON(w, convertBacktest(pool.Key, res, bp.Params))
}

func (s *Server) handleBias(w http.ResponseWriter, r *http.Request) {
	pool, ok := poolFromQuery(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown pool "+r.URL.Query().Get("pool"))
		return
	}
	periods := s.defaults.BiasPeriods
	if len(periods) < 3 {
		periods = strategy.DefaultParams().BiasPeriods
	}

	rows, excluded := s.selector.BiasTable(r.Context(), pool, periods)
	resp := BiasResponse{
		Pool:     pool.Key,
		Rows:     make([]BiasRowJSON, 0, len(rows)),
		Excluded: convertExclusions(excluded),
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, convertBiasRow(row))
	}
	writeJSON(w, resp)
}

// dateQuery parses an optional YYYY-MM-DD query parameter; absent means the
// zero time (unbounded).
func dateQuery(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q, want YYYY-MM-DD", name, v)
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

func convertPool(p universe.Pool) PoolJSON {
	out := PoolJSON{
		Key:         p.Key,
		Name:        p.Name,
		Description: p.Description,
		Instruments: make([]InstrumentJSON, 0, len(p.Instruments)),
	}
	for _, inst := range p.Instruments {
		out.Instruments = append(out.Instruments, InstrumentJSON{Symbol: inst.Symbol, Name: inst.Name})
	}
	return out
}

func convertExclusions(in []domain.Exclusion) []ExclusionJSON {
	out := make([]ExclusionJSON, 0, len(in))
	for _, e := range in {
		out = append(out, ExclusionJSON{Symbol: e.Symbol, Reason: e.Reason})
	}
	return out
}

func convertParams(p strategy.Params) ParamsJSON {
	return ParamsJSON{
		MomentumLookback: p.MomentumLookback,
		MAWindow:         p.MAWindow,
		MaxPositions:     p.MaxPositions,
	}
}

func convertSelection(pool string, sel domain.SelectionResult, p strategy.Params) SelectionResponse {
	selected := make(map[string]bool, len(sel.Selected))
	for _, c := range sel.Selected {
		selected[c.Symbol] = true
	}

	resp := SelectionResponse{
		Pool:     pool,
		Ranked:   make([]CandidateJSON, 0, len(sel.Ranked)),
		Selected: make([]string, 0, len(sel.Selected)),
		Excluded: convertExclusions(sel.Excluded),
		Params:   convertParams(p),
	}
	if !sel.Date.IsZero() {
		resp.Date = sel.Date.Format(dateLayout)
	}
	for _, c := range sel.Ranked {
		resp.Ranked = append(resp.Ranked, CandidateJSON{
			Symbol:        c.Symbol,
			Name:          c.DisplayName,
			Close:         c.Close,
			MovingAverage: c.MovingAverage,
			Momentum:      c.Momentum,
			AboveTrend:    c.AboveTrend,
			Selected:      selected[c.Symbol],
		})
	}
	for _, c := range sel.Selected {
		resp.Selected = append(resp.Selected, c.Symbol)
	}
	return resp
}

func convertBacktest(pool string, res *domain.BacktestResult, p strategy.Params) BacktestResponse {
	resp := BacktestResponse{
		Pool:         pool,
		Dates:        make([]string, 0, len(res.Dates)),
		Values:       res.Values,
		TotalReturn:  res.TotalReturn,
		AnnualReturn: res.AnnualReturn,
		MaxDrawdown:  res.MaxDrawdown,
		SharpeRatio:  res.SharpeRatio,
		TradeCount:   res.TradeCount,
		Trades:       make([]TradeJSON, 0, len(res.Trades)),
		Holdings:     make([]HoldingJSON, 0, len(res.Holdings)),
		Excluded:     convertExclusions(res.Excluded),
		Params:       convertParams(p),
	}
	for _, d := range res.Dates {
		resp.Dates = append(resp.Dates, d.Format(dateLayout))
	}
	for _, t := range res.Trades {
		resp.Trades = append(resp.Trades, TradeJSON{
			Date:   t.Date.Format(dateLayout),
			Symbol: t.Symbol,
			Name:   t.DisplayName,
			Action: string(t.Action),
			Price:  t.Price,
		})
	}
	for _, h := range res.Holdings {
		resp.Holdings = append(resp.Holdings, HoldingJSON{
			Date:    h.Date.Format(dateLayout),
			Symbols: h.Symbols,
			Count:   h.Count,
		})
	}
	return resp
}

func convertBiasRow(row strategy.BiasRow) BiasRowJSON {
	out := BiasRowJSON{
		Symbol:       row.Symbol,
		Name:         row.DisplayName,
		Date:         row.Date.Format(dateLayout),
		Close:        row.Close,
		Bias:         make(map[string]float64, len(row.Bias)),
		Trend:        string(row.Trend),
		Verdict:      string(row.Verdict),
		DynamicUpper: row.DynamicUpper,
		DynamicLower: row.DynamicLower,
	}
	for period, v := range row.Bias {
		if domain.Undefined(v) {
			continue
		}
		out.Bias[strconv.Itoa(period)] = v
	}
	return out
}
