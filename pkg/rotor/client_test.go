package rotor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientTrimsSlash(t *testing.T) {
	c := NewClient("http://localhost:8085/")
	if c.baseURL != "http://localhost:8085" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.httpClient == nil {
		t.Fatal("nil httpClient")
	}
}

func TestPools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pools" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"pools":[{"key":"default","name":"默认组合","instruments":[{"symbol":"510300","name":"300ETF"}]}]}`))
	}))
	defer srv.Close()

	pools, err := NewClient(srv.URL).Pools(context.Background())
	if err != nil {
		t.Fatalf("Pools: %v", err)
	}
	if len(pools) != 1 || pools[0].Key != "default" {
		t.Fatalf("pools = %+v", pools)
	}
	if pools[0].Instruments[0].Symbol != "510300" {
		t.Errorf("instrument = %+v", pools[0].Instruments[0])
	}
}

func TestSelectionQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("pool") != "scitech" || q.Get("momentum") != "25" || q.Get("ma") != "30" || q.Get("max") != "3" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"pool":"scitech","ranked":[],"selected":["510300"],"excluded":[],"params":{"momentumLookback":25,"maWindow":30,"maxPositions":3}}`))
	}))
	defer srv.Close()

	sel, err := NewClient(srv.URL).Selection(context.Background(), Query{
		Pool: "scitech", MomentumLookback: 25, MAWindow: 30, MaxPositions: 3,
	})
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if sel.Params.MomentumLookback != 25 || len(sel.Selected) != 1 {
		t.Errorf("selection = %+v", sel)
	}
}

func TestBacktestInsufficientDataError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"kind":"insufficient_data","error":"cannot backtest","instruments":1,"excluded":[{"symbol":"511090","reason":"no data"}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Backtest(context.Background(), Query{Pool: "default"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsInsufficientData(err) {
		t.Fatalf("IsInsufficientData(%v) = false", err)
	}
	apiErr := err.(*APIError)
	if apiErr.StatusCode != http.StatusUnprocessableEntity || apiErr.Instruments != 1 {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if len(apiErr.Excluded) != 1 || apiErr.Excluded[0].Symbol != "511090" {
		t.Errorf("excluded = %+v", apiErr.Excluded)
	}
}

func TestBiasAndHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			w.Write([]byte(`{"status":"ok"}`))
		case "/api/bias":
			w.Write([]byte(`{"pool":"default","rows":[{"symbol":"510300","name":"300ETF","date":"2024-06-03","close":3.52,"bias":{"6":1.2,"12":2.5,"24":4.1},"trend":"strong_up","verdict":"normal"}],"excluded":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}

	table, err := c.Bias(context.Background(), "default")
	if err != nil {
		t.Fatalf("Bias: %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0].Trend != "strong_up" {
		t.Errorf("bias table = %+v", table)
	}
	if table.Rows[0].Bias["12"] != 2.5 {
		t.Errorf("bias windows = %v", table.Rows[0].Bias)
	}
}
