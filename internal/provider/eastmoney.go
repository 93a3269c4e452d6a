package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rotor/internal/domain"
)

// Compile-time interface check.
var _ BarProvider = (*EastmoneyProvider)(nil)

const eastmoneyBaseURL = "https://push2his.eastmoney.com"

// EastmoneyProvider fetches daily kline data from the Eastmoney quote API.
// It serves the CN ETF universe; no API key is required.
type EastmoneyProvider struct {
	client  *http.Client
	baseURL string
}

// NewEastmoneyProvider creates an EastmoneyProvider with a default HTTP
// client.
func NewEastmoneyProvider() *EastmoneyProvider {
	return &EastmoneyProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: eastmoneyBaseURL,
	}
}

// Name implements BarProvider.
func (p *EastmoneyProvider) Name() string { return "eastmoney" }

// secID converts a symbol to the Eastmoney security id. Accepts bare 6-digit
// fund codes ("510300", "159915") and sh/sz-prefixed forms ("sh510300").
// Shanghai-listed funds start with 5, Shenzhen-listed with 1.
func secID(symbol string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(symbol))
	switch {
	case strings.HasPrefix(s, "sh"):
		return "1." + s[2:], nil
	case strings.HasPrefix(s, "sz"):
		return "0." + s[2:], nil
	case len(s) == 6:
		if strings.HasPrefix(s, "5") {
			return "1." + s, nil
		}
		return "0." + s, nil
	default:
		return "", fmt.Errorf("unrecognized symbol format: %s", symbol)
	}
}

// klineResponse is the subset of the Eastmoney kline payload we consume.
// Each kline entry is a comma-joined string:
// date,open,close,high,low,volume,turnover.
type klineResponse struct {
	Data struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// DailyBars implements BarProvider. It requests forward-adjusted daily
// klines (klt=101, fqt=1) and converts them to bars.
func (p *EastmoneyProvider) DailyBars(ctx context.Context, symbol string, limit int) ([]domain.Bar, error) {
	id, err := secID(symbol)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"%s/api/qt/stock/kline/get?secid=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56,f57&klt=101&fqt=1&end=20500101&lmt=%d",
		p.baseURL, id, limit,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Referer", "https://quote.eastmoney.com/")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eastmoney request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eastmoney request for %s: status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseKlines(symbol, body)
}

// parseKlines decodes an Eastmoney kline payload into bars, oldest first.
func parseKlines(symbol string, data []byte) ([]domain.Bar, error) {
	var result klineResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding klines for %s: %w", symbol, err)
	}

	var bars []domain.Bar
	for _, line := range result.Data.Klines {
		parts := strings.Split(line, ",")
		if len(parts) < 6 {
			continue
		}
		ts, err := time.ParseInLocation("2006-01-02", parts[0], time.UTC)
		if err != nil {
			continue
		}
		open, _ := strconv.ParseFloat(parts[1], 64)
		close, _ := strconv.ParseFloat(parts[2], 64)
		high, _ := strconv.ParseFloat(parts[3], 64)
		low, _ := strconv.ParseFloat(parts[4], 64)
		volume, _ := strconv.ParseInt(parts[5], 10, 64)

		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})
	}
	return bars, nil
}
