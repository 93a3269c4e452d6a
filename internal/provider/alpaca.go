package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"rotor/internal/domain"
)

// Compile-time interface check.
var _ BarProvider = (*AlpacaProvider)(nil)

// AlpacaProvider fetches daily bars from the Alpaca market-data API. It
// serves US-listed symbols and requires API credentials.
type AlpacaProvider struct {
	client *marketdata.Client
}

// NewAlpacaProvider creates an AlpacaProvider with the given credentials.
// dataURL overrides the default market-data endpoint when non-empty.
func NewAlpacaProvider(apiKey, apiSecret, dataURL string) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaProvider{client: marketdata.NewClient(opts)}
}

// Name implements BarProvider.
func (p *AlpacaProvider) Name() string { return "alpaca" }

// DailyBars implements BarProvider. The lookback window is sized generously
// so that limit trading days fit inside it despite weekends and holidays.
func (p *AlpacaProvider) DailyBars(_ context.Context, symbol string, limit int) ([]domain.Bar, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -limit*2-14)

	alpacaBars, err := p.client.GetBars(strings.ToUpper(symbol), marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca GetBars %s: %w", symbol, err)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		ts := ab.Timestamp.UTC()
		ts = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		bars = append(bars, domain.Bar{
			Symbol:    strings.ToUpper(symbol),
			Timestamp: ts,
			Open:      ab.Open,
			High:      ab.High,
			Low:       ab.Low,
			Close:     ab.Close,
			Volume:    int64(ab.Volume),
		})
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}
