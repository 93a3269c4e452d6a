// Package provider fetches daily OHLCV bars from external quote sources.
// Eastmoney covers exchange-traded funds on the Shanghai and Shenzhen
// exchanges; Alpaca covers US-listed symbols.
package provider

import (
	"context"

	"rotor/internal/domain"
)

// BarProvider fetches recent daily bars for a symbol.
type BarProvider interface {
	// Name identifies the provider in logs and error messages.
	Name() string

	// DailyBars returns up to limit most recent daily bars for the symbol,
	// oldest first, with timestamps normalized to UTC midnight.
	DailyBars(ctx context.Context, symbol string, limit int) ([]domain.Bar, error)
}
