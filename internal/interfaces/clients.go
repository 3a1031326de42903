// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"
	"time"

	"github.com/tmcfarlane/folio/internal/models"
)

// MarketDataClient provides end-of-day price data and symbol lists.
type MarketDataClient interface {
	// GetDailyRange retrieves the traded low/high for a ticker on a date.
	GetDailyRange(ctx context.Context, ticker, date string) (*models.DailyRange, error)

	// GetEOD retrieves end-of-day bars
	GetEOD(ctx context.Context, ticker string, opts ...EODOption) ([]models.EODBar, error)

	// GetExchangeSymbols retrieves all symbols for an exchange
	GetExchangeSymbols(ctx context.Context, exchange string) ([]*models.Symbol, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From   time.Time
	To     time.Time
	Period string // d=daily, w=weekly, m=monthly
	Order  string // a=ascending, d=descending
}

// WithDateRange sets the date range for EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// WithPeriod sets the period for EOD query
func WithPeriod(period string) EODOption {
	return func(p *EODParams) {
		p.Period = period
	}
}

// InsightClient provides access to a generative model for the chatbot.
type InsightClient interface {
	// GenerateContent generates a reply from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// DashboardCache stores computed dashboard payloads with a TTL. A nil
// or unreachable cache degrades to recomputing every request.
type DashboardCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, owner string) error
}
