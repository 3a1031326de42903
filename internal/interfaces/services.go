// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"

	"github.com/tmcfarlane/folio/internal/models"
)

// PositionService validates and records buys and sells.
type PositionService interface {
	// Buy runs the validation chain and records a buy position
	Buy(ctx context.Context, req models.BuyRequest) (*models.Position, error)

	// Sell validates share sufficiency and records a negated position
	Sell(ctx context.Context, req models.SellRequest) (*models.Position, error)
}

// DashboardService computes portfolio summaries for the dashboard.
type DashboardService interface {
	// ListPortfolios returns the names of a user's portfolios
	ListPortfolios(ctx context.Context, owner string) ([]string, error)

	// Performance computes principal, current value, and a value series
	Performance(ctx context.Context, owner, portfolio string) (*models.PortfolioPerformance, error)

	// Holdings aggregates open positions for a portfolio
	Holdings(ctx context.Context, owner, portfolio string) ([]models.Holding, error)

	// History returns the raw transaction rows, newest first
	History(ctx context.Context, owner, portfolio string) ([]*models.Position, error)

	// RenderChart renders the performance series as a PNG
	RenderChart(ctx context.Context, owner, portfolio string) ([]byte, error)

	// Invalidate drops cached payloads for an owner after a position change
	Invalidate(ctx context.Context, owner string)
}

// LeaderboardService ranks public portfolios by total return.
type LeaderboardService interface {
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
}

// ChatService answers portfolio questions for premium users.
type ChatService interface {
	// Ask generates a reply grounded in the user's holdings. An empty
	// ticker asks about the portfolio as a whole. Non-premium users
	// receive ErrPremiumRequired.
	Ask(ctx context.Context, email, ticker, message string) (*models.ChatResponse, error)

	// PremiumStatus reads the user's current entitlement
	PremiumStatus(ctx context.Context, email string) (*models.PremiumStatus, error)
}
