// Package models defines data structures for Folio
package models

import "time"

// Portfolio represents a named collection of positions owned by a user.
// Names are unique per owner, not globally.
type Portfolio struct {
	Owner     string    `json:"owner"` // owner email
	Name      string    `json:"name"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}

// Position is a single recorded trade. Sells are stored as rows with
// negative Amount and TotalPrice, so aggregates are plain sums.
type Position struct {
	ID            string    `json:"id,omitempty"`
	Owner         string    `json:"owner"`
	Portfolio     string    `json:"portfolio"`
	Stock         string    `json:"stock"`
	Amount        float64   `json:"amount"`
	UnitPrice     float64   `json:"unit_price"`
	TotalPrice    float64   `json:"total_price"`
	DatePurchased string    `json:"date_purchased"` // YYYY-MM-DD
	CreatedAt     time.Time `json:"created_at"`
}

// PortfolioChoice kinds. A buy targets either an existing portfolio or
// one to be created as part of the same submission.
const (
	PortfolioExisting = "existing"
	PortfolioNew      = "new"
)

// PortfolioChoice identifies the target portfolio of a buy.
type PortfolioChoice struct {
	Kind string `json:"kind"` // "existing" or "new"
	Name string `json:"name"`
}

// BuyRequest is the payload for POST /api/positions/buy.
type BuyRequest struct {
	Email     string          `json:"email"`
	Portfolio PortfolioChoice `json:"portfolio"`
	Public    bool            `json:"public"` // only meaningful when creating a new portfolio
	Stock     string          `json:"stock"`
	Amount    float64         `json:"amount"`
	UnitPrice float64         `json:"unit_price"`
	Date      string          `json:"date"` // YYYY-MM-DD
}

// SellRequest is the payload for POST /api/positions/sell.
type SellRequest struct {
	Email     string  `json:"email"`
	Portfolio string  `json:"portfolio"`
	Stock     string  `json:"stock"`
	Amount    float64 `json:"amount"`
	UnitPrice float64 `json:"unit_price"`
	Date      string  `json:"date"` // YYYY-MM-DD
}

// Holding is an aggregated open position within a portfolio.
type Holding struct {
	Stock      string  `json:"stock"`
	Amount     float64 `json:"amount"`
	CostBasis  float64 `json:"cost_basis"`
	Value      float64 `json:"value"`
	Price      float64 `json:"price"`
	ReturnPct  float64 `json:"return_pct"`
	WeightPct  float64 `json:"weight_pct"`
}

// PerformancePoint is one sample of a portfolio value series.
type PerformancePoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Value float64 `json:"value"`
}

// PortfolioPerformance is the dashboard summary for one portfolio.
type PortfolioPerformance struct {
	Portfolio string             `json:"portfolio"`
	Principal float64            `json:"principal"`
	Value     float64            `json:"value"`
	ReturnPct float64            `json:"return_pct"`
	Series    []PerformancePoint `json:"series"`
}

// LeaderboardEntry ranks one public portfolio by total return.
type LeaderboardEntry struct {
	Username  string  `json:"username"`
	Portfolio string  `json:"portfolio"`
	ReturnPct float64 `json:"return_pct"`
}
