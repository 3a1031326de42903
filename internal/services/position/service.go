// Package position implements buy/sell validation and recording.
package position

import (
	"context"
	"fmt"
	"time"

	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/models"
)

// ValidationError is a user-correctable rejection from the submission
// chain. Anything else coming out of Buy or Sell is a transport or
// storage failure and is reported generically.
type ValidationError struct {
	Step    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// Service implements interfaces.PositionService.
type Service struct {
	portfolios interfaces.PortfolioStore
	positions  interfaces.PositionStore
	market     interfaces.MarketDataClient
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a new position service
func NewService(
	portfolios interfaces.PortfolioStore,
	positions interfaces.PositionStore,
	market interfaces.MarketDataClient,
	logger *common.Logger,
) *Service {
	return &Service{
		portfolios: portfolios,
		positions:  positions,
		market:     market,
		logger:     logger,
		now:        time.Now,
	}
}

// step is one fallible element of the submission chain. Steps run in
// order and the first failure short-circuits the rest. Committed steps
// are never rolled back, so a portfolio created before a failed position
// insert survives as an orphan.
type step struct {
	name string
	run  func(ctx context.Context) error
}

func runChain(ctx context.Context, steps []step) error {
	for _, st := range steps {
		if err := st.run(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Buy runs the validation chain and records a buy position.
func (s *Service) Buy(ctx context.Context, req models.BuyRequest) (*models.Position, error) {
	var created *models.Position

	steps := []step{
		{name: "date", run: func(ctx context.Context) error {
			return s.checkDate(req.Date)
		}},
		{name: "portfolio_choice", run: func(ctx context.Context) error {
			return s.checkPortfolioChoice(ctx, req.Email, req.Portfolio)
		}},
		{name: "price_range", run: func(ctx context.Context) error {
			return s.checkPriceRange(ctx, req.Stock, req.Date, req.UnitPrice)
		}},
		{name: "create_portfolio", run: func(ctx context.Context) error {
			if req.Portfolio.Kind != models.PortfolioNew {
				return nil
			}
			return s.portfolios.SavePortfolio(ctx, &models.Portfolio{
				Owner:     req.Email,
				Name:      req.Portfolio.Name,
				IsPublic:  req.Public,
				CreatedAt: s.now().UTC(),
			})
		}},
		{name: "insert", run: func(ctx context.Context) error {
			p := s.buildPosition(req.Email, req.Portfolio.Name, req.Stock, req.Amount, req.UnitPrice, req.Date)
			if err := s.positions.InsertPosition(ctx, p); err != nil {
				return err
			}
			created = p
			return nil
		}},
	}

	if err := runChain(ctx, steps); err != nil {
		s.logger.Debug().Err(err).Str("stock", req.Stock).Msg("buy rejected")
		return nil, err
	}

	s.logger.Info().
		Str("owner", req.Email).
		Str("portfolio", req.Portfolio.Name).
		Str("stock", req.Stock).
		Float64("amount", req.Amount).
		Msg("buy recorded")
	return created, nil
}

// Sell validates share sufficiency and records a negated position row.
func (s *Service) Sell(ctx context.Context, req models.SellRequest) (*models.Position, error) {
	var created *models.Position

	steps := []step{
		{name: "date", run: func(ctx context.Context) error {
			return s.checkDate(req.Date)
		}},
		{name: "price_range", run: func(ctx context.Context) error {
			return s.checkPriceRange(ctx, req.Stock, req.Date, req.UnitPrice)
		}},
		{name: "sufficiency", run: func(ctx context.Context) error {
			return s.checkSufficiency(ctx, req.Email, req.Portfolio, req.Stock, req.Amount)
		}},
		{name: "insert", run: func(ctx context.Context) error {
			// Negation happens here, not in the store
			p := s.buildPosition(req.Email, req.Portfolio, req.Stock, -req.Amount, req.UnitPrice, req.Date)
			if err := s.positions.InsertPosition(ctx, p); err != nil {
				return err
			}
			created = p
			return nil
		}},
	}

	if err := runChain(ctx, steps); err != nil {
		s.logger.Debug().Err(err).Str("stock", req.Stock).Msg("sell rejected")
		return nil, err
	}

	s.logger.Info().
		Str("owner", req.Email).
		Str("portfolio", req.Portfolio).
		Str("stock", req.Stock).
		Float64("amount", req.Amount).
		Msg("sell recorded")
	return created, nil
}

// checkDate rejects malformed dates and dates after today. Runs before
// any network call.
func (s *Service) checkDate(date string) error {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return &ValidationError{Step: "date", Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date)}
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if d.After(today) {
		return &ValidationError{Step: "date", Message: "date cannot be in the future"}
	}
	return nil
}

// checkPortfolioChoice validates the buy target. New names must be
// non-empty and not collide with an existing portfolio of the same
// owner (case-sensitive exact match).
func (s *Service) checkPortfolioChoice(ctx context.Context, owner string, choice models.PortfolioChoice) error {
	switch choice.Kind {
	case models.PortfolioExisting:
		if choice.Name == "" {
			return &ValidationError{Step: "portfolio_choice", Message: "no portfolio selected"}
		}
		return nil
	case models.PortfolioNew:
		if choice.Name == "" {
			return &ValidationError{Step: "portfolio_choice", Message: "new portfolio name is required"}
		}
		existing, err := s.portfolios.ListPortfolios(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to list portfolios: %w", err)
		}
		for _, p := range existing {
			if p.Name == choice.Name {
				return &ValidationError{Step: "portfolio_choice", Message: fmt.Sprintf("portfolio %q already exists", choice.Name)}
			}
		}
		return nil
	default:
		return &ValidationError{Step: "portfolio_choice", Message: fmt.Sprintf("unknown portfolio choice %q", choice.Kind)}
	}
}

// checkPriceRange fails closed: a transport error blocks submission.
func (s *Service) checkPriceRange(ctx context.Context, stock, date string, price float64) error {
	rng, err := s.market.GetDailyRange(ctx, stock, date)
	if err != nil {
		return fmt.Errorf("price range lookup failed: %w", err)
	}
	if rng == nil {
		return &ValidationError{Step: "price_range", Message: "no data available for the specified date"}
	}
	if !rng.Contains(price) {
		return &ValidationError{
			Step:    "price_range",
			Message: fmt.Sprintf("price not within range [%.2f, %.2f] for %s on %s", rng.Low, rng.High, stock, rng.Date),
		}
	}
	return nil
}

// checkSufficiency nets all prior signed amounts for the stock and
// rejects a sell that exceeds the net held quantity.
func (s *Service) checkSufficiency(ctx context.Context, owner, portfolio, stock string, amount float64) error {
	rows, err := s.positions.ListPositionsByStock(ctx, owner, portfolio, stock)
	if err != nil {
		return fmt.Errorf("failed to load positions: %w", err)
	}
	if len(rows) == 0 {
		return &ValidationError{Step: "sufficiency", Message: fmt.Sprintf("no holdings of %s in %s", stock, portfolio)}
	}

	held := 0.0
	for _, p := range rows {
		held += p.Amount
	}
	if held < amount {
		return &ValidationError{Step: "sufficiency", Message: fmt.Sprintf("not enough shares: holding %.4f, tried to sell %.4f", held, amount)}
	}
	return nil
}

// buildPosition computes total_price once at insert time. Callers pass
// the signed amount; sells arrive pre-negated.
func (s *Service) buildPosition(owner, portfolio, stock string, amount, unitPrice float64, date string) *models.Position {
	return &models.Position{
		Owner:         owner,
		Portfolio:     portfolio,
		Stock:         stock,
		Amount:        amount,
		UnitPrice:     unitPrice,
		TotalPrice:    amount * unitPrice,
		DatePurchased: date,
		CreatedAt:     s.now().UTC(),
	}
}

// Compile-time check
var _ interfaces.PositionService = (*Service)(nil)
