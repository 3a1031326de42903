// Package chat answers portfolio questions for premium users via a
// generative model, grounding each prompt in the user's holdings.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/models"
)

// ErrPremiumRequired is returned when a non-premium user asks a question.
var ErrPremiumRequired = errors.New("premium subscription required")

// ErrUnavailable is returned when no insight client is configured.
var ErrUnavailable = errors.New("chat is not available")

// Service implements interfaces.ChatService.
type Service struct {
	users      interfaces.UserStore
	portfolios interfaces.PortfolioStore
	positions  interfaces.PositionStore
	insight    interfaces.InsightClient
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a new chat service. insight may be nil when no
// API key is configured, in which case Ask returns ErrUnavailable.
func NewService(
	users interfaces.UserStore,
	portfolios interfaces.PortfolioStore,
	positions interfaces.PositionStore,
	insight interfaces.InsightClient,
	logger *common.Logger,
) *Service {
	return &Service{
		users:      users,
		portfolios: portfolios,
		positions:  positions,
		insight:    insight,
		logger:     logger,
		now:        time.Now,
	}
}

// Ask generates a reply grounded in the user's holdings. Entitlement is
// read from the store on every call so an upgrade or downgrade takes
// effect immediately.
func (s *Service) Ask(ctx context.Context, email, ticker, message string) (*models.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.New("message is required")
	}

	user, err := s.users.GetUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.Premium {
		return nil, ErrPremiumRequired
	}
	if s.insight == nil {
		return nil, ErrUnavailable
	}

	prompt, err := s.buildPrompt(ctx, user, ticker, message)
	if err != nil {
		return nil, err
	}

	reply, err := s.insight.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Error().Str("email", email).Err(err).Msg("Insight generation failed")
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	return &models.ChatResponse{
		Reply:     reply,
		Timestamp: s.now().UTC(),
	}, nil
}

// buildPrompt assembles the model prompt from the user's open positions
// across all their portfolios.
func (s *Service) buildPrompt(ctx context.Context, user *models.User, ticker, message string) (string, error) {
	list, err := s.portfolios.ListPortfolios(ctx, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to list portfolios: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are an investment assistant for a portfolio tracking app. ")
	sb.WriteString("Answer the user's question using their holdings below. ")
	sb.WriteString("Be concise and do not give personalized financial advice beyond describing their positions.\n\n")

	wrote := false
	for _, p := range list {
		rows, err := s.positions.ListPositions(ctx, user.Email, p.Name)
		if err != nil {
			return "", fmt.Errorf("failed to load positions for %s: %w", p.Name, err)
		}
		open := netHoldings(rows)
		if len(open) == 0 {
			continue
		}
		if !wrote {
			sb.WriteString("Holdings:\n")
			wrote = true
		}
		for _, h := range open {
			sb.WriteString(fmt.Sprintf("- %s: %.4f shares of %s (cost basis $%.2f)\n",
				p.Name, h.amount, h.stock, h.cost))
		}
	}
	if !wrote {
		sb.WriteString("The user currently has no holdings.\n")
	}

	if ticker = strings.TrimSpace(ticker); ticker != "" {
		sb.WriteString("\nThe question concerns the stock ")
		sb.WriteString(strings.ToUpper(ticker))
		sb.WriteString(".\n")
	}

	sb.WriteString("\nQuestion: ")
	sb.WriteString(message)
	return sb.String(), nil
}

type holding struct {
	stock  string
	amount float64
	cost   float64
}

// netHoldings nets buys against sells per stock, dropping closed positions.
func netHoldings(rows []*models.Position) []holding {
	byStock := map[string]*holding{}
	order := []string{}
	for _, p := range rows {
		h := byStock[p.Stock]
		if h == nil {
			h = &holding{stock: p.Stock}
			byStock[p.Stock] = h
			order = append(order, p.Stock)
		}
		h.amount += p.Amount
		h.cost += p.TotalPrice
	}
	out := make([]holding, 0, len(order))
	for _, stock := range order {
		if h := byStock[stock]; h.amount > 0 {
			out = append(out, *h)
		}
	}
	return out
}

// PremiumStatus reads the user's current entitlement from the store.
func (s *Service) PremiumStatus(ctx context.Context, email string) (*models.PremiumStatus, error) {
	user, err := s.users.GetUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &models.PremiumStatus{Email: user.Email, Premium: user.Premium}, nil
}

// Compile-time check
var _ interfaces.ChatService = (*Service)(nil)
