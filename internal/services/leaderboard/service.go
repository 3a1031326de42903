// Package leaderboard ranks public portfolios by total return.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/models"
)

// maxConcurrent bounds parallel performance computations, which each
// fan out into market data requests.
const maxConcurrent = 5

// Service implements interfaces.LeaderboardService.
type Service struct {
	users      interfaces.UserStore
	portfolios interfaces.PortfolioStore
	dashboard  interfaces.DashboardService
	logger     *common.Logger
}

// NewService creates a new leaderboard service
func NewService(
	users interfaces.UserStore,
	portfolios interfaces.PortfolioStore,
	dashboard interfaces.DashboardService,
	logger *common.Logger,
) *Service {
	return &Service{
		users:      users,
		portfolios: portfolios,
		dashboard:  dashboard,
		logger:     logger,
	}
}

// Leaderboard computes the return of every public portfolio and returns
// the entries sorted best first. A portfolio whose performance cannot
// be computed is skipped rather than failing the whole board.
func (s *Service) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	public, err := s.portfolios.ListPublicPortfolios(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list public portfolios: %w", err)
	}
	if len(public) == 0 {
		return []models.LeaderboardEntry{}, nil
	}

	semaphore := make(chan struct{}, maxConcurrent)

	type result struct {
		entry models.LeaderboardEntry
		skip  bool
	}
	results := make(chan result, len(public))

	for _, p := range public {
		go func(p *models.Portfolio) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			perf, err := s.dashboard.Performance(ctx, p.Owner, p.Name)
			if err != nil {
				s.logger.Warn().
					Str("owner", p.Owner).
					Str("portfolio", p.Name).
					Err(err).
					Msg("Failed to compute performance, skipping")
				results <- result{skip: true}
				return
			}
			// Empty portfolios carry no signal on the board
			if perf.Principal == 0 {
				results <- result{skip: true}
				return
			}

			results <- result{entry: models.LeaderboardEntry{
				Username:  s.displayName(ctx, p.Owner),
				Portfolio: p.Name,
				ReturnPct: perf.ReturnPct,
			}}
		}(p)
	}

	entries := make([]models.LeaderboardEntry, 0, len(public))
	for range public {
		r := <-results
		if !r.skip {
			entries = append(entries, r.entry)
		}
	}
	close(results)

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ReturnPct != entries[j].ReturnPct {
			return entries[i].ReturnPct > entries[j].ReturnPct
		}
		return entries[i].Username < entries[j].Username
	})
	return entries, nil
}

// displayName resolves an owner email to their username, falling back
// to the email itself when the account is gone.
func (s *Service) displayName(ctx context.Context, email string) string {
	user, err := s.users.GetUser(ctx, email)
	if err != nil {
		if !errors.Is(err, interfaces.ErrUserNotFound) {
			s.logger.Warn().Str("email", email).Err(err).Msg("Failed to resolve username")
		}
		return email
	}
	if user.Username == "" {
		return email
	}
	return user.Username
}

// Compile-time check
var _ interfaces.LeaderboardService = (*Service)(nil)
