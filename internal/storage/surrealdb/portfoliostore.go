package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/models"
)

type PortfolioStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewPortfolioStore(db *surrealdb.DB, logger *common.Logger) *PortfolioStore {
	return &PortfolioStore{
		db:     db,
		logger: logger,
	}
}

// Portfolio record ID format: portfolio:<owner>_<name>
func portfolioID(owner, name string) string {
	return owner + "_" + name
}

func (s *PortfolioStore) GetPortfolio(ctx context.Context, owner, name string) (*models.Portfolio, error) {
	p, err := surrealdb.Select[models.Portfolio](ctx, s.db, surrealmodels.NewRecordID("portfolio", portfolioID(owner, name)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to select portfolio: %w", err)
	}
	if p == nil {
		return nil, interfaces.ErrPortfolioNotFound
	}
	return p, nil
}

func (s *PortfolioStore) SavePortfolio(ctx context.Context, p *models.Portfolio) error {
	sql := "UPSERT type::record('portfolio', $id) CONTENT $portfolio"
	vars := map[string]any{"id": portfolioID(p.Owner, p.Name), "portfolio": p}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Portfolio](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save portfolio after retries: %w", err)
		}
	}
	return nil
}

func (s *PortfolioStore) ListPortfolios(ctx context.Context, owner string) ([]*models.Portfolio, error) {
	sql := "SELECT * FROM portfolio WHERE owner = $owner ORDER BY created_at ASC"
	vars := map[string]any{"owner": owner}

	results, err := surrealdb.Query[[]models.Portfolio](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Portfolio
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *PortfolioStore) ListPublicPortfolios(ctx context.Context) ([]*models.Portfolio, error) {
	sql := "SELECT * FROM portfolio WHERE is_public = true"

	results, err := surrealdb.Query[[]models.Portfolio](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list public portfolios: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Portfolio
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *PortfolioStore) DeletePortfolio(ctx context.Context, owner, name string) error {
	_, err := surrealdb.Delete[models.Portfolio](ctx, s.db, surrealmodels.NewRecordID("portfolio", portfolioID(owner, name)))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	return nil
}

// Compile-time check
var _ interfaces.PortfolioStore = (*PortfolioStore)(nil)
