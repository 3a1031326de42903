package surrealdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/models"
)

type PositionStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewPositionStore(db *surrealdb.DB, logger *common.Logger) *PositionStore {
	return &PositionStore{
		db:     db,
		logger: logger,
	}
}

func (s *PositionStore) InsertPosition(ctx context.Context, p *models.Position) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	sql := "UPSERT type::record('position', $id) CONTENT $position"
	vars := map[string]any{"id": p.ID, "position": p}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Position](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to insert position after retries: %w", err)
		}
	}
	return nil
}

func (s *PositionStore) ListPositions(ctx context.Context, owner, portfolio string) ([]*models.Position, error) {
	sql := "SELECT * FROM position WHERE owner = $owner AND portfolio = $portfolio ORDER BY created_at ASC"
	vars := map[string]any{"owner": owner, "portfolio": portfolio}

	return s.query(ctx, sql, vars)
}

func (s *PositionStore) ListPositionsByStock(ctx context.Context, owner, portfolio, stock string) ([]*models.Position, error) {
	sql := "SELECT * FROM position WHERE owner = $owner AND portfolio = $portfolio AND stock = $stock ORDER BY created_at ASC"
	vars := map[string]any{"owner": owner, "portfolio": portfolio, "stock": stock}

	return s.query(ctx, sql, vars)
}

func (s *PositionStore) query(ctx context.Context, sql string, vars map[string]any) ([]*models.Position, error) {
	results, err := surrealdb.Query[[]models.Position](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Position
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

// Compile-time check
var _ interfaces.PositionStore = (*PositionStore)(nil)
