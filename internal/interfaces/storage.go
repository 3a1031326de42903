// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"
	"errors"

	"github.com/tmcfarlane/folio/internal/models"
)

// Storage sentinel errors shared by all backends.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrPortfolioNotFound = errors.New("portfolio not found")
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	UserStore() UserStore
	PortfolioStore() PortfolioStore
	PositionStore() PositionStore

	// Lifecycle
	Close() error
}

// UserStore manages user accounts keyed by email.
type UserStore interface {
	GetUser(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, email string) error
}

// PortfolioStore manages portfolio records. Names are unique per owner.
type PortfolioStore interface {
	GetPortfolio(ctx context.Context, owner, name string) (*models.Portfolio, error)
	SavePortfolio(ctx context.Context, p *models.Portfolio) error
	ListPortfolios(ctx context.Context, owner string) ([]*models.Portfolio, error)
	ListPublicPortfolios(ctx context.Context) ([]*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, owner, name string) error
}

// PositionStore manages position rows. Sells are negated rows, so every
// listing is append-ordered history rather than mutable state.
type PositionStore interface {
	InsertPosition(ctx context.Context, p *models.Position) error
	ListPositions(ctx context.Context, owner, portfolio string) ([]*models.Position, error)
	ListPositionsByStock(ctx context.Context, owner, portfolio, stock string) ([]*models.Position, error)
}
