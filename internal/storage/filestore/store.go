// Package filestore provides file-based JSON storage for development and tests.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/models"
)

// Store implements interfaces.StorageManager on JSON files. One file per
// user, one per portfolio, and one positions file per (owner, portfolio)
// holding the append-only trade log.
type Store struct {
	basePath string
	logger   *common.Logger
	mu       sync.Mutex
}

// subdirectories defines the directory layout under basePath.
var subdirectories = []string{"users", "portfolios", "positions"}

// NewStore creates a new Store and ensures all subdirectories exist.
func NewStore(logger *common.Logger, basePath string) (*Store, error) {
	s := &Store{
		basePath: basePath,
		logger:   logger,
	}

	for _, sub := range subdirectories {
		dir := filepath.Join(basePath, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger.Debug().Str("path", basePath).Msg("file store opened")
	return s, nil
}

// sanitizeKey makes a key safe for use as a filename.
// Replaces /, \, : with _ and collapses ".." to "_" to prevent path traversal.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (s *Store) filePath(dir, key string) string {
	return filepath.Join(s.basePath, dir, sanitizeKey(key)+".json")
}

// readJSON reads and unmarshals a JSON file. Missing files return os.ErrNotExist.
func (s *Store) readJSON(dir, key string, dest interface{}) error {
	path := s.filePath(dir, key)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON marshals data to indented JSON and writes it atomically via a
// temp file in the same directory.
func (s *Store) writeJSON(dir, key string, data interface{}) error {
	target := s.filePath(dir, key)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func (s *Store) UserStore() interfaces.UserStore           { return (*userStore)(s) }
func (s *Store) PortfolioStore() interfaces.PortfolioStore { return (*portfolioStore)(s) }
func (s *Store) PositionStore() interfaces.PositionStore   { return (*positionStore)(s) }

func (s *Store) Close() error {
	return nil
}

// userStore implements interfaces.UserStore.
type userStore Store

func (s *userStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := (*Store)(s).readJSON("users", email, &user); err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *userStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	dir := filepath.Join(s.basePath, "users")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var user models.User
		key := strings.TrimSuffix(e.Name(), ".json")
		if err := (*Store)(s).readJSON("users", key, &user); err != nil {
			continue
		}
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, interfaces.ErrUserNotFound
}

func (s *userStore) SaveUser(ctx context.Context, user *models.User) error {
	return (*Store)(s).writeJSON("users", user.Email, user)
}

func (s *userStore) DeleteUser(ctx context.Context, email string) error {
	err := os.Remove((*Store)(s).filePath("users", email))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// portfolioStore implements interfaces.PortfolioStore.
type portfolioStore Store

func portfolioKey(owner, name string) string {
	return owner + "_" + name
}

func (s *portfolioStore) GetPortfolio(ctx context.Context, owner, name string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := (*Store)(s).readJSON("portfolios", portfolioKey(owner, name), &p); err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrPortfolioNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *portfolioStore) SavePortfolio(ctx context.Context, p *models.Portfolio) error {
	return (*Store)(s).writeJSON("portfolios", portfolioKey(p.Owner, p.Name), p)
}

func (s *portfolioStore) ListPortfolios(ctx context.Context, owner string) ([]*models.Portfolio, error) {
	all, err := s.scan()
	if err != nil {
		return nil, err
	}
	var out []*models.Portfolio
	for _, p := range all {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *portfolioStore) ListPublicPortfolios(ctx context.Context) ([]*models.Portfolio, error) {
	all, err := s.scan()
	if err != nil {
		return nil, err
	}
	var out []*models.Portfolio
	for _, p := range all {
		if p.IsPublic {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *portfolioStore) DeletePortfolio(ctx context.Context, owner, name string) error {
	err := os.Remove((*Store)(s).filePath("portfolios", portfolioKey(owner, name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *portfolioStore) scan() ([]*models.Portfolio, error) {
	dir := filepath.Join(s.basePath, "portfolios")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan portfolios: %w", err)
	}
	var out []*models.Portfolio
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var p models.Portfolio
		key := strings.TrimSuffix(e.Name(), ".json")
		if err := (*Store)(s).readJSON("portfolios", key, &p); err != nil {
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}

// positionStore implements interfaces.PositionStore.
type positionStore Store

func (s *positionStore) InsertPosition(ctx context.Context, p *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	key := portfolioKey(p.Owner, p.Portfolio)
	var positions []*models.Position
	if err := (*Store)(s).readJSON("positions", key, &positions); err != nil && !os.IsNotExist(err) {
		return err
	}
	positions = append(positions, p)
	return (*Store)(s).writeJSON("positions", key, positions)
}

func (s *positionStore) ListPositions(ctx context.Context, owner, portfolio string) ([]*models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var positions []*models.Position
	if err := (*Store)(s).readJSON("positions", portfolioKey(owner, portfolio), &positions); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return positions, nil
}

func (s *positionStore) ListPositionsByStock(ctx context.Context, owner, portfolio, stock string) ([]*models.Position, error) {
	all, err := s.ListPositions(ctx, owner, portfolio)
	if err != nil {
		return nil, err
	}
	var out []*models.Position
	for _, p := range all {
		if p.Stock == stock {
			out = append(out, p)
		}
	}
	return out, nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Store)(nil)
