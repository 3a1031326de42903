// Package app wires configuration, storage, clients, and services into
// the shared core used by cmd/folio-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tmcfarlane/folio/internal/clients/eodhd"
	"github.com/tmcfarlane/folio/internal/clients/gemini"
	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/services/chat"
	"github.com/tmcfarlane/folio/internal/services/dashboard"
	"github.com/tmcfarlane/folio/internal/services/leaderboard"
	"github.com/tmcfarlane/folio/internal/services/position"
	"github.com/tmcfarlane/folio/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config  *common.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager

	MarketClient  interfaces.MarketDataClient
	InsightClient interfaces.InsightClient

	PositionService    interfaces.PositionService
	DashboardService   interfaces.DashboardService
	LeaderboardService interfaces.LeaderboardService
	ChatService        interfaces.ChatService

	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services from configuration.
// configPath may be empty, in which case FOLIO_CONFIG and then the
// binary directory are consulted.
func NewApp(configPath string) (*App, error) {
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		binDir := getBinaryDir()
		configPath = filepath.Join(binDir, "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative data path to the binary directory
	if config.Storage.DataPath != "" && !filepath.IsAbs(config.Storage.DataPath) {
		config.Storage.DataPath = filepath.Join(getBinaryDir(), config.Storage.DataPath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	return NewAppWithConfig(config, logger)
}

// NewAppWithConfig builds the app from an already-loaded configuration.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if config.Clients.EODHD.APIKey == "" {
		logger.Warn().Msg("EODHD API key not configured - price validation and dashboards will fail")
	}
	marketClient := eodhd.NewClient(
		config.Clients.EODHD.APIKey,
		eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
	)

	// The insight client is optional: without a key the chat endpoint
	// reports itself unavailable instead of failing startup.
	var insightClient interfaces.InsightClient
	if config.Clients.Gemini.APIKey != "" {
		client, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize insight client - chat will be unavailable")
		} else {
			insightClient = client
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured - chat will be unavailable")
	}

	var cache interfaces.DashboardCache = dashboard.NoopCache{}
	if config.Clients.Redis.Addr != "" {
		cache = dashboard.NewRedisCache(logger, config.Clients.Redis)
	}

	users := storageManager.UserStore()
	portfolios := storageManager.PortfolioStore()
	positions := storageManager.PositionStore()

	positionService := position.NewService(portfolios, positions, marketClient, logger)
	dashboardService := dashboard.NewService(portfolios, positions, marketClient, cache, logger)
	leaderboardService := leaderboard.NewService(users, portfolios, dashboardService, logger)
	chatService := chat.NewService(users, portfolios, positions, insightClient, logger)

	logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", config.Environment).
		Str("storage", config.Storage.Backend).
		Msg("Folio initialized")

	return &App{
		Config:             config,
		Logger:             logger,
		Storage:            storageManager,
		MarketClient:       marketClient,
		InsightClient:      insightClient,
		PositionService:    positionService,
		DashboardService:   dashboardService,
		LeaderboardService: leaderboardService,
		ChatService:        chatService,
		StartupTime:        time.Now(),
	}, nil
}

// Close releases storage resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
