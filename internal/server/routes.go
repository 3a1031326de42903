package server

import (
	"net/http"

	"github.com/tmcfarlane/folio/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/signup", s.handleAuthSignup)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)

	// Market data
	mux.HandleFunc("/api/market/daily-range", s.handleMarketDailyRange)
	mux.HandleFunc("/api/market/tickers", s.handleMarketTickers)

	// Positions
	mux.HandleFunc("/api/positions/buy", s.handlePositionBuy)
	mux.HandleFunc("/api/positions/sell", s.handlePositionSell)

	// Portfolios
	mux.HandleFunc("/api/portfolios/list", s.handlePortfolioList)
	mux.HandleFunc("/api/portfolios/performance", s.handlePortfolioPerformance)
	mux.HandleFunc("/api/portfolios/holdings", s.handlePortfolioHoldings)
	mux.HandleFunc("/api/portfolios/history", s.handlePortfolioHistory)
	mux.HandleFunc("/api/portfolios/", s.routePortfolios)

	// Chat & entitlement
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/users/premium-status", s.handlePremiumStatus)

	// Leaderboard (public)
	mux.HandleFunc("/api/leaderboard", s.handleLeaderboard)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// handleLeaderboard handles GET /api/leaderboard.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	entries, err := s.app.LeaderboardService.Leaderboard(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build leaderboard")
		WriteError(w, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}
