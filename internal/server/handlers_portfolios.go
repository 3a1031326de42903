package server

import (
	"net/http"
	"strings"
)

type portfolioRequest struct {
	Email     string `json:"email,omitempty"`
	Portfolio string `json:"portfolio"`
}

// handlePortfolioList handles POST /api/portfolios/list.
func (s *Server) handlePortfolioList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req portfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	email := requireUser(w, r, req.Email)
	if email == "" {
		return
	}

	names, err := s.app.DashboardService.ListPortfolios(r.Context(), email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("Failed to list portfolios")
		WriteError(w, http.StatusInternalServerError, "failed to list portfolios")
		return
	}
	WriteJSON(w, http.StatusOK, names)
}

// handlePortfolioPerformance handles POST /api/portfolios/performance.
func (s *Server) handlePortfolioPerformance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req portfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	email := requireUser(w, r, req.Email)
	if email == "" {
		return
	}
	if req.Portfolio == "" {
		WriteError(w, http.StatusBadRequest, "portfolio is required")
		return
	}

	perf, err := s.app.DashboardService.Performance(r.Context(), email, req.Portfolio)
	if err != nil {
		s.logger.Error().Err(err).Str("portfolio", req.Portfolio).Msg("Failed to compute performance")
		WriteError(w, http.StatusBadGateway, "failed to compute performance")
		return
	}
	WriteJSON(w, http.StatusOK, perf)
}

// handlePortfolioHoldings handles POST /api/portfolios/holdings.
func (s *Server) handlePortfolioHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req portfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	email := requireUser(w, r, req.Email)
	if email == "" {
		return
	}
	if req.Portfolio == "" {
		WriteError(w, http.StatusBadRequest, "portfolio is required")
		return
	}

	holdings, err := s.app.DashboardService.Holdings(r.Context(), email, req.Portfolio)
	if err != nil {
		s.logger.Error().Err(err).Str("portfolio", req.Portfolio).Msg("Failed to compute holdings")
		WriteError(w, http.StatusBadGateway, "failed to compute holdings")
		return
	}
	WriteJSON(w, http.StatusOK, holdings)
}

// handlePortfolioHistory handles POST /api/portfolios/history.
func (s *Server) handlePortfolioHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req portfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	email := requireUser(w, r, req.Email)
	if email == "" {
		return
	}
	if req.Portfolio == "" {
		WriteError(w, http.StatusBadRequest, "portfolio is required")
		return
	}

	rows, err := s.app.DashboardService.History(r.Context(), email, req.Portfolio)
	if err != nil {
		s.logger.Error().Err(err).Str("portfolio", req.Portfolio).Msg("Failed to load history")
		WriteError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	WriteJSON(w, http.StatusOK, rows)
}

// routePortfolios dispatches GET /api/portfolios/{name}/chart.
func (s *Server) routePortfolios(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/portfolios/")
	if strings.HasSuffix(path, "/chart") {
		s.handlePortfolioChart(w, r, PathParam(r, "/api/portfolios/", "/chart"))
		return
	}
	WriteError(w, http.StatusNotFound, "Not found")
}

// handlePortfolioChart renders the performance chart as a PNG.
func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if name == "" {
		WriteError(w, http.StatusBadRequest, "portfolio is required")
		return
	}
	email := requireUser(w, r, r.URL.Query().Get("email"))
	if email == "" {
		return
	}

	png, err := s.app.DashboardService.RenderChart(r.Context(), email, name)
	if err != nil {
		s.logger.Error().Err(err).Str("portfolio", name).Msg("Failed to render chart")
		WriteError(w, http.StatusBadGateway, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
