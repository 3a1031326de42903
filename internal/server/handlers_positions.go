package server

import (
	"errors"
	"net/http"

	"github.com/tmcfarlane/folio/internal/clients/eodhd"
	"github.com/tmcfarlane/folio/internal/models"
	"github.com/tmcfarlane/folio/internal/services/position"
)

// handlePositionBuy handles POST /api/positions/buy.
func (s *Server) handlePositionBuy(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.BuyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	email := requireUser(w, r, req.Email)
	if email == "" {
		return
	}
	req.Email = email

	pos, err := s.app.PositionService.Buy(r.Context(), req)
	if err != nil {
		s.writePositionError(w, r, err)
		return
	}

	s.app.DashboardService.Invalidate(r.Context(), email)
	WriteJSON(w, http.StatusCreated, pos)
}

// handlePositionSell handles POST /api/positions/sell.
func (s *Server) handlePositionSell(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.SellRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	email := requireUser(w, r, req.Email)
	if email == "" {
		return
	}
	req.Email = email

	pos, err := s.app.PositionService.Sell(r.Context(), req)
	if err != nil {
		s.writePositionError(w, r, err)
		return
	}

	s.app.DashboardService.Invalidate(r.Context(), email)
	WriteJSON(w, http.StatusCreated, pos)
}

// writePositionError maps a submission failure to a response. Chain
// validation failures carry a user-facing message; anything else is a
// backend fault and stays generic.
func (s *Server) writePositionError(w http.ResponseWriter, r *http.Request, err error) {
	if position.IsValidation(err) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Position submission failed")

	var apiErr *eodhd.APIError
	if errors.As(err, &apiErr) {
		WriteError(w, http.StatusBadGateway, "market data unavailable")
		return
	}
	WriteError(w, http.StatusInternalServerError, "failed to record position")
}
