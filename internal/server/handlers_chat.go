package server

import (
	"errors"
	"net/http"

	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/models"
	"github.com/tmcfarlane/folio/internal/services/chat"
)

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.ChatRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	email := requireUser(w, r, req.Email)
	if email == "" {
		return
	}

	resp, err := s.app.ChatService.Ask(r.Context(), email, req.Ticker, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrPremiumRequired):
			WriteError(w, http.StatusPaymentRequired, "premium subscription required")
		case errors.Is(err, chat.ErrUnavailable):
			WriteError(w, http.StatusServiceUnavailable, "chat is not available")
		case errors.Is(err, interfaces.ErrUserNotFound):
			WriteError(w, http.StatusUnauthorized, "user not found")
		default:
			s.logger.Error().Err(err).Str("email", email).Msg("Chat request failed")
			WriteError(w, http.StatusBadGateway, "failed to generate reply")
		}
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// handlePremiumStatus handles POST /api/users/premium-status.
func (s *Server) handlePremiumStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	email := requireUser(w, r, req.Email)
	if email == "" {
		return
	}

	status, err := s.app.ChatService.PremiumStatus(r.Context(), email)
	if err != nil {
		if errors.Is(err, interfaces.ErrUserNotFound) {
			WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error().Err(err).Str("email", email).Msg("Failed to read premium status")
		WriteError(w, http.StatusInternalServerError, "failed to read premium status")
		return
	}
	WriteJSON(w, http.StatusOK, status)
}
