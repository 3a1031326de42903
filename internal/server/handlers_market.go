package server

import (
	"net/http"
	"strings"
)

// handleMarketDailyRange handles POST /api/market/daily-range.
func (s *Server) handleMarketDailyRange(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Ticker string `json:"ticker"`
		Date   string `json:"date"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Ticker = strings.TrimSpace(req.Ticker)
	if req.Ticker == "" || req.Date == "" {
		WriteError(w, http.StatusBadRequest, "ticker and date are required")
		return
	}

	rng, err := s.app.MarketClient.GetDailyRange(r.Context(), req.Ticker, req.Date)
	if err != nil {
		s.logger.Error().Err(err).Str("ticker", req.Ticker).Msg("Failed to fetch daily range")
		WriteError(w, http.StatusBadGateway, "market data unavailable")
		return
	}
	if rng == nil {
		WriteError(w, http.StatusNotFound, "no data available for the specified date")
		return
	}
	WriteJSON(w, http.StatusOK, rng)
}

// handleMarketTickers handles GET /api/market/tickers.
func (s *Server) handleMarketTickers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		exchange = "US"
	}

	symbols, err := s.app.MarketClient.GetExchangeSymbols(r.Context(), exchange)
	if err != nil {
		s.logger.Error().Err(err).Str("exchange", exchange).Msg("Failed to fetch symbols")
		WriteError(w, http.StatusBadGateway, "market data unavailable")
		return
	}

	tickers := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		tickers = append(tickers, sym.Code)
	}
	WriteJSON(w, http.StatusOK, tickers)
}
