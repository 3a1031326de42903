package server

import (
	"net/http"
	"testing"

	"github.com/tmcfarlane/folio/internal/models"
)

func TestPortfolioList(t *testing.T) {
	srv, _ := newTestServer(t, marketWithRange(38, 42))
	token := signupUser(t, srv.Handler(), "alice@example.com", "alice")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/positions/buy", buyRequest(), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %s", rec.Body.String())
	}

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/portfolios/list", map[string]string{}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var names []string
	decodeBody(t, rec, &names)
	if len(names) != 1 || names[0] != "growth" {
		t.Errorf("unexpected portfolios: %v", names)
	}
}

func TestPortfolioPerformance(t *testing.T) {
	srv, _ := newTestServer(t, marketWithRange(38, 42))
	token := signupUser(t, srv.Handler(), "alice@example.com", "alice")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/positions/buy", buyRequest(), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %s", rec.Body.String())
	}

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/portfolios/performance", map[string]string{
		"portfolio": "growth",
	}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var perf models.PortfolioPerformance
	decodeBody(t, rec, &perf)
	if perf.Principal != 400.0 {
		t.Errorf("expected principal 400, got %.2f", perf.Principal)
	}
	if perf.Value != 440.0 {
		t.Errorf("expected value 440, got %.2f", perf.Value)
	}
}

func TestPortfolioPerformance_MissingName(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	token := signupUser(t, srv.Handler(), "alice@example.com", "alice")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/portfolios/performance", map[string]string{}, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPortfolioHoldings(t *testing.T) {
	srv, _ := newTestServer(t, marketWithRange(38, 42))
	token := signupUser(t, srv.Handler(), "alice@example.com", "alice")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/positions/buy", buyRequest(), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %s", rec.Body.String())
	}

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/portfolios/holdings", map[string]string{
		"portfolio": "growth",
	}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var holdings []models.Holding
	decodeBody(t, rec, &holdings)
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	if holdings[0].Stock != "BHP.AU" || holdings[0].Amount != 10 {
		t.Errorf("unexpected holding: %+v", holdings[0])
	}
}

func TestPortfolioHistory(t *testing.T) {
	srv, _ := newTestServer(t, marketWithRange(38, 42))
	token := signupUser(t, srv.Handler(), "alice@example.com", "alice")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/positions/buy", buyRequest(), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %s", rec.Body.String())
	}

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/portfolios/history", map[string]string{
		"portfolio": "growth",
	}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var rows []models.Position
	decodeBody(t, rec, &rows)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestPortfolioChart(t *testing.T) {
	srv, _ := newTestServer(t, marketWithRange(38, 42))
	token := signupUser(t, srv.Handler(), "alice@example.com", "alice")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/positions/buy", buyRequest(), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %s", rec.Body.String())
	}

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/portfolios/growth/chart", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	body := rec.Body.Bytes()
	if len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Errorf("expected PNG payload, got %d bytes", len(body))
	}
}

func TestPortfolioRoute_Unknown(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	token := signupUser(t, srv.Handler(), "alice@example.com", "alice")

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/portfolios/growth/unknown", nil, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLeaderboard(t *testing.T) {
	srv, _ := newTestServer(t, marketWithRange(38, 42))
	token := signupUser(t, srv.Handler(), "alice@example.com", "alice")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/positions/buy", buyRequest(), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %s", rec.Body.String())
	}

	// No token: the leaderboard is public
	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/leaderboard", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var entries []models.LeaderboardEntry
	decodeBody(t, rec, &entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Username != "alice" || entries[0].Portfolio != "growth" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestLeaderboard_PrivateExcluded(t *testing.T) {
	srv, _ := newTestServer(t, marketWithRange(38, 42))
	token := signupUser(t, srv.Handler(), "alice@example.com", "alice")

	req := buyRequest()
	req.Public = false
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/positions/buy", req, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy failed: %s", rec.Body.String())
	}

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/leaderboard", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []models.LeaderboardEntry
	decodeBody(t, rec, &entries)
	if len(entries) != 0 {
		t.Errorf("expected private portfolio excluded, got %+v", entries)
	}
}
