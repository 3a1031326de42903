package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tmcfarlane/folio/internal/app"
	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/models"
	"github.com/tmcfarlane/folio/internal/services/chat"
	"github.com/tmcfarlane/folio/internal/services/dashboard"
	"github.com/tmcfarlane/folio/internal/services/leaderboard"
	"github.com/tmcfarlane/folio/internal/services/position"
	"github.com/tmcfarlane/folio/internal/storage/filestore"
)

var errTransport = errors.New("connection refused")

// fakeMarket serves canned bars and ranges without the network.
type fakeMarket struct {
	rng  *models.DailyRange
	bars map[string][]models.EODBar
	syms []*models.Symbol
	err  error
}

func (f *fakeMarket) GetDailyRange(ctx context.Context, ticker, date string) (*models.DailyRange, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rng, nil
}

func (f *fakeMarket) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) ([]models.EODBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars[ticker], nil
}

func (f *fakeMarket) GetExchangeSymbols(ctx context.Context, exchange string) ([]*models.Symbol, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.syms, nil
}

type fakeInsight struct {
	reply string
}

func (f *fakeInsight) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return f.reply, nil
}

// newTestServer builds a server over a temp-dir file store with fake
// external clients.
func newTestServer(t *testing.T, market interfaces.MarketDataClient) (*Server, *app.App) {
	t.Helper()

	logger := common.NewSilentLogger()
	store, err := filestore.NewStore(logger, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	config := common.NewDefaultConfig()
	config.Auth.JWTSecret = "test-secret"

	if market == nil {
		market = &fakeMarket{}
	}

	users := store.UserStore()
	portfolios := store.PortfolioStore()
	positions := store.PositionStore()

	dashboardService := dashboard.NewService(portfolios, positions, market, nil, logger)
	a := &app.App{
		Config:             config,
		Logger:             logger,
		Storage:            store,
		MarketClient:       market,
		InsightClient:      &fakeInsight{reply: "canned insight"},
		PositionService:    position.NewService(portfolios, positions, market, logger),
		DashboardService:   dashboardService,
		LeaderboardService: leaderboard.NewService(users, portfolios, dashboardService, logger),
		ChatService:        chat.NewService(users, portfolios, positions, &fakeInsight{reply: "canned insight"}, logger),
		StartupTime:        time.Now(),
	}
	return NewServer(a), a
}

// doJSON issues a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// signupUser registers a user through the API and returns the token.
func signupUser(t *testing.T, handler http.Handler, email, username string) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/auth/signup", models.SignupRequest{
		Email:    email,
		Username: username,
		Password: "hunter2-hunter2",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed with %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.AuthResponse
	decodeBody(t, rec, &resp)
	return resp.Token
}
