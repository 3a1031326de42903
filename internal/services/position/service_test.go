package position

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/models"
	"github.com/tmcfarlane/folio/internal/storage/filestore"
)

// fakeMarket returns a canned daily range and counts lookups.
type fakeMarket struct {
	rng   *models.DailyRange
	err   error
	calls int
}

func (m *fakeMarket) GetDailyRange(ctx context.Context, ticker, date string) (*models.DailyRange, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.rng, nil
}

func (m *fakeMarket) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) ([]models.EODBar, error) {
	return nil, nil
}

func (m *fakeMarket) GetExchangeSymbols(ctx context.Context, exchange string) ([]*models.Symbol, error) {
	return nil, nil
}

// failingPositions rejects every insert, for orphan-portfolio checks.
type failingPositions struct {
	interfaces.PositionStore
}

func (f *failingPositions) InsertPosition(ctx context.Context, p *models.Position) error {
	return errors.New("insert failed")
}

func newTestService(t *testing.T, market interfaces.MarketDataClient) (*Service, interfaces.StorageManager) {
	t.Helper()
	store, err := filestore.NewStore(common.NewSilentLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}
	svc := NewService(store.PortfolioStore(), store.PositionStore(), market, common.NewSilentLogger())
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func inRange() *fakeMarket {
	return &fakeMarket{rng: &models.DailyRange{Ticker: "AAPL", Date: "2024-01-01", Low: 140, High: 160}}
}

func buyReq(amount, price float64) models.BuyRequest {
	return models.BuyRequest{
		Email:     "alice@example.com",
		Portfolio: models.PortfolioChoice{Kind: models.PortfolioNew, Name: "P1"},
		Public:    true,
		Stock:     "AAPL",
		Amount:    amount,
		UnitPrice: price,
		Date:      "2024-01-01",
	}
}

func TestBuy_Success(t *testing.T) {
	market := inRange()
	svc, store := newTestService(t, market)
	ctx := context.Background()

	pos, err := svc.Buy(ctx, buyReq(10, 5))
	if err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if pos.Amount != 10 || pos.TotalPrice != 50 {
		t.Errorf("stored amount=%.1f total=%.1f, want 10/50", pos.Amount, pos.TotalPrice)
	}

	// The new portfolio was created as part of the chain
	p, err := store.PortfolioStore().GetPortfolio(ctx, "alice@example.com", "P1")
	if err != nil {
		t.Fatalf("portfolio not created: %v", err)
	}
	if !p.IsPublic {
		t.Error("portfolio should be public")
	}
}

func TestBuy_FutureDateRejectedBeforeNetwork(t *testing.T) {
	market := inRange()
	svc, _ := newTestService(t, market)

	req := buyReq(10, 150)
	req.Date = "2025-06-16" // tomorrow relative to the fixed clock

	_, err := svc.Buy(context.Background(), req)
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "future") {
		t.Errorf("error = %q, want future-date message", err)
	}
	if market.calls != 0 {
		t.Errorf("market called %d times before date check, want 0", market.calls)
	}
}

func TestBuy_DuplicatePortfolioRejectedBeforeInsert(t *testing.T) {
	market := inRange()
	svc, store := newTestService(t, market)
	ctx := context.Background()

	existing := &models.Portfolio{Owner: "alice@example.com", Name: "P1"}
	if err := store.PortfolioStore().SavePortfolio(ctx, existing); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Buy(ctx, buyReq(10, 150))
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %q, want duplicate-name message", err)
	}
	if market.calls != 0 {
		t.Errorf("price range looked up for a rejected name, calls=%d", market.calls)
	}

	rows, _ := store.PositionStore().ListPositions(ctx, "alice@example.com", "P1")
	if len(rows) != 0 {
		t.Errorf("position inserted despite rejection: %v", rows)
	}
}

func TestBuy_PriceOutOfRange(t *testing.T) {
	market := &fakeMarket{rng: &models.DailyRange{Ticker: "AAPL", Date: "2024-01-01", Low: 160, High: 170}}
	svc, store := newTestService(t, market)
	ctx := context.Background()

	_, err := svc.Buy(ctx, buyReq(100, 150))
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "price not within range") {
		t.Errorf("error = %q, want price-range message", err)
	}

	rows, _ := store.PositionStore().ListPositions(ctx, "alice@example.com", "P1")
	if len(rows) != 0 {
		t.Error("position inserted despite out-of-range price")
	}
}

func TestBuy_NoBarForDate(t *testing.T) {
	market := &fakeMarket{} // nil range, no error
	svc, _ := newTestService(t, market)

	_, err := svc.Buy(context.Background(), buyReq(10, 150))
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no data available for the specified date") {
		t.Errorf("error = %q, want no-data message", err)
	}
}

func TestBuy_TransportErrorFailsClosed(t *testing.T) {
	market := &fakeMarket{err: errors.New("backend unreachable")}
	svc, _ := newTestService(t, market)

	_, err := svc.Buy(context.Background(), buyReq(10, 150))
	if err == nil {
		t.Fatal("expected error")
	}
	if IsValidation(err) {
		t.Errorf("transport error classified as validation: %v", err)
	}
}

func TestBuy_OrphanedPortfolioOnInsertFailure(t *testing.T) {
	market := inRange()
	store, err := filestore.NewStore(common.NewSilentLogger(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(store.PortfolioStore(), &failingPositions{store.PositionStore()}, market, common.NewSilentLogger())
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, err = svc.Buy(ctx, buyReq(10, 150))
	if err == nil {
		t.Fatal("expected insert failure")
	}

	// No compensation: the portfolio created earlier in the chain stays
	if _, err := store.PortfolioStore().GetPortfolio(ctx, "alice@example.com", "P1"); err != nil {
		t.Errorf("created portfolio rolled back unexpectedly: %v", err)
	}
}

func TestSell_RoundTripNegation(t *testing.T) {
	market := inRange()
	svc, store := newTestService(t, market)
	ctx := context.Background()

	if _, err := svc.Buy(ctx, buyReq(30, 150)); err != nil {
		t.Fatalf("setup buy failed: %v", err)
	}

	pos, err := svc.Sell(ctx, models.SellRequest{
		Email:     "alice@example.com",
		Portfolio: "P1",
		Stock:     "AAPL",
		Amount:    10,
		UnitPrice: 150,
		Date:      "2024-01-01",
	})
	if err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	if pos.Amount != -10 || pos.TotalPrice != -1500 {
		t.Errorf("stored amount=%.1f total=%.1f, want -10/-1500", pos.Amount, pos.TotalPrice)
	}

	rows, _ := store.PositionStore().ListPositions(ctx, "alice@example.com", "P1")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestSell_NotEnoughShares(t *testing.T) {
	market := inRange()
	svc, store := newTestService(t, market)
	ctx := context.Background()

	if _, err := svc.Buy(ctx, buyReq(30, 150)); err != nil {
		t.Fatalf("setup buy failed: %v", err)
	}

	_, err := svc.Sell(ctx, models.SellRequest{
		Email:     "alice@example.com",
		Portfolio: "P1",
		Stock:     "AAPL",
		Amount:    50,
		UnitPrice: 150,
		Date:      "2024-01-01",
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "not enough shares") {
		t.Errorf("error = %q, want insufficiency message", err)
	}

	rows, _ := store.PositionStore().ListPositions(ctx, "alice@example.com", "P1")
	if len(rows) != 1 {
		t.Errorf("sell row inserted despite rejection, rows=%d", len(rows))
	}
}

func TestSell_NetsPriorSells(t *testing.T) {
	market := inRange()
	svc, _ := newTestService(t, market)
	ctx := context.Background()

	if _, err := svc.Buy(ctx, buyReq(30, 150)); err != nil {
		t.Fatal(err)
	}
	sell := func(amount float64) error {
		_, err := svc.Sell(ctx, models.SellRequest{
			Email: "alice@example.com", Portfolio: "P1", Stock: "AAPL",
			Amount: amount, UnitPrice: 150, Date: "2024-01-01",
		})
		return err
	}

	if err := sell(20); err != nil {
		t.Fatalf("first sell failed: %v", err)
	}
	// Net held is now 10; selling 20 must fail
	if err := sell(20); !IsValidation(err) {
		t.Fatalf("expected insufficiency after netting, got %v", err)
	}
	if err := sell(10); err != nil {
		t.Fatalf("selling exact remainder failed: %v", err)
	}
}

func TestSell_NoHoldings(t *testing.T) {
	market := inRange()
	svc, _ := newTestService(t, market)

	_, err := svc.Sell(context.Background(), models.SellRequest{
		Email:     "alice@example.com",
		Portfolio: "P1",
		Stock:     "AAPL",
		Amount:    5,
		UnitPrice: 150,
		Date:      "2024-01-01",
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no holdings") {
		t.Errorf("error = %q, want no-holdings message", err)
	}
}

func TestBuy_ExistingPortfolioSkipsUniquenessCheck(t *testing.T) {
	market := inRange()
	svc, store := newTestService(t, market)
	ctx := context.Background()

	if err := store.PortfolioStore().SavePortfolio(ctx, &models.Portfolio{Owner: "alice@example.com", Name: "P1"}); err != nil {
		t.Fatal(err)
	}

	req := buyReq(10, 150)
	req.Portfolio = models.PortfolioChoice{Kind: models.PortfolioExisting, Name: "P1"}
	if _, err := svc.Buy(ctx, req); err != nil {
		t.Fatalf("buy into existing portfolio failed: %v", err)
	}
}
