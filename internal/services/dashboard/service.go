// Package dashboard computes portfolio summaries, series, and charts.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/models"
)

// Service implements interfaces.DashboardService.
type Service struct {
	portfolios interfaces.PortfolioStore
	positions  interfaces.PositionStore
	market     interfaces.MarketDataClient
	cache      interfaces.DashboardCache
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a new dashboard service
func NewService(
	portfolios interfaces.PortfolioStore,
	positions interfaces.PositionStore,
	market interfaces.MarketDataClient,
	cache interfaces.DashboardCache,
	logger *common.Logger,
) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{
		portfolios: portfolios,
		positions:  positions,
		market:     market,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// cacheKey scopes cached payloads by owner, portfolio, and payload kind.
// The owner prefix is what Invalidate matches on.
func cacheKey(owner, portfolio, kind string) string {
	return fmt.Sprintf("%s_%s:%s", owner, portfolio, kind)
}

// ListPortfolios returns the names of a user's portfolios.
func (s *Service) ListPortfolios(ctx context.Context, owner string) ([]string, error) {
	list, err := s.portfolios.ListPortfolios(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	names := make([]string, 0, len(list))
	for _, p := range list {
		names = append(names, p.Name)
	}
	return names, nil
}

// Performance computes principal, current value, and a daily value
// series for one portfolio. Results are cached per owner+portfolio.
func (s *Service) Performance(ctx context.Context, owner, portfolio string) (*models.PortfolioPerformance, error) {
	key := cacheKey(owner, portfolio, "performance")
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached models.PortfolioPerformance
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	perf, err := s.computePerformance(ctx, owner, portfolio)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(perf); err == nil {
		if err := s.cache.Set(ctx, key, data); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return perf, nil
}

func (s *Service) computePerformance(ctx context.Context, owner, portfolio string) (*models.PortfolioPerformance, error) {
	rows, err := s.positions.ListPositions(ctx, owner, portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	perf := &models.PortfolioPerformance{Portfolio: portfolio}
	if len(rows) == 0 {
		return perf, nil
	}

	// Principal is net cash deployed: buys add, sells subtract.
	earliest := rows[0].DatePurchased
	for _, p := range rows {
		perf.Principal += p.TotalPrice
		if p.DatePurchased < earliest {
			earliest = p.DatePurchased
		}
	}

	bars, err := s.loadBars(ctx, rows, earliest)
	if err != nil {
		return nil, err
	}

	perf.Series = buildSeries(rows, bars)
	if len(perf.Series) > 0 {
		perf.Value = perf.Series[len(perf.Series)-1].Value
	}
	if perf.Principal != 0 {
		perf.ReturnPct = (perf.Value - perf.Principal) / perf.Principal * 100
	}
	return perf, nil
}

// loadBars fetches EOD history for each distinct stock since the first
// purchase date. A stock with no bars contributes nothing to the series.
func (s *Service) loadBars(ctx context.Context, rows []*models.Position, fromDate string) (map[string][]models.EODBar, error) {
	from, err := time.Parse("2006-01-02", fromDate)
	if err != nil {
		return nil, fmt.Errorf("bad position date %q: %w", fromDate, err)
	}

	stocks := map[string]bool{}
	for _, p := range rows {
		stocks[p.Stock] = true
	}

	bars := make(map[string][]models.EODBar, len(stocks))
	for stock := range stocks {
		b, err := s.market.GetEOD(ctx, stock, interfaces.WithDateRange(from, s.now().UTC()))
		if err != nil {
			return nil, fmt.Errorf("failed to load history for %s: %w", stock, err)
		}
		bars[stock] = b
	}
	return bars, nil
}

// buildSeries walks the union of bar dates and values the holdings held
// as of each date (positions count from their purchase date onward).
func buildSeries(rows []*models.Position, bars map[string][]models.EODBar) []models.PerformancePoint {
	dates := map[string]bool{}
	closeOn := map[string]map[string]float64{} // stock -> date -> close
	for stock, list := range bars {
		closeOn[stock] = make(map[string]float64, len(list))
		for _, b := range list {
			dates[b.Date] = true
			closeOn[stock][b.Date] = b.Close
		}
	}

	ordered := make([]string, 0, len(dates))
	for d := range dates {
		ordered = append(ordered, d)
	}
	sort.Strings(ordered)

	// lastClose carries a stock's most recent close across non-trading gaps
	lastClose := map[string]float64{}
	series := make([]models.PerformancePoint, 0, len(ordered))
	for _, date := range ordered {
		total := 0.0
		for stock := range closeOn {
			if c, ok := closeOn[stock][date]; ok {
				lastClose[stock] = c
			}
			held := 0.0
			for _, p := range rows {
				if p.Stock == stock && p.DatePurchased <= date {
					held += p.Amount
				}
			}
			if held > 0 {
				total += held * lastClose[stock]
			}
		}
		series = append(series, models.PerformancePoint{Date: date, Value: total})
	}
	return series
}

// Holdings aggregates open positions by stock with current value and
// portfolio weight. Stocks fully sold out are omitted.
func (s *Service) Holdings(ctx context.Context, owner, portfolio string) ([]models.Holding, error) {
	key := cacheKey(owner, portfolio, "holdings")
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached []models.Holding
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := s.positions.ListPositions(ctx, owner, portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	type agg struct {
		amount float64
		cost   float64
	}
	byStock := map[string]*agg{}
	for _, p := range rows {
		a := byStock[p.Stock]
		if a == nil {
			a = &agg{}
			byStock[p.Stock] = a
		}
		a.amount += p.Amount
		a.cost += p.TotalPrice
	}

	stocks := make([]string, 0, len(byStock))
	for stock, a := range byStock {
		if a.amount > 0 {
			stocks = append(stocks, stock)
		}
	}
	sort.Strings(stocks)

	holdings := make([]models.Holding, 0, len(stocks))
	totalValue := 0.0
	for _, stock := range stocks {
		a := byStock[stock]
		price, err := s.latestClose(ctx, stock)
		if err != nil {
			return nil, err
		}
		h := models.Holding{
			Stock:     stock,
			Amount:    a.amount,
			CostBasis: a.cost,
			Price:     price,
			Value:     a.amount * price,
		}
		if a.cost != 0 {
			h.ReturnPct = (h.Value - a.cost) / a.cost * 100
		}
		totalValue += h.Value
		holdings = append(holdings, h)
	}
	for i := range holdings {
		if totalValue > 0 {
			holdings[i].WeightPct = holdings[i].Value / totalValue * 100
		}
	}

	if data, err := json.Marshal(holdings); err == nil {
		if err := s.cache.Set(ctx, key, data); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return holdings, nil
}

func (s *Service) latestClose(ctx context.Context, stock string) (float64, error) {
	from := s.now().UTC().AddDate(0, 0, -7)
	bars, err := s.market.GetEOD(ctx, stock, interfaces.WithDateRange(from, s.now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("failed to get price for %s: %w", stock, err)
	}
	if len(bars) == 0 {
		return 0, nil
	}
	return bars[len(bars)-1].Close, nil
}

// History returns the raw transaction rows, newest first.
func (s *Service) History(ctx context.Context, owner, portfolio string) ([]*models.Position, error) {
	rows, err := s.positions.ListPositions(ctx, owner, portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}
	out := make([]*models.Position, len(rows))
	for i, p := range rows {
		out[len(rows)-1-i] = p
	}
	return out, nil
}

// RenderChart renders the performance series as a PNG.
func (s *Service) RenderChart(ctx context.Context, owner, portfolio string) ([]byte, error) {
	perf, err := s.Performance(ctx, owner, portfolio)
	if err != nil {
		return nil, err
	}
	return RenderPerformanceChart(portfolio, perf.Principal, perf.Series)
}

// Invalidate drops all cached payloads for an owner. Called after a
// successful buy or sell so dashboards reflect the new position.
func (s *Service) Invalidate(ctx context.Context, owner string) {
	if err := s.cache.Invalidate(ctx, owner); err != nil {
		s.logger.Warn().Err(err).Str("owner", owner).Msg("cache invalidation failed")
	}
}

// Compile-time check
var _ interfaces.DashboardService = (*Service)(nil)
