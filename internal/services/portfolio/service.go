package portfolio

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dfarias/carteira/internal/common"
	"github.com/dfarias/carteira/internal/interfaces"
	"github.com/dfarias/carteira/internal/models"
)

// Service implements PortfolioService. All computation is synchronous and
// side-effect free over in-memory collections; store and market lookups are
// injected and may fail independently; a degraded lookup only degrades the
// holdings it covers.
type Service struct {
	store  interfaces.RecordStore
	market interfaces.MarketDataClient
	fx     interfaces.ExchangeRateClient
	logger *common.Logger

	strictSell bool
	now        func() time.Time

	fxMu       sync.Mutex
	lastFXRate float64
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithStrictSell rejects sells exceeding the held quantity instead of
// emptying the position.
func WithStrictSell(strict bool) ServiceOption {
	return func(s *Service) {
		s.strictSell = strict
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new portfolio service
func NewService(
	store interfaces.RecordStore,
	market interfaces.MarketDataClient,
	fx interfaces.ExchangeRateClient,
	logger *common.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		store:  store,
		market: market,
		fx:     fx,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Holdings returns the user's reconciled collection, newest first.
// Reconciliation runs on every load since it is cheap, stateless and idempotent,
// so no per-session guard is needed. Merge side effects are applied to
// the store best-effort: a failed repoint or delete leaves an orphan that
// the next pass merges again.
func (s *Service) Holdings(ctx context.Context, userID string) ([]models.Holding, error) {
	holdings, err := s.store.ListHoldings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	result := Reconcile(holdings)
	if len(result.Plans) > 0 {
		s.logger.Info().
			Str("user", userID).
			Int("groups", len(result.Plans)).
			Msg("Merging duplicate holdings")
		s.applyMergePlans(ctx, result.Plans)
	}

	return result.Merged, nil
}

// applyMergePlans persists reconciliation side effects. Absorbed records are
// only deleted after their transactions were repointed; when repointing
// fails the record stays behind as an orphan for the next pass.
func (s *Service) applyMergePlans(ctx context.Context, plans []MergePlan) {
	for _, plan := range plans {
		if err := s.store.UpdateHolding(ctx, &plan.Survivor); err != nil {
			s.logger.Warn().Err(err).
				Str("holding", plan.Survivor.ID).
				Msg("Failed to persist merged holding")
			continue
		}

		for _, absorbed := range plan.Absorbed {
			if _, err := s.store.RepointTransactions(ctx, absorbed.ID, plan.Survivor.ID); err != nil {
				s.logger.Warn().Err(err).
					Str("from", absorbed.ID).
					Str("to", plan.Survivor.ID).
					Msg("Failed to repoint transactions, keeping duplicate")
				continue
			}
			if err := s.store.DeleteHolding(ctx, absorbed.ID); err != nil {
				s.logger.Warn().Err(err).
					Str("holding", absorbed.ID).
					Msg("Failed to delete absorbed holding")
			}
		}
	}
}

// RecordBuy resolves the incoming buy against existing holdings by identity
// key and either folds it into the match or creates a new holding. The same
// asset is never represented by two records.
func (s *Service) RecordBuy(ctx context.Context, userID string, in interfaces.BuyInput) (*models.Holding, error) {
	if err := validateBuy(in); err != nil {
		return nil, err
	}
	now := s.now()

	holdings, err := s.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := IdentityKey(in.Category, in.Name, in.Ticker)
	var saved *models.Holding

	if existing := findByKey(holdings, key); existing != nil {
		updated := ApplyBuy(*existing, in.Quantity, in.Price, now)
		if updated.Category.IsFixedIncome() {
			updated.CurrentValue = CompoundValue(updated.InvestedAmount, updated.InterestRate, purchaseOrDefault(&updated, models.PeriodYear, now), now)
			updated.RecomputeDerived()
		}
		if err := s.store.UpdateHolding(ctx, &updated); err != nil {
			return nil, fmt.Errorf("failed to update holding: %w", err)
		}
		saved = &updated
	} else {
		h := models.Holding{
			UserID:       userID,
			Category:     in.Category,
			Name:         in.Name,
			Ticker:       NormalizeTicker(in.Ticker),
			Quantity:     in.Quantity,
			AveragePrice: in.Price,
			CurrentPrice: in.Price,
			InterestRate: in.InterestRate,
			Notes:        in.Notes,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if d := parseDate(in.PurchaseDate); d != nil {
			h.PurchaseDate = d
		} else {
			h.PurchaseDate = &now
		}
		h.MaturityDate = parseDate(in.MaturityDate)
		h.CurrentValue = h.Quantity * h.CurrentPrice
		h.RecomputeDerived()
		if h.Category.IsFixedIncome() {
			h.CurrentValue = CompoundValue(h.InvestedAmount, h.InterestRate, *h.PurchaseDate, now)
			h.RecomputeDerived()
		}

		saved, err = s.store.InsertHolding(ctx, &h)
		if err != nil {
			return nil, fmt.Errorf("failed to insert holding: %w", err)
		}
	}

	tx := models.Transaction{
		UserID:    userID,
		HoldingID: saved.ID,
		Type:      models.TransactionBuy,
		Category:  in.Category,
		Name:      in.Name,
		Ticker:    NormalizeTicker(in.Ticker),
		Quantity:  in.Quantity,
		Price:     in.Price,
		Total:     in.Quantity * in.Price,
		Date:      now,
		CreatedAt: now,
	}
	if _, err := s.store.InsertTransaction(ctx, &tx); err != nil {
		return nil, fmt.Errorf("failed to log buy transaction: %w", err)
	}

	s.logger.Info().
		Str("user", userID).
		Str("key", key).
		Float64("quantity", in.Quantity).
		Float64("price", in.Price).
		Msg("Buy recorded")
	return saved, nil
}

// RecordSell reduces the matched holding by the sold quantity. A sell that
// drives the quantity to zero or below removes the holding; over-sells are
// accepted unless StrictSell is enabled.
func (s *Service) RecordSell(ctx context.Context, userID string, in interfaces.SellInput) (*interfaces.SellResult, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("sell quantity must be positive")
	}
	now := s.now()

	holdings, err := s.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := IdentityKey(in.Category, in.Name, in.Ticker)
	existing := findByKey(holdings, key)
	if existing == nil {
		return nil, fmt.Errorf("no holding matches %q: %w", key, interfaces.ErrNotFound)
	}

	if s.strictSell && in.Quantity > existing.Quantity {
		return nil, fmt.Errorf("sell of %.4f exceeds held quantity %.4f", in.Quantity, existing.Quantity)
	}

	remaining, realized := ApplySell(*existing, in.Quantity, in.Price, now)
	if remaining == nil {
		if err := s.store.DeleteHolding(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete emptied holding: %w", err)
		}
	} else {
		if err := s.store.UpdateHolding(ctx, remaining); err != nil {
			return nil, fmt.Errorf("failed to update holding: %w", err)
		}
	}

	tx := models.Transaction{
		UserID:            userID,
		HoldingID:         existing.ID,
		Type:              models.TransactionSell,
		Category:          in.Category,
		Name:              in.Name,
		Ticker:            NormalizeTicker(in.Ticker),
		Quantity:          in.Quantity,
		Price:             in.Price,
		Total:             realized.Proceeds,
		ProfitLoss:        realized.ProfitLoss,
		ProfitLossPercent: realized.ProfitLossPercent,
		Date:              now,
		CreatedAt:         now,
	}
	if _, err := s.store.InsertTransaction(ctx, &tx); err != nil {
		return nil, fmt.Errorf("failed to log sell transaction: %w", err)
	}

	s.logger.Info().
		Str("user", userID).
		Str("key", key).
		Float64("quantity", in.Quantity).
		Float64("realized", realized.ProfitLoss).
		Bool("removed", remaining == nil).
		Msg("Sell recorded")

	return &interfaces.SellResult{
		Remaining:         remaining,
		Removed:           remaining == nil,
		Transaction:       tx,
		ProfitLoss:        realized.ProfitLoss,
		ProfitLossPercent: realized.ProfitLossPercent,
	}, nil
}

// Revalue refreshes current prices across the collection. Fixed income is
// recompounded as of now; market holdings are re-marked from best-effort
// quotes fetched concurrently; a failed quote keeps the last known price.
func (s *Service) Revalue(ctx context.Context, userID string) ([]models.Holding, error) {
	holdings, err := s.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	quotes := s.fetchQuotes(ctx, holdings)

	for i := range holdings {
		h := &holdings[i]

		if h.Category.IsFixedIncome() {
			h.CurrentValue = CompoundValue(h.InvestedAmount, h.InterestRate, purchaseOrDefault(h, models.PeriodYear, now), now)
			h.RecomputeDerived()
			h.UpdatedAt = now
		} else if q := quotes[h.ID]; q != nil && q.Price > 0 {
			h.CurrentPrice = q.Price
			h.CurrentValue = h.Quantity * h.CurrentPrice
			h.RecomputeDerived()
			h.UpdatedAt = now
		} else {
			continue
		}

		if err := s.store.UpdateHolding(ctx, h); err != nil {
			s.logger.Warn().Err(err).Str("holding", h.ID).Msg("Failed to persist revaluation")
		}
	}

	return holdings, nil
}

// Summary aggregates totals in the display currency. Every conversion routes
// through ToDisplayCurrency so totals, categories and series agree.
func (s *Service) Summary(ctx context.Context, userID string) (*models.Summary, error) {
	holdings, err := s.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	fxRate := s.fxRate(ctx)

	summary := &models.Summary{
		FXRate:       fxRate,
		HoldingCount: len(holdings),
		ComputedAt:   now,
	}

	byCategory := make(map[models.Category]*models.CategoryTotal)
	for i := range holdings {
		h := &holdings[i]

		invested := ToDisplayCurrency(h.InvestedAmount, h.Category, fxRate)
		var current float64
		if h.Category.IsFixedIncome() {
			current = CompoundValue(h.InvestedAmount, h.InterestRate, purchaseOrDefault(h, models.PeriodYear, now), now)
		} else {
			current = ToDisplayCurrency(h.CurrentValue, h.Category, fxRate)
		}

		summary.TotalInvested += invested
		summary.TotalValue += current

		ct := byCategory[h.Category]
		if ct == nil {
			ct = &models.CategoryTotal{Category: h.Category}
			byCategory[h.Category] = ct
		}
		ct.InvestedValue += invested
		ct.CurrentValue += current
		ct.ProfitLoss += current - invested
		ct.HoldingCount++
	}

	summary.ProfitLoss = summary.TotalValue - summary.TotalInvested
	if summary.TotalInvested > 0 {
		summary.ProfitLossPercent = summary.ProfitLoss / summary.TotalInvested * 100
	}

	summary.Categories = make([]models.CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		summary.Categories = append(summary.Categories, *ct)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].CurrentValue > summary.Categories[j].CurrentValue
	})

	return summary, nil
}

// Series reconstructs the portfolio value series for a period. Price
// histories are fetched concurrently and combined only after all lookups
// settle; a slow or failing symbol degrades its own holding only.
func (s *Service) Series(ctx context.Context, userID string, period models.Period) ([]models.SeriesPoint, error) {
	holdings, err := s.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, nil
	}

	now := s.now()
	fxRate := s.fxRate(ctx)
	histories := s.fetchHistories(ctx, holdings, period, now)

	return BuildSeries(holdings, period, histories, fxRate, now), nil
}

// SeriesChart renders the reconstructed series as a PNG chart.
func (s *Service) SeriesChart(ctx context.Context, userID string, period models.Period) ([]byte, error) {
	points, err := s.Series(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	return RenderSeriesChart(points, period)
}

// Transactions returns the user's transaction log, newest first.
func (s *Service) Transactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
	return txs, nil
}

// fetchHistories retrieves price history for every holding with a
// resolvable symbol, one lookup per symbol in parallel. Failures are logged
// and the holding falls back to smoothed interpolation.
func (s *Service) fetchHistories(ctx context.Context, holdings []models.Holding, period models.Period, now time.Time) map[string][]models.PricePoint {
	histories := make(map[string][]models.PricePoint)
	if s.market == nil {
		return histories
	}

	from := now.Add(-period.Duration())
	interval := historyInterval(period)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := range holdings {
		h := holdings[i]
		if !h.HasSymbol() {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			points, err := s.market.History(ctx, NormalizeTicker(h.Ticker), h.Category.Market(),
				interfaces.WithDateRange(from, now),
				interfaces.WithInterval(interval),
			)
			if err != nil || len(points) == 0 {
				s.logger.Debug().
					Str("ticker", h.Ticker).
					AnErr("error", err).
					Msg("No price history, using smoothed fallback")
				return
			}
			mu.Lock()
			histories[h.ID] = points
			mu.Unlock()
		}()
	}
	wg.Wait()

	return histories
}

// fetchQuotes retrieves current quotes for market holdings concurrently.
func (s *Service) fetchQuotes(ctx context.Context, holdings []models.Holding) map[string]*models.Quote {
	quotes := make(map[string]*models.Quote)
	if s.market == nil {
		return quotes
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := range holdings {
		h := holdings[i]
		if !h.HasSymbol() {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := s.market.Quote(ctx, NormalizeTicker(h.Ticker), h.Category.Market())
			if err != nil {
				s.logger.Debug().Str("ticker", h.Ticker).Err(err).Msg("Quote unavailable, keeping last price")
				return
			}
			mu.Lock()
			quotes[h.ID] = q
			mu.Unlock()
		}()
	}
	wg.Wait()

	return quotes
}

// fxRate resolves the USD→display rate, caching the last good value. When
// the provider is unavailable and nothing was cached, 1.0 is used and USD
// figures are shown unconverted rather than failing the whole view.
func (s *Service) fxRate(ctx context.Context) float64 {
	if s.fx != nil {
		if rate, err := s.fx.USDRate(ctx); err == nil && rate > 0 {
			s.fxMu.Lock()
			s.lastFXRate = rate
			s.fxMu.Unlock()
			return rate
		} else if err != nil {
			s.logger.Warn().Err(err).Msg("FX rate unavailable, using last known")
		}
	}

	s.fxMu.Lock()
	defer s.fxMu.Unlock()
	if s.lastFXRate > 0 {
		return s.lastFXRate
	}
	return 1
}

// historyInterval maps a period to the provider sampling interval.
func historyInterval(period models.Period) string {
	switch period {
	case models.Period24h:
		return "1h"
	case models.PeriodWeek, models.PeriodMonth:
		return "1d"
	case models.Period3Month, models.Period6Month:
		return "1wk"
	default:
		return "1mo"
	}
}

func validateBuy(in interfaces.BuyInput) error {
	if !in.Category.IsValid() {
		return fmt.Errorf("unknown category %q", in.Category)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("buy quantity must be positive")
	}
	if in.Price < 0 {
		return fmt.Errorf("buy price must not be negative")
	}
	if in.Name == "" && in.Ticker == "" {
		return fmt.Errorf("holding needs a name or a ticker")
	}
	return nil
}

func findByKey(holdings []models.Holding, key string) *models.Holding {
	for i := range holdings {
		if HoldingKey(&holdings[i]) == key {
			return &holdings[i]
		}
	}
	return nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
