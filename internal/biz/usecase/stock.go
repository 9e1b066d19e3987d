package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// stockService names the stock backend in the circuit breaker keys.
const stockService = "stock"

// StockConfig configures stock lookups.
type StockConfig struct {
	Timeouts   []time.Duration // Per-attempt timeouts, len is the retry count
	RetryPause time.Duration
	CacheTTL   time.Duration
}

// DefaultStockConfig returns the default stock configuration.
func DefaultStockConfig() StockConfig {
	return StockConfig{
		Timeouts:   []time.Duration{10 * time.Second, 15 * time.Second, 20 * time.Second},
		RetryPause: 500 * time.Millisecond,
		CacheTTL:   6 * time.Hour,
	}
}

// StockUsecase queries the stock backend with retries, a circuit
// breaker, and a cached fallback so a flapping backend degrades to
// slightly stale prices instead of errors.
type StockUsecase struct {
	stock   repo.StockRepo
	store   repo.Store
	breaker *BreakerUsecase
	config  StockConfig
	log     zerolog.Logger
}

// NewStockUsecase creates a stock usecase.
func NewStockUsecase(stock repo.StockRepo, store repo.Store, breaker *BreakerUsecase, config StockConfig, log zerolog.Logger) *StockUsecase {
	return &StockUsecase{stock: stock, store: store, breaker: breaker, config: config, log: log}
}

// Search looks the term up in the catalog. When the breaker is open or
// every attempt fails, the cached result for the term is served.
func (uc *StockUsecase) Search(ctx context.Context, term string) ([]repo.Product, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, fmt.Errorf("stock search: empty term")
	}

	allowed, err := uc.breaker.Allow(ctx, stockService)
	if err != nil {
		// An unreadable breaker counts as closed so a store hiccup
		// never blocks the catalog.
		uc.log.Warn().Err(err).Str("term", term).Msg("breaker check failed, proceeding")
		allowed = true
	}
	if !allowed {
		uc.log.Warn().Str("term", term).Msg("stock breaker open, serving cache")
		return uc.cached(ctx, term)
	}

	var lastErr error
	for attempt, timeout := range uc.config.Timeouts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(uc.config.RetryPause):
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		products, err := uc.stock.Search(attemptCtx, term)
		cancel()
		if err == nil {
			if err := uc.breaker.ReportSuccess(ctx, stockService); err != nil {
				uc.log.Warn().Err(err).Msg("breaker success report failed")
			}
			if err := uc.cache(ctx, term, products); err != nil {
				uc.log.Warn().Err(err).Str("term", term).Msg("stock cache write failed")
			}
			return products, nil
		}
		// Every failed attempt counts toward tripping the breaker, so
		// sustained timeouts open it even when single searches are slow.
		if reportErr := uc.breaker.ReportFailure(ctx, stockService); reportErr != nil {
			uc.log.Warn().Err(reportErr).Msg("breaker failure report failed")
		}
		lastErr = err
		uc.log.Warn().Err(err).Str("term", term).Int("attempt", attempt+1).Msg("stock lookup failed")
	}

	products, cacheErr := uc.cached(ctx, term)
	if cacheErr != nil {
		return nil, fmt.Errorf("stock search %q: %w", term, lastErr)
	}
	return products, nil
}

func (uc *StockUsecase) cache(ctx context.Context, term string, products []repo.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode stock cache: %w", err)
	}
	return uc.store.Set(ctx, stockCacheKey(term), string(raw), uc.config.CacheTTL)
}

func (uc *StockUsecase) cached(ctx context.Context, term string) ([]repo.Product, error) {
	raw, err := uc.store.Get(ctx, stockCacheKey(term))
	if err != nil {
		return nil, fmt.Errorf("stock cache miss for %q: %w", term, err)
	}
	var products []repo.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, fmt.Errorf("decode stock cache: %w", err)
	}
	uc.log.Info().Str("term", term).Int("products", len(products)).Msg("stock served from cache")
	return products, nil
}
