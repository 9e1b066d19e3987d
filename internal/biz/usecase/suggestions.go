package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// SuggestionsConfig configures the short-lived suggestion cache.
type SuggestionsConfig struct {
	TTL time.Duration
}

// DefaultSuggestionsConfig returns the default suggestions configuration.
func DefaultSuggestionsConfig() SuggestionsConfig {
	return SuggestionsConfig{TTL: 10 * time.Minute}
}

// SuggestionsUsecase caches products recently offered to the customer
// so a bare "quero esse" can recover a name and price without another
// catalog round trip.
type SuggestionsUsecase struct {
	store  repo.Store
	config SuggestionsConfig
	log    zerolog.Logger
}

// NewSuggestionsUsecase creates a suggestions usecase.
func NewSuggestionsUsecase(store repo.Store, config SuggestionsConfig, log zerolog.Logger) *SuggestionsUsecase {
	return &SuggestionsUsecase{store: store, config: config, log: log}
}

// Save merges new suggestions into the customer's cache and refreshes
// its TTL.
func (uc *SuggestionsUsecase) Save(ctx context.Context, customer string, suggestions []domain.Suggestion) error {
	existing, err := uc.Get(ctx, customer)
	if err != nil {
		return err
	}
	merged := domain.MergeSuggestions(existing, suggestions)
	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode suggestions: %w", err)
	}
	if err := uc.store.Set(ctx, suggestionsKey(customer), string(raw), uc.config.TTL); err != nil {
		return fmt.Errorf("save suggestions: %w", err)
	}
	return nil
}

// Get returns the cached suggestions, empty when expired or absent.
func (uc *SuggestionsUsecase) Get(ctx context.Context, customer string) ([]domain.Suggestion, error) {
	raw, err := uc.store.Get(ctx, suggestionsKey(customer))
	if err == repo.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get suggestions: %w", err)
	}
	var suggestions []domain.Suggestion
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return suggestions, nil
}

// RecoverPrice finds a cached suggestion matching the product name, so
// an item can be added at the price the customer actually saw.
func (uc *SuggestionsUsecase) RecoverPrice(ctx context.Context, customer, productName string) (*domain.Suggestion, error) {
	suggestions, err := uc.Get(ctx, customer)
	if err != nil {
		return nil, err
	}
	match := domain.BestMatch(suggestions, productName)
	if match != nil {
		uc.log.Debug().Str("customer", customer).Str("product", productName).Str("matched", match.Name).Msg("price recovered from suggestions")
	}
	return match, nil
}
