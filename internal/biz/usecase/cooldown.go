package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// CooldownConfig configures the human-takeover cooldown.
type CooldownConfig struct {
	TTL time.Duration
}

// DefaultCooldownConfig returns the default cooldown configuration.
func DefaultCooldownConfig() CooldownConfig {
	return CooldownConfig{TTL: 40 * time.Minute}
}

// CooldownUsecase silences the automated responder for a customer
// while a human attendant handles the conversation.
type CooldownUsecase struct {
	store  repo.Store
	config CooldownConfig
	log    zerolog.Logger
}

// NewCooldownUsecase creates a cooldown usecase.
func NewCooldownUsecase(store repo.Store, config CooldownConfig, log zerolog.Logger) *CooldownUsecase {
	return &CooldownUsecase{store: store, config: config, log: log}
}

// Activate starts (or extends) the cooldown window.
func (uc *CooldownUsecase) Activate(ctx context.Context, customer string) error {
	if err := uc.store.Set(ctx, cooldownKey(customer), "1", uc.config.TTL); err != nil {
		return fmt.Errorf("activate cooldown: %w", err)
	}
	uc.log.Info().Str("customer", customer).Dur("ttl", uc.config.TTL).Msg("cooldown activated")
	return nil
}

// Deactivate ends the cooldown early.
func (uc *CooldownUsecase) Deactivate(ctx context.Context, customer string) error {
	if err := uc.store.Delete(ctx, cooldownKey(customer)); err != nil {
		return fmt.Errorf("deactivate cooldown: %w", err)
	}
	return nil
}

// Active reports whether the responder is silenced for the customer.
func (uc *CooldownUsecase) Active(ctx context.Context, customer string) (bool, error) {
	ok, err := uc.store.Exists(ctx, cooldownKey(customer))
	if err != nil {
		return false, fmt.Errorf("check cooldown: %w", err)
	}
	return ok, nil
}
