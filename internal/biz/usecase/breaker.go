package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// BreakerConfig configures the per-service circuit breaker.
type BreakerConfig struct {
	Threshold int           // Failures inside the window that trip the breaker
	Window    time.Duration // Failure counting window
	Cooldown  time.Duration // How long a tripped breaker stays open
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Threshold: 5, Window: time.Minute, Cooldown: time.Minute}
}

// BreakerUsecase is a store-backed circuit breaker shared by every
// process talking to the same backend. State lives in two keys per
// service: a failure counter with a rolling window, and an open flag
// whose expiry reopens traffic.
type BreakerUsecase struct {
	store  repo.Store
	config BreakerConfig
	log    zerolog.Logger
}

// NewBreakerUsecase creates a breaker usecase.
func NewBreakerUsecase(store repo.Store, config BreakerConfig, log zerolog.Logger) *BreakerUsecase {
	return &BreakerUsecase{store: store, config: config, log: log}
}

// Allow reports whether calls to the service may proceed.
func (uc *BreakerUsecase) Allow(ctx context.Context, service string) (bool, error) {
	open, err := uc.store.Exists(ctx, openKey(service))
	if err != nil {
		return false, fmt.Errorf("breaker check: %w", err)
	}
	return !open, nil
}

// ReportFailure counts one failure. The first failure starts the
// window; reaching the threshold trips the breaker and resets the
// counter.
func (uc *BreakerUsecase) ReportFailure(ctx context.Context, service string) error {
	count, err := uc.store.Incr(ctx, failuresKey(service))
	if err != nil {
		return fmt.Errorf("breaker failure: %w", err)
	}
	if count == 1 {
		if _, err := uc.store.Expire(ctx, failuresKey(service), uc.config.Window); err != nil {
			return fmt.Errorf("breaker window: %w", err)
		}
	}
	if count < int64(uc.config.Threshold) {
		return nil
	}
	if err := uc.store.Set(ctx, openKey(service), "1", uc.config.Cooldown); err != nil {
		return fmt.Errorf("breaker open: %w", err)
	}
	if err := uc.store.Delete(ctx, failuresKey(service)); err != nil {
		return fmt.Errorf("breaker reset: %w", err)
	}
	uc.log.Warn().Str("service", service).Int64("failures", count).Dur("cooldown", uc.config.Cooldown).Msg("circuit breaker opened")
	return nil
}

// ReportSuccess clears the failure counter.
func (uc *BreakerUsecase) ReportSuccess(ctx context.Context, service string) error {
	if err := uc.store.Delete(ctx, failuresKey(service)); err != nil {
		return fmt.Errorf("breaker success: %w", err)
	}
	return nil
}
