package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// LockConfig configures the per-customer turn lock.
type LockConfig struct {
	TTL time.Duration // Upper bound on a turn's duration
}

// DefaultLockConfig returns the default lock configuration.
func DefaultLockConfig() LockConfig {
	return LockConfig{TTL: 2 * time.Minute}
}

// LockUsecase serializes turn processing per customer. The lock is a
// token written with SetNX so only the holder can release it, and the
// TTL guarantees a crashed holder never wedges the customer.
type LockUsecase struct {
	store  repo.Store
	config LockConfig
	log    zerolog.Logger
}

// NewLockUsecase creates a lock usecase.
func NewLockUsecase(store repo.Store, config LockConfig, log zerolog.Logger) *LockUsecase {
	return &LockUsecase{store: store, config: config, log: log}
}

// Acquire tries to take the customer's lock. It returns the holder
// token on success, or ok=false when another turn is in flight.
func (uc *LockUsecase) Acquire(ctx context.Context, customer string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := uc.store.SetNX(ctx, lockKey(customer), token, uc.config.TTL)
	if err != nil {
		return "", false, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		uc.log.Debug().Str("customer", customer).Msg("lock busy")
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock if the token still matches. A mismatched or
// expired token is a no-op: the lock already belongs to someone else.
func (uc *LockUsecase) Release(ctx context.Context, customer, token string) error {
	current, err := uc.store.Get(ctx, lockKey(customer))
	if err == repo.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if current != token {
		uc.log.Warn().Str("customer", customer).Msg("lock token mismatch, not releasing")
		return nil
	}
	if err := uc.store.Delete(ctx, lockKey(customer)); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
