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

// BufferConfig configures message debouncing.
type BufferConfig struct {
	TTL       time.Duration // Safety expiry on the buffer key
	QuietTime time.Duration // Poll interval while waiting for the customer to pause
	MaxStalls int           // Polls without growth before the buffer is drained
}

// DefaultBufferConfig returns the default buffer configuration.
func DefaultBufferConfig() BufferConfig {
	return BufferConfig{TTL: 5 * time.Minute, QuietTime: 5 * time.Second, MaxStalls: 3}
}

// BufferUsecase accumulates message fragments per customer so rapid
// bursts are answered as one turn.
type BufferUsecase struct {
	store  repo.Store
	config BufferConfig
	log    zerolog.Logger
}

// NewBufferUsecase creates a buffer usecase.
func NewBufferUsecase(store repo.Store, config BufferConfig, log zerolog.Logger) *BufferUsecase {
	return &BufferUsecase{store: store, config: config, log: log}
}

// Append adds a fragment to the customer's buffer.
func (uc *BufferUsecase) Append(ctx context.Context, customer string, fragment domain.Fragment) error {
	raw, err := json.Marshal(fragment)
	if err != nil {
		return fmt.Errorf("encode fragment: %w", err)
	}
	if err := uc.store.RPush(ctx, bufferKey(customer), string(raw)); err != nil {
		return fmt.Errorf("buffer append: %w", err)
	}
	if _, err := uc.store.Expire(ctx, bufferKey(customer), uc.config.TTL); err != nil {
		return fmt.Errorf("buffer expire: %w", err)
	}
	return nil
}

// Len returns the number of pending fragments.
func (uc *BufferUsecase) Len(ctx context.Context, customer string) (int64, error) {
	n, err := uc.store.LLen(ctx, bufferKey(customer))
	if err != nil {
		return 0, fmt.Errorf("buffer len: %w", err)
	}
	return n, nil
}

// Drain atomically takes every pending fragment and joins them into
// one consolidated turn, preserving arrival order. Empty string means
// nothing was pending.
func (uc *BufferUsecase) Drain(ctx context.Context, customer string) (string, error) {
	entries, err := uc.store.Drain(ctx, bufferKey(customer))
	if err != nil {
		return "", fmt.Errorf("buffer drain: %w", err)
	}
	if len(entries) == 0 {
		return "", nil
	}
	texts := make([]string, 0, len(entries))
	for _, entry := range entries {
		var fragment domain.Fragment
		if err := json.Unmarshal([]byte(entry), &fragment); err != nil {
			// Pre-JSON entries degrade to their raw text.
			texts = append(texts, entry)
			continue
		}
		texts = append(texts, fragment.Text)
	}
	uc.log.Debug().Str("customer", customer).Int("fragments", len(texts)).Msg("buffer drained")
	return domain.JoinFragments(texts), nil
}

// AwaitQuiet blocks until the buffer stops growing: it polls at the
// quiet interval and returns once MaxStalls consecutive polls see no
// new fragments, or the context ends.
func (uc *BufferUsecase) AwaitQuiet(ctx context.Context, customer string) error {
	stalls := 0
	last, err := uc.Len(ctx, customer)
	if err != nil {
		return err
	}
	for stalls < uc.config.MaxStalls {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(uc.config.QuietTime):
		}
		n, err := uc.Len(ctx, customer)
		if err != nil {
			return err
		}
		if n == last {
			stalls++
			continue
		}
		stalls = 0
		last = n
	}
	return nil
}
