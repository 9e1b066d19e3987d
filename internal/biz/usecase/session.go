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

// SessionUsecase manages the order session lifecycle: one session per
// customer, building for a bounded window, then a shorter modification
// window once the order is sent.
type SessionUsecase struct {
	store  repo.Store
	config domain.SessionConfig
	log    zerolog.Logger
}

// NewSessionUsecase creates a session usecase.
func NewSessionUsecase(store repo.Store, config domain.SessionConfig, log zerolog.Logger) *SessionUsecase {
	return &SessionUsecase{store: store, config: config, log: log}
}

// Get returns the customer's session, or nil when none is active.
// Absence is a normal state, not an error.
func (uc *SessionUsecase) Get(ctx context.Context, customer string) (*domain.Session, error) {
	raw, err := uc.store.Get(ctx, sessionKey(customer))
	if err == repo.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s domain.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// GetOrStart returns the active session, creating a fresh building
// session when none exists.
func (uc *SessionUsecase) GetOrStart(ctx context.Context, customer string) (*domain.Session, error) {
	s, err := uc.Get(ctx, customer)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s, nil
	}
	s = &domain.Session{Status: domain.StatusBuilding, StartedAt: time.Now()}
	if err := uc.save(ctx, customer, s, uc.config.BuildingTTL); err != nil {
		return nil, err
	}
	uc.log.Info().Str("customer", customer).Msg("session started")
	return s, nil
}

// MarkSent transitions the session to sent and shrinks its TTL to the
// modification window. The cart and receipt move to the same window so
// all order state expires together.
func (uc *SessionUsecase) MarkSent(ctx context.Context, customer, orderID string) error {
	s, err := uc.Get(ctx, customer)
	if err != nil {
		return err
	}
	if s == nil {
		s = &domain.Session{Status: domain.StatusBuilding, StartedAt: time.Now()}
	}
	s.MarkSent(orderID)
	if err := uc.save(ctx, customer, s, uc.config.ModificationTTL); err != nil {
		return err
	}
	for _, key := range []string{cartKey(customer), receiptKey(customer)} {
		if _, err := uc.store.Expire(ctx, key, uc.config.ModificationTTL); err != nil {
			return fmt.Errorf("expire %s: %w", key, err)
		}
	}
	uc.log.Info().Str("customer", customer).Str("order_id", orderID).Msg("session marked sent")
	return nil
}

// Refresh extends a sent session's modification window after a
// successful resync.
func (uc *SessionUsecase) Refresh(ctx context.Context, customer string) error {
	s, err := uc.Get(ctx, customer)
	if err != nil || s == nil {
		return err
	}
	ttl := uc.config.BuildingTTL
	if s.IsSent() {
		ttl = uc.config.ModificationTTL
	}
	return uc.save(ctx, customer, s, ttl)
}

// Complete closes the order: the session, cart, and suggestions are
// dropped and a completion marker is left so a follow-up greeting is
// recognized as a new visit.
func (uc *SessionUsecase) Complete(ctx context.Context, customer string) error {
	for _, key := range []string{sessionKey(customer), cartKey(customer), suggestionsKey(customer)} {
		if err := uc.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
	}
	if err := uc.store.Set(ctx, completedKey(customer), "1", uc.config.CompletedTTL); err != nil {
		return fmt.Errorf("set completed marker: %w", err)
	}
	uc.log.Info().Str("customer", customer).Msg("order completed")
	return nil
}

// FlagCompleted leaves the completion marker without touching session
// state, so a sent order stays modifiable for its window while a later
// greeting still starts a clean visit.
func (uc *SessionUsecase) FlagCompleted(ctx context.Context, customer string) error {
	if err := uc.store.Set(ctx, completedKey(customer), "1", uc.config.CompletedTTL); err != nil {
		return fmt.Errorf("set completed marker: %w", err)
	}
	return nil
}

// Clear removes all session state without leaving a completion marker.
func (uc *SessionUsecase) Clear(ctx context.Context, customer string) error {
	for _, key := range []string{sessionKey(customer), cartKey(customer), suggestionsKey(customer), receiptKey(customer), completedKey(customer)} {
		if err := uc.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	return nil
}

// RecentlyCompleted reports whether the customer finished an order
// inside the completion marker window.
func (uc *SessionUsecase) RecentlyCompleted(ctx context.Context, customer string) (bool, error) {
	ok, err := uc.store.Exists(ctx, completedKey(customer))
	if err != nil {
		return false, fmt.Errorf("check completed marker: %w", err)
	}
	return ok, nil
}

// PrepareTurn resets stale state before a turn is answered. A greeting
// from a customer whose order was already sent or recently completed
// starts a clean visit instead of resurrecting the old cart: session,
// cart, suggestions, and pending receipt are cleared and a fresh
// building session opens.
func (uc *SessionUsecase) PrepareTurn(ctx context.Context, customer, message string) error {
	if !domain.IsGreeting(message) {
		return nil
	}
	session, err := uc.Get(ctx, customer)
	if err != nil {
		return err
	}
	done, err := uc.RecentlyCompleted(ctx, customer)
	if err != nil {
		return err
	}
	if (session == nil || !session.IsSent()) && !done {
		return nil
	}
	uc.log.Info().Str("customer", customer).Msg("greeting after finished order, starting fresh visit")
	if err := uc.Clear(ctx, customer); err != nil {
		return err
	}
	_, err = uc.GetOrStart(ctx, customer)
	return err
}

func (uc *SessionUsecase) save(ctx context.Context, customer string, s *domain.Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := uc.store.Set(ctx, sessionKey(customer), string(raw), ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
