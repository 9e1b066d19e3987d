package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
	"github.com/zapmercado/order-bridge/internal/biz/usecase"
	"github.com/zapmercado/order-bridge/internal/data"
)

// fakeRouter echoes the consolidated message it received.
type fakeRouter struct {
	mu       sync.Mutex
	handled  []string
	delay    time.Duration
	response string
}

func (f *fakeRouter) Handle(_ context.Context, _, message string) (string, error) {
	f.mu.Lock()
	f.handled = append(f.handled, message)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.response != "" {
		return f.response, nil
	}
	return "ok: " + message, nil
}

func (f *fakeRouter) turns() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.handled...)
}

// fakeSender records outbound replies.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSender) replies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newTurnFixture(t *testing.T, router Router) (*TurnService, *usecase.CooldownUsecase, *fakeSender) {
	t.Helper()
	store := data.NewMemStore()
	bufferConfig := usecase.BufferConfig{TTL: time.Minute, QuietTime: 10 * time.Millisecond, MaxStalls: 2}
	buffer := usecase.NewBufferUsecase(store, bufferConfig, zerolog.Nop())
	lock := usecase.NewLockUsecase(store, usecase.DefaultLockConfig(), zerolog.Nop())
	cooldown := usecase.NewCooldownUsecase(store, usecase.DefaultCooldownConfig(), zerolog.Nop())
	sender := &fakeSender{}
	turns := NewTurnService(buffer, lock, cooldown, router, sender, zerolog.Nop())
	t.Cleanup(turns.Stop)
	return turns, cooldown, sender
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestTurnConsolidatesBurst(t *testing.T) {
	router := &fakeRouter{}
	turns, _, sender := newTurnFixture(t, router)
	ctx := context.Background()

	require.NoError(t, turns.Enqueue(ctx, "+55 11 99999-0000", "quero arroz", ""))
	require.NoError(t, turns.Enqueue(ctx, "+55 11 99999-0000", "e feijão", ""))

	waitFor(t, 2*time.Second, func() bool { return len(router.turns()) == 1 })

	handled := router.turns()
	require.Len(t, handled, 1, "burst collapses into one turn")
	assert.Equal(t, "quero arroz | e feijão", handled[0])

	replies := sender.replies()
	require.Len(t, replies, 1)
	assert.Equal(t, "ok: quero arroz | e feijão", replies[0])
}

func TestTurnProcessesLateFragmentsAsNewTurn(t *testing.T) {
	router := &fakeRouter{delay: 50 * time.Millisecond}
	turns, _, _ := newTurnFixture(t, router)
	ctx := context.Background()

	require.NoError(t, turns.Enqueue(ctx, "5511999", "primeira", ""))
	waitFor(t, 2*time.Second, func() bool { return len(router.turns()) >= 1 })

	// Arrives while the first turn is still being answered.
	require.NoError(t, turns.Enqueue(ctx, "5511999", "segunda", ""))

	waitFor(t, 2*time.Second, func() bool { return len(router.turns()) >= 2 })
	handled := router.turns()
	assert.Equal(t, "primeira", handled[0])
	assert.Contains(t, handled[1], "segunda")
}

func TestTurnCooldownSilences(t *testing.T) {
	router := &fakeRouter{}
	turns, cooldown, sender := newTurnFixture(t, router)
	ctx := context.Background()

	require.NoError(t, cooldown.Activate(ctx, "5511999"))
	require.NoError(t, turns.Enqueue(ctx, "5511999", "oi", ""))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, router.turns(), "cooldown drops messages before buffering")
	assert.Empty(t, sender.replies())
}

func TestTurnIndependentCustomers(t *testing.T) {
	router := &fakeRouter{}
	turns, _, _ := newTurnFixture(t, router)
	ctx := context.Background()

	require.NoError(t, turns.Enqueue(ctx, "111", "cliente um", ""))
	require.NoError(t, turns.Enqueue(ctx, "222", "cliente dois", ""))

	waitFor(t, 2*time.Second, func() bool { return len(router.turns()) == 2 })
}

// faultyLockStore fails lock claims while the rest of the store works.
type faultyLockStore struct {
	repo.Store
}

func (f *faultyLockStore) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return false, errors.New("store down")
}

func TestTurnAnswersWhenLockUnavailable(t *testing.T) {
	router := &fakeRouter{}
	store := data.NewMemStore()
	bufferConfig := usecase.BufferConfig{TTL: time.Minute, QuietTime: 10 * time.Millisecond, MaxStalls: 2}
	buffer := usecase.NewBufferUsecase(store, bufferConfig, zerolog.Nop())
	lock := usecase.NewLockUsecase(&faultyLockStore{Store: store}, usecase.DefaultLockConfig(), zerolog.Nop())
	cooldown := usecase.NewCooldownUsecase(store, usecase.DefaultCooldownConfig(), zerolog.Nop())
	sender := &fakeSender{}
	turns := NewTurnService(buffer, lock, cooldown, router, sender, zerolog.Nop())
	t.Cleanup(turns.Stop)

	require.NoError(t, turns.Enqueue(context.Background(), "5511999", "oi", ""))

	waitFor(t, 2*time.Second, func() bool { return len(sender.replies()) == 1 })
	assert.Equal(t, "ok: oi", sender.replies()[0], "a store failure never swallows the turn")
}

func TestTurnNoFragmentLostAcrossLoopHandoff(t *testing.T) {
	router := &fakeRouter{}
	turns, _, _ := newTurnFixture(t, router)
	ctx := context.Background()

	// Spaced so fragments straddle turn boundaries and loop restarts.
	for i := 0; i < 6; i++ {
		require.NoError(t, turns.Enqueue(ctx, "5511999", fmt.Sprintf("mensagem %d", i), ""))
		time.Sleep(12 * time.Millisecond)
	}

	waitFor(t, 3*time.Second, func() bool {
		joined := strings.Join(router.turns(), " | ")
		for i := 0; i < 6; i++ {
			if !strings.Contains(joined, fmt.Sprintf("mensagem %d", i)) {
				return false
			}
		}
		return true
	})
}

func TestTurnIgnoresBlankInput(t *testing.T) {
	router := &fakeRouter{}
	turns, _, _ := newTurnFixture(t, router)
	ctx := context.Background()

	require.NoError(t, turns.Enqueue(ctx, "", "oi", ""))
	require.NoError(t, turns.Enqueue(ctx, "5511999", "", ""))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, router.turns())
}
