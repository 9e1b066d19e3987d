package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/repo"
	"github.com/zapmercado/order-bridge/internal/biz/usecase"
)

// BusyReply is sent when a message arrives while the previous turn is
// still being answered.
const BusyReply = "Estou finalizando sua última solicitação, um momento por favor 🙏"

// turnTimeout bounds one consolidated turn end to end.
const turnTimeout = 3 * time.Minute

// Router answers one consolidated turn.
type Router interface {
	Handle(ctx context.Context, customer, message string) (string, error)
}

// TurnService receives raw customer messages, debounces them into
// consolidated turns, and runs each turn through the router under the
// per-customer lock. One debounce loop runs per customer at a time.
type TurnService struct {
	buffer   *usecase.BufferUsecase
	lock     *usecase.LockUsecase
	cooldown *usecase.CooldownUsecase
	router   Router
	sender   repo.Sender
	log      zerolog.Logger

	mu      sync.Mutex
	running map[string]bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewTurnService creates a turn service.
func NewTurnService(
	buffer *usecase.BufferUsecase,
	lock *usecase.LockUsecase,
	cooldown *usecase.CooldownUsecase,
	router Router,
	sender repo.Sender,
	log zerolog.Logger,
) *TurnService {
	ctx, cancel := context.WithCancel(context.Background())
	return &TurnService{
		buffer:   buffer,
		lock:     lock,
		cooldown: cooldown,
		router:   router,
		sender:   sender,
		log:      log,
		running:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Enqueue buffers one incoming message fragment and ensures a debounce
// loop is running for the customer. Messages during a human-takeover
// cooldown are dropped.
func (s *TurnService) Enqueue(ctx context.Context, customer, text, msgID string) error {
	customer = domain.NormalizeCustomer(customer)
	if customer == "" || text == "" {
		return nil
	}

	silenced, err := s.cooldown.Active(ctx, customer)
	if err != nil {
		return err
	}
	if silenced {
		s.log.Debug().Str("customer", customer).Msg("cooldown active, message ignored")
		return nil
	}

	if err := s.buffer.Append(ctx, customer, domain.Fragment{Text: text, MsgID: msgID}); err != nil {
		return err
	}

	s.mu.Lock()
	if s.running[customer] {
		s.mu.Unlock()
		return nil
	}
	s.running[customer] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.debounce(customer)
	return nil
}

// Stop cancels in-flight loops and waits for them to exit.
func (s *TurnService) Stop() {
	s.cancel()
	s.wg.Wait()
}

// debounce waits for the customer to go quiet, drains the buffer into
// one turn, answers it, then re-checks the buffer for fragments that
// arrived while the turn was in flight.
func (s *TurnService) debounce(customer string) {
	defer s.wg.Done()
	owned := true
	defer func() {
		if owned {
			s.mu.Lock()
			delete(s.running, customer)
			s.mu.Unlock()
		}
	}()

	for {
		if err := s.buffer.AwaitQuiet(s.ctx, customer); err != nil {
			return
		}
		message, err := s.buffer.Drain(s.ctx, customer)
		if err != nil {
			s.log.Error().Err(err).Str("customer", customer).Msg("buffer drain failed")
			return
		}
		if message == "" {
			return
		}
		s.process(customer, message)

		// Hand the slot back before the leftover check. A fragment
		// landing between the check and an exit would otherwise see a
		// loop that is about to die, spawn nothing, and sit in the
		// buffer until its TTL discards it.
		s.mu.Lock()
		delete(s.running, customer)
		s.mu.Unlock()
		owned = false

		n, err := s.buffer.Len(s.ctx, customer)
		if err != nil || n == 0 {
			return
		}
		s.mu.Lock()
		if s.running[customer] {
			// A new loop already claimed the leftovers.
			s.mu.Unlock()
			return
		}
		s.running[customer] = true
		s.mu.Unlock()
		owned = true
	}
}

// process answers one consolidated turn under the customer lock.
func (s *TurnService) process(customer, message string) {
	ctx, cancel := context.WithTimeout(s.ctx, turnTimeout)
	defer cancel()

	token, ok, err := s.lock.Acquire(ctx, customer)
	if err != nil {
		// A store failure must not swallow the turn. Proceed unlocked,
		// the debounce loop already serializes turns in this process.
		s.log.Warn().Err(err).Str("customer", customer).Msg("lock acquire failed, proceeding unlocked")
		ok, token = true, ""
	}
	if !ok {
		s.send(ctx, customer, BusyReply)
		return
	}
	defer func() {
		if token == "" {
			return
		}
		if err := s.lock.Release(ctx, customer, token); err != nil {
			s.log.Error().Err(err).Str("customer", customer).Msg("lock release failed")
		}
	}()

	s.log.Info().Str("customer", customer).Int("length", len(message)).Msg("processing turn")
	reply, err := s.router.Handle(ctx, customer, message)
	if err != nil {
		s.log.Error().Err(err).Str("customer", customer).Msg("turn failed")
		reply = usecase.FallbackReply
	}
	if reply != "" {
		s.send(ctx, customer, reply)
	}
}

func (s *TurnService) send(ctx context.Context, customer, text string) {
	if err := s.sender.Send(ctx, customer, text); err != nil {
		s.log.Error().Err(err).Str("customer", customer).Msg("reply delivery failed")
	}
}
