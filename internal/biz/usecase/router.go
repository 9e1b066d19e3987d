package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// FallbackReply is sent when the responder fails twice in a row.
const FallbackReply = "Desculpe, tive um problema técnico ao processar sua mensagem. Pode repetir, por favor?"

// RouterUsecase turns one consolidated customer message into a reply:
// it classifies the conversation stage, runs the responder, verifies
// the reply against the tools actually called, and retries once with a
// corrective instruction before falling back.
type RouterUsecase struct {
	classifier repo.Classifier
	responder  repo.Responder
	sessions   *SessionUsecase
	log        zerolog.Logger
}

// NewRouterUsecase creates a router usecase.
func NewRouterUsecase(classifier repo.Classifier, responder repo.Responder, sessions *SessionUsecase, log zerolog.Logger) *RouterUsecase {
	return &RouterUsecase{classifier: classifier, responder: responder, sessions: sessions, log: log}
}

// Handle answers one turn and returns the reply text. It never returns
// an empty reply: failures degrade to FallbackReply.
func (uc *RouterUsecase) Handle(ctx context.Context, customer, message string) (string, error) {
	if err := uc.sessions.PrepareTurn(ctx, customer, message); err != nil {
		// An unreadable session behaves like a fresh building one: the
		// turn proceeds and the reset happens on the next greeting.
		uc.log.Warn().Err(err).Str("customer", customer).Msg("turn preparation failed, continuing")
	}

	intent, err := uc.classifier.Classify(ctx, customer, message)
	if err != nil {
		// Sales handles everything the checkout stage does not, so it
		// is the safe default.
		uc.log.Warn().Err(err).Str("customer", customer).Msg("classification failed, defaulting to sales")
		intent = domain.IntentSales
	}

	reply, err := uc.dispatch(ctx, customer, message, intent)
	if err != nil {
		return "", err
	}

	// A checkout reply asking for cart changes hands the turn back to
	// sales once. The bound prevents a ping-pong loop.
	if intent == domain.IntentCheckout && wantsCartChange(reply) {
		uc.log.Info().Str("customer", customer).Msg("checkout handed turn back to sales")
		return uc.dispatch(ctx, customer, message, domain.IntentSales)
	}
	return reply, nil
}

// dispatch runs the responder for one stage with verification and a
// single corrective retry.
func (uc *RouterUsecase) dispatch(ctx context.Context, customer, message string, intent domain.Intent) (string, error) {
	verifier := VerifierFor(intent)

	result, err := uc.responder.Run(ctx, customer, message, intent, "")
	if err != nil {
		uc.log.Error().Err(err).Str("customer", customer).Str("intent", string(intent)).Msg("responder failed")
		return FallbackReply, nil
	}
	ok, instruction := verifier.Check(result)
	if ok {
		return result.Text, nil
	}

	uc.log.Warn().Str("customer", customer).Str("intent", string(intent)).Str("reply", result.Text).Msg("reply inconsistent with tool calls, retrying")
	result, err = uc.responder.Run(ctx, customer, message, intent, instruction)
	if err != nil {
		return FallbackReply, nil
	}
	if ok, _ = verifier.Check(result); !ok {
		uc.log.Error().Str("customer", customer).Msg("retry still inconsistent, sending fallback")
		return FallbackReply, nil
	}
	return result.Text, nil
}

func wantsCartChange(reply string) bool {
	text := strings.ToLower(reply)
	return strings.Contains(text, "para alterar itens") || strings.Contains(text, "mudar o pedido")
}
