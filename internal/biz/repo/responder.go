package repo

import (
	"context"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
)

// Responder runs one consolidated turn through a language model with
// tool access and returns the reply text plus the tools it called.
type Responder interface {
	// Run answers the turn for the given customer and intent. An extra
	// instruction, when non-empty, is injected as a system message
	// (used for the single hallucination retry).
	Run(ctx context.Context, customer, message string, intent domain.Intent, instruction string) (*domain.TurnResult, error)
}

// Classifier decides which conversation stage a turn belongs to.
type Classifier interface {
	Classify(ctx context.Context, customer, message string) (domain.Intent, error)
}
