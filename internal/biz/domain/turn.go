package domain

// Intent is the conversation stage a turn is routed to.
type Intent string

const (
	IntentSales    Intent = "sales"
	IntentCheckout Intent = "checkout"
)

// ToolCall records one tool invocation made by the responder during a
// turn, kept so replies can be checked against the actions actually
// taken.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// TurnResult is the outcome of running one consolidated turn through a
// responder.
type TurnResult struct {
	Text      string
	ToolCalls []ToolCall
	Intent    Intent
}

// Called reports whether any of the given tool names was invoked.
func (r *TurnResult) Called(names ...string) bool {
	for _, c := range r.ToolCalls {
		for _, n := range names {
			if c.Name == n {
				return true
			}
		}
	}
	return false
}
