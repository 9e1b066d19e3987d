package usecase

import (
	"regexp"
	"strings"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
)

// Tool names exposed to the responder. Verification rules key off
// these, so renaming a tool means updating its rule too.
const (
	ToolSearchProducts = "search_products"
	ToolGetSuggestions = "get_suggestions"
	ToolAddItem        = "add_item"
	ToolUpdateItem     = "update_item"
	ToolRemoveItem     = "remove_item"
	ToolViewCart       = "view_cart"
	ToolCalculateTotal = "calculate_total"
	ToolFinalizeOrder  = "finalize_order"
	ToolSaveReceipt    = "save_receipt"
	ToolSaveAddress    = "save_address"
	ToolRequestHuman   = "request_human"
)

// totalPattern matches a concrete money total quoted in a reply.
var totalPattern = regexp.MustCompile(`total[:\s]*r\$\s*\d+`)

// Verifier checks a reply against the tools actually called and
// returns a corrective instruction when the reply claims an action
// that never happened.
type Verifier interface {
	// Check returns ok=false plus a retry instruction when the reply
	// is inconsistent with the recorded tool calls.
	Check(result *domain.TurnResult) (ok bool, instruction string)
}

// SalesVerifier flags replies that claim an item was added or found
// without the matching tool call.
type SalesVerifier struct{}

func (SalesVerifier) Check(result *domain.TurnResult) (bool, string) {
	text := strings.ToLower(result.Text)
	if (strings.Contains(text, "adicionei") || strings.Contains(text, "adicionado")) &&
		!result.Called(ToolAddItem, ToolUpdateItem) {
		return false, "Você afirmou ter adicionado um item sem usar a ferramenta add_item. Refaça a resposta usando as ferramentas ou sem afirmar a adição."
	}
	if strings.Contains(text, "encontrei") && !result.Called(ToolSearchProducts, ToolGetSuggestions) {
		return false, "Você afirmou ter encontrado produtos sem consultar o catálogo. Refaça a resposta consultando as ferramentas de busca."
	}
	return true, ""
}

// CheckoutVerifier flags replies that confirm or total an order
// without the matching tool call.
type CheckoutVerifier struct{}

func (CheckoutVerifier) Check(result *domain.TurnResult) (bool, string) {
	text := strings.ToLower(result.Text)
	confirmed := strings.Contains(text, "pedido confirmado") ||
		strings.Contains(text, "pedido enviado") ||
		strings.Contains(text, "pedido finalizado") ||
		strings.Contains(text, "✅ pedido")
	if confirmed && !result.Called(ToolFinalizeOrder) {
		return false, "Você confirmou o pedido sem usar a ferramenta finalize_order. Refaça a resposta usando a ferramenta ou sem confirmar o envio."
	}
	if totalPattern.MatchString(text) && !result.Called(ToolCalculateTotal, ToolFinalizeOrder) {
		return false, "Você informou um total sem calcular pelo carrinho. Refaça a resposta usando calculate_total."
	}
	return true, ""
}

// VerifierFor returns the verifier for a conversation stage.
func VerifierFor(intent domain.Intent) Verifier {
	if intent == domain.IntentCheckout {
		return CheckoutVerifier{}
	}
	return SalesVerifier{}
}
