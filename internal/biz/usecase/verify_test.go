package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
)

func turn(text string, tools ...string) *domain.TurnResult {
	r := &domain.TurnResult{Text: text}
	for _, name := range tools {
		r.ToolCalls = append(r.ToolCalls, domain.ToolCall{Name: name})
	}
	return r
}

func TestSalesVerifierAddClaim(t *testing.T) {
	v := SalesVerifier{}

	ok, instruction := v.Check(turn("Adicionei 2kg de picanha ao seu carrinho!"))
	assert.False(t, ok, "add claim without add_item is a hallucination")
	assert.NotEmpty(t, instruction)

	ok, _ = v.Check(turn("Adicionei 2kg de picanha ao seu carrinho!", ToolAddItem))
	assert.True(t, ok)

	ok, _ = v.Check(turn("Item adicionado!", ToolUpdateItem))
	assert.True(t, ok, "update also covers an added claim")
}

func TestSalesVerifierFoundClaim(t *testing.T) {
	v := SalesVerifier{}

	ok, _ := v.Check(turn("Encontrei picanha por R$ 69,90 o kg."))
	assert.False(t, ok, "found claim without a catalog lookup is a hallucination")

	ok, _ = v.Check(turn("Encontrei picanha por R$ 69,90 o kg.", ToolSearchProducts))
	assert.True(t, ok)

	ok, _ = v.Check(turn("Encontrei nas sugestões!", ToolGetSuggestions))
	assert.True(t, ok)
}

func TestSalesVerifierPlainReply(t *testing.T) {
	v := SalesVerifier{}

	ok, _ := v.Check(turn("Quantos quilos você quer?"))
	assert.True(t, ok)
}

func TestCheckoutVerifierConfirmClaim(t *testing.T) {
	v := CheckoutVerifier{}

	for _, text := range []string{
		"Pedido confirmado! Chega em 40 minutos.",
		"Seu pedido enviado para a loja.",
		"Pedido finalizado com sucesso.",
		"✅ Pedido registrado!",
	} {
		ok, instruction := v.Check(turn(text))
		assert.False(t, ok, "confirmation without finalize_order: %q", text)
		assert.NotEmpty(t, instruction)
	}

	ok, _ := v.Check(turn("Pedido confirmado!", ToolFinalizeOrder))
	assert.True(t, ok)
}

func TestCheckoutVerifierTotalClaim(t *testing.T) {
	v := CheckoutVerifier{}

	ok, _ := v.Check(turn("O total: R$ 142 com a entrega."))
	assert.False(t, ok, "quoted total without calculating is a hallucination")

	ok, _ = v.Check(turn("O total: R$ 142 com a entrega.", ToolCalculateTotal))
	assert.True(t, ok)

	ok, _ = v.Check(turn("Total R$ 142, pedido enviado!", ToolFinalizeOrder))
	assert.True(t, ok, "finalize covers the total claim")
}

func TestVerifierFor(t *testing.T) {
	assert.IsType(t, SalesVerifier{}, VerifierFor(domain.IntentSales))
	assert.IsType(t, CheckoutVerifier{}, VerifierFor(domain.IntentCheckout))
}
