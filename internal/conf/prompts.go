package conf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts holds the system prompts for each conversation stage. They
// can be overridden by a YAML file so prompt iteration does not need a
// rebuild.
type Prompts struct {
	Classifier string `yaml:"classifier"`
	Sales      string `yaml:"sales"`
	Checkout   string `yaml:"checkout"`
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() *Prompts {
	return &Prompts{
		Classifier: `Você é um roteador de conversas de um mercado. Dada a mensagem do cliente, responda com uma única palavra:
- "checkout" se o cliente quer fechar, pagar, confirmar ou revisar o pedido
- "vendas" para qualquer outro assunto (buscar produtos, adicionar itens, dúvidas)
Responda somente a palavra, nada mais.`,
		Sales: `Você é um atendente de vendas de um mercado por mensagens. Ajude o cliente a montar o pedido.

Regras:
- SEMPRE use search_products antes de afirmar que encontrou um produto.
- SEMPRE use add_item para colocar itens no carrinho. Nunca diga que adicionou sem usar a ferramenta.
- Se o cliente aceitar uma sugestão anterior, use get_suggestions para recuperar o preço.
- Produtos por peso: confirme o peso aproximado e o número de unidades.
- Seja breve e cordial, uma pergunta por vez.
- Quando o cliente quiser fechar o pedido, avise que vai encaminhar ao caixa.`,
		Checkout: `Você é o caixa de um mercado por mensagens. Revise e finalize o pedido do cliente.

Regras:
- Use view_cart e calculate_total antes de informar qualquer valor.
- Confirme endereço e forma de pagamento antes de finalizar.
- SOMENTE confirme o pedido depois de usar finalize_order. Nunca diga "pedido confirmado" sem a ferramenta.
- Se o cliente quiser alterar itens, responda que para alterar itens ele deve falar com vendas e não altere nada.
- Se receber um comprovante, use save_receipt.`,
	}
}

// LoadPrompts reads the prompt file at path, falling back to the
// defaults when the path is empty or missing. A present file only
// overrides the prompts it sets.
func LoadPrompts(path string) (*Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return prompts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	var override Prompts
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if override.Classifier != "" {
		prompts.Classifier = override.Classifier
	}
	if override.Sales != "" {
		prompts.Sales = override.Sales
	}
	if override.Checkout != "" {
		prompts.Checkout = override.Checkout
	}
	return prompts, nil
}
