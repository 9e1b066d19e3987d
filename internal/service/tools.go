package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/usecase"
	"github.com/zapmercado/order-bridge/internal/data"
)

// Toolset wires the usecases into the tool surface exposed to the
// responder, split by conversation stage.
type Toolset struct {
	Stock       *usecase.StockUsecase
	Suggestions *usecase.SuggestionsUsecase
	Carts       *usecase.CartUsecase
	Orders      *usecase.OrderUsecase
	Sessions    *usecase.SessionUsecase
	Receipts    *usecase.ReceiptUsecase
	Cooldown    *usecase.CooldownUsecase
}

// Build returns the per-stage tool map for the language model client.
func (t *Toolset) Build() map[domain.Intent][]data.Tool {
	return map[domain.Intent][]data.Tool{
		domain.IntentSales: {
			t.searchProducts(),
			t.getSuggestions(),
			t.addItem(),
			t.updateItem(),
			t.removeItem(),
			t.viewCart(),
			t.requestHuman(),
		},
		domain.IntentCheckout: {
			t.viewCart(),
			t.calculateTotal(),
			t.finalizeOrder(),
			t.saveReceipt(),
			t.saveAddress(),
			t.requestHuman(),
		},
	}
}

func def(name, description, parameters string) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  json.RawMessage(parameters),
		},
	}
}

func reply(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(raw), nil
}

func (t *Toolset) searchProducts() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolSearchProducts,
			"Busca produtos no catálogo por termo livre. Salva os resultados como sugestões recentes.",
			`{"type":"object","properties":{"termo":{"type":"string","description":"termo de busca"}},"required":["termo"]}`),
		Run: func(ctx context.Context, customer string, args json.RawMessage) (string, error) {
			var in struct {
				Term string `json:"termo"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("search_products: %w", err)
			}
			products, err := t.Stock.Search(ctx, in.Term)
			if err != nil {
				return "", err
			}
			suggestions := make([]domain.Suggestion, 0, len(products))
			for _, p := range products {
				suggestions = append(suggestions, domain.Suggestion{Name: p.Name, Price: p.Price, SearchTerm: in.Term})
			}
			if err := t.Suggestions.Save(ctx, customer, suggestions); err != nil {
				return "", err
			}
			return reply(products)
		},
	}
}

func (t *Toolset) getSuggestions() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolGetSuggestions,
			"Recupera sugestões recentes mostradas ao cliente, com preço. Informe o produto para buscar a melhor correspondência.",
			`{"type":"object","properties":{"produto":{"type":"string","description":"nome do produto, opcional"}}}`),
		Run: func(ctx context.Context, customer string, args json.RawMessage) (string, error) {
			var in struct {
				Product string `json:"produto"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("get_suggestions: %w", err)
			}
			if in.Product != "" {
				match, err := t.Suggestions.RecoverPrice(ctx, customer, in.Product)
				if err != nil {
					return "", err
				}
				if match == nil {
					return `{"resultado": "nenhuma sugestão corresponde"}`, nil
				}
				return reply(match)
			}
			suggestions, err := t.Suggestions.Get(ctx, customer)
			if err != nil {
				return "", err
			}
			return reply(suggestions)
		},
	}
}

const itemParameters = `{"type":"object","properties":{
"produto":{"type":"string"},
"quantidade":{"type":"number","description":"quantidade em kg para itens por peso, unidades caso contrário"},
"unidades":{"type":"integer","description":"número de peças para itens por peso, 0 caso contrário"},
"preco":{"type":"number","description":"preço unitário; 0 recupera das sugestões"},
"observacao":{"type":"string"}},"required":["produto","quantidade"]}`

func (t *Toolset) itemFromArgs(ctx context.Context, customer string, args json.RawMessage) (domain.CartItem, error) {
	var in struct {
		Product   string  `json:"produto"`
		Quantity  float64 `json:"quantidade"`
		UnitCount int     `json:"unidades"`
		Price     float64 `json:"preco"`
		Note      string  `json:"observacao"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return domain.CartItem{}, err
	}
	item := domain.CartItem{
		ProductName: in.Product,
		Quantity:    in.Quantity,
		UnitCount:   in.UnitCount,
		UnitPrice:   in.Price,
		Note:        in.Note,
	}
	if item.UnitPrice == 0 {
		match, err := t.Suggestions.RecoverPrice(ctx, customer, item.ProductName)
		if err != nil {
			return domain.CartItem{}, err
		}
		if match != nil {
			item.UnitPrice = match.Price
		}
	}
	return item, nil
}

func (t *Toolset) addItem() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolAddItem,
			"Adiciona um item ao carrinho. Itens repetidos são somados na mesma linha.",
			itemParameters),
		Run: func(ctx context.Context, customer string, args json.RawMessage) (string, error) {
			if _, err := t.Sessions.GetOrStart(ctx, customer); err != nil {
				return "", err
			}
			item, err := t.itemFromArgs(ctx, customer, args)
			if err != nil {
				return "", fmt.Errorf("add_item: %w", err)
			}
			if err := t.Carts.Add(ctx, customer, item); err != nil {
				return "", err
			}
			return `{"resultado": "item adicionado"}`, nil
		},
	}
}

func (t *Toolset) updateItem() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolUpdateItem,
			"Substitui a linha do carrinho com o mesmo nome de produto.",
			itemParameters),
		Run: func(ctx context.Context, customer string, args json.RawMessage) (string, error) {
			item, err := t.itemFromArgs(ctx, customer, args)
			if err != nil {
				return "", fmt.Errorf("update_item: %w", err)
			}
			if err := t.Carts.Update(ctx, customer, item); err != nil {
				return "", err
			}
			return `{"resultado": "item atualizado"}`, nil
		},
	}
}

func (t *Toolset) removeItem() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolRemoveItem,
			"Remove a linha do carrinho com o nome de produto informado.",
			`{"type":"object","properties":{"produto":{"type":"string"}},"required":["produto"]}`),
		Run: func(ctx context.Context, customer string, args json.RawMessage) (string, error) {
			var in struct {
				Product string `json:"produto"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("remove_item: %w", err)
			}
			cart, err := t.Carts.View(ctx, customer)
			if err != nil {
				return "", err
			}
			i := cart.FindIndex(in.Product)
			if i < 0 {
				return `{"resultado": "item não encontrado no carrinho"}`, nil
			}
			if err := t.Carts.Remove(ctx, customer, i); err != nil {
				return "", err
			}
			return `{"resultado": "item removido"}`, nil
		},
	}
}

func (t *Toolset) viewCart() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolViewCart,
			"Lista os itens do carrinho e o subtotal.",
			`{"type":"object","properties":{}}`),
		Run: func(ctx context.Context, customer string, _ json.RawMessage) (string, error) {
			cart, err := t.Carts.View(ctx, customer)
			if err != nil {
				return "", err
			}
			return reply(map[string]any{"itens": cart, "subtotal": cart.Subtotal()})
		},
	}
}

func (t *Toolset) calculateTotal() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolCalculateTotal,
			"Calcula o total do pedido a partir do carrinho, incluindo taxa de entrega.",
			`{"type":"object","properties":{"taxa_entrega":{"type":"number"}}}`),
		Run: func(ctx context.Context, customer string, args json.RawMessage) (string, error) {
			var in struct {
				DeliveryFee float64 `json:"taxa_entrega"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("calculate_total: %w", err)
			}
			total, err := t.Orders.Total(ctx, customer, in.DeliveryFee)
			if err != nil {
				return "", err
			}
			return reply(map[string]float64{"total": total})
		},
	}
}

func (t *Toolset) finalizeOrder() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolFinalizeOrder,
			"Envia o pedido ao sistema. Usa o endereço salvo quando nenhum for informado.",
			`{"type":"object","properties":{"endereco":{"type":"string"},"forma_pagamento":{"type":"string"},"taxa_entrega":{"type":"number"}}}`),
		Run: func(ctx context.Context, customer string, args json.RawMessage) (string, error) {
			var in struct {
				Address     string  `json:"endereco"`
				Payment     string  `json:"forma_pagamento"`
				DeliveryFee float64 `json:"taxa_entrega"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("finalize_order: %w", err)
			}
			if in.Address == "" {
				saved, err := t.Receipts.Address(ctx, customer)
				if err != nil {
					return "", err
				}
				in.Address = saved
			}
			orderID, err := t.Orders.Finalize(ctx, customer, in.Address, in.Payment, in.DeliveryFee)
			if err != nil {
				return "", err
			}
			if err := t.Sessions.FlagCompleted(ctx, customer); err != nil {
				return "", err
			}
			return reply(map[string]string{"resultado": "pedido enviado", "id": orderID})
		},
	}
}

func (t *Toolset) saveReceipt() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolSaveReceipt,
			"Registra o comprovante de pagamento enviado pelo cliente.",
			`{"type":"object","properties":{"referencia":{"type":"string"}},"required":["referencia"]}`),
		Run: func(ctx context.Context, customer string, args json.RawMessage) (string, error) {
			var in struct {
				Reference string `json:"referencia"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("save_receipt: %w", err)
			}
			if err := t.Receipts.SaveReceipt(ctx, customer, in.Reference); err != nil {
				return "", err
			}
			return `{"resultado": "comprovante registrado"}`, nil
		},
	}
}

func (t *Toolset) saveAddress() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolSaveAddress,
			"Salva o endereço de entrega do cliente para pedidos futuros.",
			`{"type":"object","properties":{"endereco":{"type":"string"}},"required":["endereco"]}`),
		Run: func(ctx context.Context, customer string, args json.RawMessage) (string, error) {
			var in struct {
				Address string `json:"endereco"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("save_address: %w", err)
			}
			if err := t.Receipts.SaveAddress(ctx, customer, in.Address); err != nil {
				return "", err
			}
			return `{"resultado": "endereço salvo"}`, nil
		},
	}
}

func (t *Toolset) requestHuman() data.Tool {
	return data.Tool{
		Definition: def(usecase.ToolRequestHuman,
			"Transfere a conversa para um atendente humano e silencia o robô.",
			`{"type":"object","properties":{"motivo":{"type":"string"}}}`),
		Run: func(ctx context.Context, customer string, _ json.RawMessage) (string, error) {
			if err := t.Cooldown.Activate(ctx, customer); err != nil {
				return "", err
			}
			return `{"resultado": "atendente humano acionado"}`, nil
		},
	}
}
