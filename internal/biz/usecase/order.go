package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// deliveryFeeLine is the synthetic product name for the delivery fee.
const deliveryFeeLine = "TAXA DE ENTREGA"

// BuildOrderPayload converts a cart into the backend order document.
// Weight-based items are submitted by unit count with the estimated
// per-unit price, and a weighing note so the final price is settled at
// the scale.
func BuildOrderPayload(customer string, cart domain.Cart, address, payment string, deliveryFee float64) repo.OrderPayload {
	items := make([]repo.OrderItem, 0, len(cart)+1)
	for i := range cart {
		item := cart[i]
		if item.IsWeightBased() {
			note := strings.TrimSpace(item.Note + " " + fmt.Sprintf("peso aprox. %.2fkg, valor ajustado na pesagem", item.Quantity))
			items = append(items, repo.OrderItem{
				Product:   item.ProductName,
				Quantity:  float64(item.UnitCount),
				UnitPrice: item.LineTotal() / float64(item.UnitCount),
				Note:      note,
			})
			continue
		}
		items = append(items, repo.OrderItem{
			Product:   item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Note:      item.Note,
		})
	}
	total := cart.Subtotal()
	if deliveryFee > 0 {
		items = append(items, repo.OrderItem{Product: deliveryFeeLine, Quantity: 1, UnitPrice: deliveryFee})
		total += deliveryFee
	}
	return repo.OrderPayload{
		Customer:    customer,
		Items:       items,
		Total:       total,
		Address:     address,
		Payment:     payment,
		DeliveryFee: deliveryFee,
	}
}

// OrderUsecase finalizes orders against the backend.
type OrderUsecase struct {
	orders   repo.OrderRepo
	carts    *CartUsecase
	sessions *SessionUsecase
	log      zerolog.Logger
}

// NewOrderUsecase creates an order usecase.
func NewOrderUsecase(orders repo.OrderRepo, carts *CartUsecase, sessions *SessionUsecase, log zerolog.Logger) *OrderUsecase {
	return &OrderUsecase{orders: orders, carts: carts, sessions: sessions, log: log}
}

// Total returns the cart subtotal plus delivery fee.
func (uc *OrderUsecase) Total(ctx context.Context, customer string, deliveryFee float64) (float64, error) {
	cart, err := uc.carts.View(ctx, customer)
	if err != nil {
		return 0, err
	}
	return cart.Subtotal() + deliveryFee, nil
}

// Finalize submits the cart as a new order and transitions the session
// to sent. An empty cart is rejected before reaching the backend.
func (uc *OrderUsecase) Finalize(ctx context.Context, customer, address, payment string, deliveryFee float64) (string, error) {
	cart, err := uc.carts.View(ctx, customer)
	if err != nil {
		return "", err
	}
	if len(cart) == 0 {
		return "", fmt.Errorf("finalize order: cart is empty")
	}
	payload := BuildOrderPayload(customer, cart, address, payment, deliveryFee)
	orderID, err := uc.orders.Submit(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	if err := uc.sessions.MarkSent(ctx, customer, orderID); err != nil {
		return "", err
	}
	uc.log.Info().Str("customer", customer).Str("order_id", orderID).Float64("total", payload.Total).Msg("order submitted")
	return orderID, nil
}
