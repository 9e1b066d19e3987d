package repo

import "context"

// OrderItem is one line of the payload sent to the order backend.
type OrderItem struct {
	Product   string  `json:"produto"`
	Quantity  float64 `json:"qtd"`
	UnitPrice float64 `json:"preco_unitario"`
	Note      string  `json:"observacao,omitempty"`
}

// OrderPayload is the full order document submitted to the backend.
type OrderPayload struct {
	Customer    string      `json:"cliente"`
	Items       []OrderItem `json:"itens"`
	Total       float64     `json:"total"`
	Address     string      `json:"endereco,omitempty"`
	Payment     string      `json:"forma_pagamento,omitempty"`
	DeliveryFee float64     `json:"taxa_entrega,omitempty"`
}

// OrderRepo talks to the order backend API.
type OrderRepo interface {
	// Submit creates a new order and returns its backend ID.
	Submit(ctx context.Context, payload OrderPayload) (string, error)

	// Overwrite replaces the items of an already-sent order.
	Overwrite(ctx context.Context, orderID string, payload OrderPayload) error
}
