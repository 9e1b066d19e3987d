package repo

import "context"

// Product is one row of the stock and price catalog.
type Product struct {
	Name        string  `json:"nome"`
	Price       float64 `json:"preco"`
	Stock       float64 `json:"estoque"`
	WeightBased bool    `json:"por_peso"`
}

// StockRepo queries the stock/price backend.
type StockRepo interface {
	// Search returns products matching the free-text term.
	Search(ctx context.Context, term string) ([]Product, error)
}
