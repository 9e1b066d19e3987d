package data

import (
	"fmt"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
	"github.com/zapmercado/order-bridge/internal/conf"
)

// Backends aggregates the external dependencies: the durable store
// and the order and stock HTTP clients. The language model client is
// built separately because its tool surface depends on the usecases.
type Backends struct {
	Store  repo.Store
	Orders repo.OrderRepo
	Stock  repo.StockRepo
}

// NewBackends wires the data layer from configuration.
func NewBackends(config *conf.Config) (*Backends, error) {
	store, err := NewSQLStore(config.StorePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return &Backends{
		Store:  store,
		Orders: NewOrderClient(config.OrderAPIURL, config.OrderAPIToken),
		Stock:  NewStockClient(config.StockAPIURL, config.StockAPIToken),
	}, nil
}

// Close releases the store.
func (b *Backends) Close() error {
	return b.Store.Close()
}
