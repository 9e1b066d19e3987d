package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// deletedMarker temporarily overwrites a list slot so the element can
// be removed by value without disturbing sibling indexes.
const deletedMarker = "__DELETED__"

// CartUsecase manages the customer's cart list. Every mutation on a
// sent order triggers a full resync so the backend never diverges from
// the store.
type CartUsecase struct {
	store    repo.Store
	orders   repo.OrderRepo
	sessions *SessionUsecase
	config   domain.SessionConfig
	log      zerolog.Logger
}

// NewCartUsecase creates a cart usecase.
func NewCartUsecase(store repo.Store, orders repo.OrderRepo, sessions *SessionUsecase, config domain.SessionConfig, log zerolog.Logger) *CartUsecase {
	return &CartUsecase{store: store, orders: orders, sessions: sessions, config: config, log: log}
}

// View returns the cart in insertion order. An absent cart is empty.
func (uc *CartUsecase) View(ctx context.Context, customer string) (domain.Cart, error) {
	raw, err := uc.store.LRange(ctx, cartKey(customer), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("view cart: %w", err)
	}
	cart := make(domain.Cart, 0, len(raw))
	for _, entry := range raw {
		var item domain.CartItem
		if err := json.Unmarshal([]byte(entry), &item); err != nil {
			return nil, fmt.Errorf("decode cart item: %w", err)
		}
		cart = append(cart, item)
	}
	return cart, nil
}

// Add inserts an item, merging into an existing line when the product
// name matches exactly.
func (uc *CartUsecase) Add(ctx context.Context, customer string, item domain.CartItem) error {
	cart, err := uc.View(ctx, customer)
	if err != nil {
		return err
	}
	if i := cart.FindIndex(item.ProductName); i >= 0 {
		merged := cart[i]
		merged.MergeFrom(item)
		raw, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode cart item: %w", err)
		}
		if err := uc.store.LSet(ctx, cartKey(customer), int64(i), string(raw)); err != nil {
			return fmt.Errorf("merge cart item: %w", err)
		}
		uc.log.Info().Str("customer", customer).Str("product", item.ProductName).Msg("cart item merged")
		return uc.afterMutation(ctx, customer)
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode cart item: %w", err)
	}
	if err := uc.store.RPush(ctx, cartKey(customer), string(raw)); err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	uc.log.Info().Str("customer", customer).Str("product", item.ProductName).Msg("cart item added")
	return uc.afterMutation(ctx, customer)
}

// Update replaces the line matching the product name.
func (uc *CartUsecase) Update(ctx context.Context, customer string, item domain.CartItem) error {
	cart, err := uc.View(ctx, customer)
	if err != nil {
		return err
	}
	i := cart.FindIndex(item.ProductName)
	if i < 0 {
		return fmt.Errorf("update cart: %q not in cart", item.ProductName)
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode cart item: %w", err)
	}
	if err := uc.store.LSet(ctx, cartKey(customer), int64(i), string(raw)); err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return uc.afterMutation(ctx, customer)
}

// Remove drops the line at the given 0-based position. The slot is
// first overwritten with a marker, then the marker is removed by
// value, so sibling positions are untouched.
func (uc *CartUsecase) Remove(ctx context.Context, customer string, index int) error {
	cart, err := uc.View(ctx, customer)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(cart) {
		return fmt.Errorf("remove cart: index %d out of range for %d items", index, len(cart))
	}
	if err := uc.store.LSet(ctx, cartKey(customer), int64(index), deletedMarker); err != nil {
		return fmt.Errorf("mark cart item: %w", err)
	}
	if err := uc.store.LRem(ctx, cartKey(customer), deletedMarker); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	uc.log.Info().Str("customer", customer).Str("product", cart[index].ProductName).Msg("cart item removed")
	return uc.afterMutation(ctx, customer)
}

// Clear empties the cart without touching the session.
func (uc *CartUsecase) Clear(ctx context.Context, customer string) error {
	if err := uc.store.Delete(ctx, cartKey(customer)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return uc.afterMutation(ctx, customer)
}

// afterMutation refreshes the cart and session windows on every
// mutation and, when the order was already sent, resyncs the backend.
// The whole cart is pushed, never a delta, so a lost update cannot
// leave the backend with phantom lines. A failed resync is logged and
// absorbed: the local cart stays authoritative and the turn goes on.
func (uc *CartUsecase) afterMutation(ctx context.Context, customer string) error {
	session, err := uc.sessions.Get(ctx, customer)
	if err != nil {
		uc.log.Warn().Err(err).Str("customer", customer).Msg("session read failed after cart mutation")
		session = nil
	}
	ttl := uc.config.BuildingTTL
	if session != nil && session.IsSent() {
		ttl = uc.config.ModificationTTL
	}
	if _, err := uc.store.Expire(ctx, cartKey(customer), ttl); err != nil {
		uc.log.Warn().Err(err).Str("customer", customer).Msg("cart expire failed")
	}
	if session != nil {
		if err := uc.sessions.Refresh(ctx, customer); err != nil {
			uc.log.Warn().Err(err).Str("customer", customer).Msg("session refresh failed")
		}
	}
	if session == nil || !session.IsSent() {
		return nil
	}
	cart, err := uc.View(ctx, customer)
	if err != nil {
		uc.log.Warn().Err(err).Str("customer", customer).Msg("cart read failed, resync skipped")
		return nil
	}
	payload := BuildOrderPayload(customer, cart, "", "", 0)
	if err := uc.orders.Overwrite(ctx, session.OrderID, payload); err != nil {
		uc.log.Warn().Err(err).Str("customer", customer).Str("order_id", session.OrderID).Msg("order resync failed, local cart kept")
		return nil
	}
	uc.log.Info().Str("customer", customer).Str("order_id", session.OrderID).Int("items", len(cart)).Msg("order resynced")
	return nil
}
