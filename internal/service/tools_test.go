package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapmercado/order-bridge/internal/biz/domain"
	"github.com/zapmercado/order-bridge/internal/biz/repo"
	"github.com/zapmercado/order-bridge/internal/biz/usecase"
	"github.com/zapmercado/order-bridge/internal/data"
)

type recordingOrders struct {
	submits []repo.OrderPayload
}

func (r *recordingOrders) Submit(_ context.Context, payload repo.OrderPayload) (string, error) {
	r.submits = append(r.submits, payload)
	return "ord-9", nil
}

func (r *recordingOrders) Overwrite(context.Context, string, repo.OrderPayload) error {
	return nil
}

type staticStock struct {
	products []repo.Product
}

func (s *staticStock) Search(context.Context, string) ([]repo.Product, error) {
	return s.products, nil
}

func newToolsetFixture(t *testing.T, products []repo.Product) (*Toolset, *recordingOrders) {
	t.Helper()
	store := data.NewMemStore()
	backend := &recordingOrders{}
	config := domain.DefaultSessionConfig()
	nop := zerolog.Nop()

	sessions := usecase.NewSessionUsecase(store, config, nop)
	carts := usecase.NewCartUsecase(store, backend, sessions, config, nop)
	orders := usecase.NewOrderUsecase(backend, carts, sessions, nop)
	breaker := usecase.NewBreakerUsecase(store, usecase.DefaultBreakerConfig(), nop)
	stock := usecase.NewStockUsecase(&staticStock{products: products}, store, breaker, usecase.DefaultStockConfig(), nop)
	suggestions := usecase.NewSuggestionsUsecase(store, usecase.DefaultSuggestionsConfig(), nop)
	receipts := usecase.NewReceiptUsecase(store, config, nop)
	cooldown := usecase.NewCooldownUsecase(store, usecase.DefaultCooldownConfig(), nop)

	return &Toolset{
		Stock:       stock,
		Suggestions: suggestions,
		Carts:       carts,
		Orders:      orders,
		Sessions:    sessions,
		Receipts:    receipts,
		Cooldown:    cooldown,
	}, backend
}

func findTool(t *testing.T, tools []data.Tool, name string) data.Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Definition.Function != nil && tool.Definition.Function.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not registered", name)
	return data.Tool{}
}

func TestToolsetStageSplit(t *testing.T) {
	toolset, _ := newToolsetFixture(t, nil)
	tools := toolset.Build()

	findTool(t, tools[domain.IntentSales], usecase.ToolSearchProducts)
	findTool(t, tools[domain.IntentSales], usecase.ToolAddItem)
	findTool(t, tools[domain.IntentCheckout], usecase.ToolFinalizeOrder)
	findTool(t, tools[domain.IntentCheckout], usecase.ToolCalculateTotal)

	for _, tool := range tools[domain.IntentSales] {
		assert.NotEqual(t, usecase.ToolFinalizeOrder, tool.Definition.Function.Name,
			"sales cannot finalize orders")
	}
}

func TestSearchSavesSuggestions(t *testing.T) {
	toolset, _ := newToolsetFixture(t, []repo.Product{{Name: "Picanha", Price: 69.9}})
	tools := toolset.Build()
	ctx := context.Background()

	search := findTool(t, tools[domain.IntentSales], usecase.ToolSearchProducts)
	out, err := search.Run(ctx, "5511999", json.RawMessage(`{"termo": "picanha"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Picanha")

	saved, err := toolset.Suggestions.Get(ctx, "5511999")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 69.9, saved[0].Price)
}

func TestAddItemRecoversPriceFromSuggestions(t *testing.T) {
	toolset, _ := newToolsetFixture(t, nil)
	tools := toolset.Build()
	ctx := context.Background()

	require.NoError(t, toolset.Suggestions.Save(ctx, "5511999", []domain.Suggestion{
		{Name: "Picanha Bovina", Price: 69.9},
	}))

	add := findTool(t, tools[domain.IntentSales], usecase.ToolAddItem)
	_, err := add.Run(ctx, "5511999", json.RawMessage(`{"produto": "picanha", "quantidade": 1.5}`))
	require.NoError(t, err)

	cart, err := toolset.Carts.View(ctx, "5511999")
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, 69.9, cart[0].UnitPrice, "missing price recovered from suggestions")
}

func TestFinalizeUsesSavedAddress(t *testing.T) {
	toolset, backend := newToolsetFixture(t, nil)
	tools := toolset.Build()
	ctx := context.Background()

	require.NoError(t, toolset.Receipts.SaveAddress(ctx, "5511999", "Rua B, 22"))
	require.NoError(t, toolset.Carts.Add(ctx, "5511999", domain.CartItem{ProductName: "Arroz", Quantity: 2, UnitPrice: 24.9}))

	finalize := findTool(t, tools[domain.IntentCheckout], usecase.ToolFinalizeOrder)
	out, err := finalize.Run(ctx, "5511999", json.RawMessage(`{"forma_pagamento": "pix"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "ord-9")

	require.Len(t, backend.submits, 1)
	assert.Equal(t, "Rua B, 22", backend.submits[0].Address)

	done, err := toolset.Sessions.RecentlyCompleted(ctx, "5511999")
	require.NoError(t, err)
	assert.True(t, done, "finalize leaves the completion marker")
}

func TestRemoveItemResolvesNameToPosition(t *testing.T) {
	toolset, _ := newToolsetFixture(t, nil)
	tools := toolset.Build()
	ctx := context.Background()

	require.NoError(t, toolset.Carts.Add(ctx, "5511999", domain.CartItem{ProductName: "Arroz", Quantity: 2}))
	require.NoError(t, toolset.Carts.Add(ctx, "5511999", domain.CartItem{ProductName: "Feijão", Quantity: 1}))

	remove := findTool(t, tools[domain.IntentSales], usecase.ToolRemoveItem)
	out, err := remove.Run(ctx, "5511999", json.RawMessage(`{"produto": "feijão"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "removido")

	cart, err := toolset.Carts.View(ctx, "5511999")
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, "Arroz", cart[0].ProductName)

	out, err = remove.Run(ctx, "5511999", json.RawMessage(`{"produto": "detergente"}`))
	require.NoError(t, err, "an unknown product is reported back, not an error")
	assert.Contains(t, out, "não encontrado")
}

func TestRequestHumanActivatesCooldown(t *testing.T) {
	toolset, _ := newToolsetFixture(t, nil)
	tools := toolset.Build()
	ctx := context.Background()

	human := findTool(t, tools[domain.IntentSales], usecase.ToolRequestHuman)
	_, err := human.Run(ctx, "5511999", json.RawMessage(`{}`))
	require.NoError(t, err)

	active, err := toolset.Cooldown.Active(ctx, "5511999")
	require.NoError(t, err)
	assert.True(t, active)
}
