package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

func TestOrderClientSubmit(t *testing.T) {
	var got repo.OrderPayload
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pedidos", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"id": "ord-7"})
	}))
	defer server.Close()

	client := NewOrderClient(server.URL, "secret")
	id, err := client.Submit(context.Background(), repo.OrderPayload{
		Customer: "5511999",
		Items:    []repo.OrderItem{{Product: "Arroz", Quantity: 2, UnitPrice: 24.9}},
		Total:    49.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-7", id)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "5511999", got.Customer)
}

func TestOrderClientOverwrite(t *testing.T) {
	var path, method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewOrderClient(server.URL, "")
	err := client.Overwrite(context.Background(), "ord-7", repo.OrderPayload{Customer: "5511999"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/pedidos/ord-7", path)
}

func TestOrderClientBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewOrderClient(server.URL, "")
	_, err := client.Submit(context.Background(), repo.OrderPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestStockClientSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/estoque", r.URL.Path)
		require.Equal(t, "picanha bovina", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode([]repo.Product{{Name: "Picanha", Price: 69.9, WeightBased: true}})
	}))
	defer server.Close()

	client := NewStockClient(server.URL, "")
	products, err := client.Search(context.Background(), "picanha bovina")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].WeightBased)
}

func TestWebhookSenderPosts(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWebhookSender(server.URL, "", zerolog.Nop())
	require.NoError(t, sender.Send(context.Background(), "5511999", "olá!"))
	assert.Equal(t, "5511999", got["cliente"])
	assert.Equal(t, "olá!", got["texto"])
}

func TestWebhookSenderNoURL(t *testing.T) {
	sender := NewWebhookSender("", "", zerolog.Nop())
	assert.NoError(t, sender.Send(context.Background(), "5511999", "olá!"))
}
