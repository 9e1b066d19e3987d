package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// OrderClient talks to the order backend over HTTP.
type OrderClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewOrderClient creates an order backend client.
func NewOrderClient(baseURL, token string) *OrderClient {
	return &OrderClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Submit creates a new order via POST /pedidos.
func (c *OrderClient) Submit(ctx context.Context, payload repo.OrderPayload) (string, error) {
	var response struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/pedidos", payload, &response); err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	if response.ID == "" {
		return "", fmt.Errorf("submit order: backend returned no id")
	}
	return response.ID, nil
}

// Overwrite replaces an existing order's content via PUT /pedidos/{id}.
func (c *OrderClient) Overwrite(ctx context.Context, orderID string, payload repo.OrderPayload) error {
	if err := c.do(ctx, http.MethodPut, "/pedidos/"+orderID, payload, nil); err != nil {
		return fmt.Errorf("overwrite order %s: %w", orderID, err)
	}
	return nil
}

func (c *OrderClient) do(ctx context.Context, method, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
