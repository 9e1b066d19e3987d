package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/zapmercado/order-bridge/internal/biz/repo"
)

// StockClient queries the stock/price catalog over HTTP. Timeouts are
// driven by the caller's context, not the client, because retry
// attempts use escalating deadlines.
type StockClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewStockClient creates a stock backend client.
func NewStockClient(baseURL, token string) *StockClient {
	return &StockClient{baseURL: baseURL, token: token, client: &http.Client{}}
}

// Search queries GET /estoque?q=term.
func (c *StockClient) Search(ctx context.Context, term string) ([]repo.Product, error) {
	endpoint := c.baseURL + "/estoque?q=" + url.QueryEscape(term)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stock search: status %d: %s", resp.StatusCode, snippet)
	}
	var products []repo.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("stock search: decode: %w", err)
	}
	return products, nil
}
