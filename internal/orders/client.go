// internal/orders/client.go
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// Config holds upstream order system settings
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// Client fetches orders from the upstream order system over HTTP
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// ordersResponse is the upstream list envelope
type ordersResponse struct {
	Success bool           `json:"success"`
	Orders  []*model.Order `json:"orders"`
	Error   string         `json:"error,omitempty"`
}

// NewClient creates a Client
func NewClient(logger *zap.Logger, config *Config) *Client {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 15 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		logger:     logger.With(zap.String("component", "orders")),
	}
}

// FetchActiveOrders returns the orders that currently need kitchen
// attention. Completed and cancelled orders are filtered upstream but the
// client re-filters to stay safe against older upstream versions.
func (c *Client) FetchActiveOrders(ctx context.Context) ([]*model.Order, error) {
	url := c.config.BaseURL + "/api/orders?active=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build orders request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch orders: unexpected status %d", resp.StatusCode)
	}

	var payload ordersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode orders response: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("fetch orders: upstream error: %s", payload.Error)
	}

	active := make([]*model.Order, 0, len(payload.Orders))
	for _, order := range payload.Orders {
		if order.IsActive() {
			active = append(active, order)
		}
	}

	c.logger.Debug("Fetched active orders",
		zap.Int("received", len(payload.Orders)),
		zap.Int("active", len(active)),
	)
	return active, nil
}
