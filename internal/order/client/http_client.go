package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/batch-allocation/internal/order/domain"
	"github.com/tair/batch-allocation/pkg/logger"
	"github.com/tair/batch-allocation/pkg/middleware"
)

// envelope mirrors the inventory service's JSON response
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type depletionData struct {
	Strategy    string              `json:"strategy"`
	Allocations []domain.Allocation `json:"allocations"`
}

// HTTPInventoryClient calls the inventory service's REST API
type HTTPInventoryClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPInventoryClient creates a client whose requests carry trace context
func NewHTTPInventoryClient(baseURL string, timeout time.Duration) *HTTPInventoryClient {
	return &HTTPInventoryClient{
		baseURL: baseURL,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout: timeout,
	}
}

// CheckInventory lists the product's batches. A 404 means the product is
// unknown or has no batches; both are reported as an empty slice.
func (c *HTTPInventoryClient) CheckInventory(ctx context.Context, productID uint) ([]domain.Batch, error) {
	url := fmt.Sprintf("%s/inventory/%d", c.baseURL, productID)
	status, env, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusNotFound:
		logger.Debug(ctx).Uint("product_id", productID).Str("reason", env.Error).Msg("No inventory for product")
		return []domain.Batch{}, nil
	case status != http.StatusOK:
		return nil, fmt.Errorf("%w: check inventory for product %d: status %d", domain.ErrInventoryUnavailable, productID, status)
	}

	batches := []domain.Batch{}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &batches); err != nil {
			return nil, fmt.Errorf("%w: decode batches: %v", domain.ErrInventoryUnavailable, err)
		}
	}
	return batches, nil
}

// UpdateInventory requests a depletion. A 400 is a business answer and comes
// back as an unsuccessful result.
func (c *HTTPInventoryClient) UpdateInventory(ctx context.Context, productID uint, quantity int, strategyKey string) (*domain.DepletionResult, error) {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	if strategyKey != "" {
		body["strategy_key"] = strategyKey
	}

	status, env, err := c.do(ctx, http.MethodPost, c.baseURL+"/inventory/update", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusBadRequest {
		return nil, fmt.Errorf("%w: update inventory for product %d: status %d", domain.ErrInventoryUnavailable, productID, status)
	}

	result := &domain.DepletionResult{Success: env.Success && status == http.StatusOK, Message: env.Message}
	if result.Message == "" {
		result.Message = env.Error
	}
	if len(env.Data) > 0 {
		var data depletionData
		if err := json.Unmarshal(env.Data, &data); err == nil {
			result.Strategy = data.Strategy
			result.Allocations = data.Allocations
		}
	}
	return result, nil
}

// RestockInventory returns allocations to their batches
func (c *HTTPInventoryClient) RestockInventory(ctx context.Context, productID uint, allocations []domain.Allocation) error {
	body := map[string]any{"product_id": productID, "allocations": allocations}
	status, env, err := c.do(ctx, http.MethodPost, c.baseURL+"/inventory/restock", body)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusOK:
		return nil
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: restock product %d: status %d", domain.ErrInventoryUnavailable, productID, status)
	default:
		return fmt.Errorf("restock product %d rejected with status %d: %s", productID, status, env.Error)
	}
}

func (c *HTTPInventoryClient) do(ctx context.Context, method, url string, body any) (int, envelope, error) {
	var env envelope

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, env, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, env, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.RequestIDHeader, id)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error(ctx).Err(err).Str("method", method).Str("url", url).Msg("Inventory service call failed")
		return 0, env, fmt.Errorf("%w: %v", domain.ErrInventoryUnavailable, err)
	}
	defer resp.Body.Close()

	// only a 200 must carry the envelope; error bodies may come from proxies
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && resp.StatusCode == http.StatusOK {
		return resp.StatusCode, env, fmt.Errorf("%w: decode response: %v", domain.ErrInventoryUnavailable, err)
	}
	return resp.StatusCode, env, nil
}
