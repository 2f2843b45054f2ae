package client

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	inventoryrpc "github.com/tair/batch-allocation/api/rpc/inventory"
	"github.com/tair/batch-allocation/internal/order/domain"
	"github.com/tair/batch-allocation/pkg/logger"
)

// GRPCInventoryClient wraps the gRPC client for inventory service
type GRPCInventoryClient struct {
	client  inventoryrpc.InventoryServiceClient
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewGRPCInventoryClient creates a lazily connecting inventory service client
func NewGRPCInventoryClient(address string, timeout time.Duration) (*GRPCInventoryClient, error) {
	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory service client: %w", err)
	}

	logger.Logger.Info().
		Str("address", address).
		Msg("Inventory Service gRPC client created")

	return &GRPCInventoryClient{
		client:  inventoryrpc.NewInventoryServiceClient(conn),
		conn:    conn,
		timeout: timeout,
	}, nil
}

// NewGRPCInventoryClientFromConn wraps an existing connection
func NewGRPCInventoryClientFromConn(conn grpc.ClientConnInterface, timeout time.Duration) *GRPCInventoryClient {
	return &GRPCInventoryClient{client: inventoryrpc.NewInventoryServiceClient(conn), timeout: timeout}
}

// Close closes the gRPC connection
func (c *GRPCInventoryClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *GRPCInventoryClient) CheckInventory(ctx context.Context, productID uint) ([]domain.Batch, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.ListBatches(ctx, &inventoryrpc.ListBatchesRequest{ProductID: productID})
	if err != nil {
		return nil, fmt.Errorf("%w: check inventory for product %d: %v", domain.ErrInventoryUnavailable, productID, err)
	}

	batches := make([]domain.Batch, len(resp.Batches))
	for i, b := range resp.Batches {
		batches[i] = domain.Batch{
			ID:         b.ID,
			BatchCode:  b.BatchCode,
			Quantity:   b.Quantity,
			ExpiryDate: b.ExpiryDate,
			ProductID:  b.ProductID,
		}
	}
	return batches, nil
}

func (c *GRPCInventoryClient) UpdateInventory(ctx context.Context, productID uint, quantity int, strategyKey string) (*domain.DepletionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Deplete(ctx, &inventoryrpc.DepleteRequest{
		ProductID:   productID,
		Quantity:    quantity,
		StrategyKey: strategyKey,
	})
	if err != nil {
		if status.Code(err) == codes.InvalidArgument {
			return &domain.DepletionResult{Message: status.Convert(err).Message()}, nil
		}
		return nil, fmt.Errorf("%w: update inventory for product %d: %v", domain.ErrInventoryUnavailable, productID, err)
	}

	allocations := make([]domain.Allocation, len(resp.Allocations))
	for i, a := range resp.Allocations {
		allocations[i] = domain.Allocation{BatchID: a.BatchID, Quantity: a.Quantity}
	}
	return &domain.DepletionResult{
		Success:     resp.Success,
		Message:     resp.Message,
		Strategy:    resp.Strategy,
		Allocations: allocations,
	}, nil
}

func (c *GRPCInventoryClient) RestockInventory(ctx context.Context, productID uint, allocations []domain.Allocation) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &inventoryrpc.RestockRequest{ProductID: productID, Allocations: make([]inventoryrpc.Allocation, len(allocations))}
	for i, a := range allocations {
		req.Allocations[i] = inventoryrpc.Allocation{BatchID: a.BatchID, Quantity: a.Quantity}
	}

	if _, err := c.client.Restock(ctx, req); err != nil {
		switch status.Code(err) {
		case codes.InvalidArgument, codes.NotFound:
			return fmt.Errorf("restock product %d rejected: %s", productID, status.Convert(err).Message())
		}
		return fmt.Errorf("%w: restock product %d: %v", domain.ErrInventoryUnavailable, productID, err)
	}
	return nil
}
