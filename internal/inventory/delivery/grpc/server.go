package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	inventoryrpc "github.com/tair/batch-allocation/api/rpc/inventory"
	"github.com/tair/batch-allocation/internal/inventory/domain"
	"github.com/tair/batch-allocation/internal/inventory/usecase/command"
	"github.com/tair/batch-allocation/internal/inventory/usecase/query"
	"github.com/tair/batch-allocation/pkg/logger"
)

// InventoryGRPCServer implements the InventoryService gRPC server
type InventoryGRPCServer struct {
	inventoryrpc.UnimplementedInventoryServiceServer

	// Command handlers
	updateHandler  *command.UpdateInventoryHandler
	restockHandler *command.RestockHandler

	// Query handlers
	listHandler   *query.ListBatchesHandler
	existsHandler *query.ProductExistsHandler
}

func NewInventoryGRPCServer(
	updateHandler *command.UpdateInventoryHandler,
	restockHandler *command.RestockHandler,
	listHandler *query.ListBatchesHandler,
	existsHandler *query.ProductExistsHandler,
) *InventoryGRPCServer {
	return &InventoryGRPCServer{
		updateHandler:  updateHandler,
		restockHandler: restockHandler,
		listHandler:    listHandler,
		existsHandler:  existsHandler,
	}
}

// ListBatches returns the product's batches by ascending expiry
func (s *InventoryGRPCServer) ListBatches(ctx context.Context, req *inventoryrpc.ListBatchesRequest) (*inventoryrpc.ListBatchesResponse, error) {
	logger.Debug(ctx).Uint("product_id", req.ProductID).Msg("gRPC: ListBatches called")

	batches, err := s.listHandler.Handle(ctx, query.ListBatchesQuery{ProductID: req.ProductID})
	if err != nil {
		logger.Error(ctx).Err(err).Msg("gRPC: Failed to list batches")
		return nil, status.Errorf(codes.Internal, "failed to list batches: %v", err)
	}

	found := len(batches) > 0
	if !found {
		found, err = s.existsHandler.Handle(ctx, query.ProductExistsQuery{ProductID: req.ProductID})
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to look up product: %v", err)
		}
	}

	out := make([]inventoryrpc.Batch, len(batches))
	for i, b := range batches {
		out[i] = inventoryrpc.Batch{
			ID:         b.ID,
			BatchCode:  b.BatchCode,
			Quantity:   b.Quantity,
			ExpiryDate: b.ExpiryDate,
			ProductID:  b.ProductID,
		}
	}
	return &inventoryrpc.ListBatchesResponse{ProductFound: found, Batches: out}, nil
}

// Deplete runs a depletion. Insufficient stock and unknown products are
// reported in the response, not as status errors.
func (s *InventoryGRPCServer) Deplete(ctx context.Context, req *inventoryrpc.DepleteRequest) (*inventoryrpc.DepleteResponse, error) {
	logger.Info(ctx).
		Uint("product_id", req.ProductID).
		Int("quantity", req.Quantity).
		Str("strategy_key", req.StrategyKey).
		Msg("gRPC: Deplete called")

	res, err := s.updateHandler.Handle(ctx, command.UpdateInventoryCommand{
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		StrategyKey: req.StrategyKey,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuantity) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		logger.Error(ctx).Err(err).Msg("gRPC: Failed to deplete inventory")
		return nil, status.Errorf(codes.Internal, "failed to deplete inventory: %v", err)
	}

	return &inventoryrpc.DepleteResponse{
		Success:     res.Success,
		Message:     res.Message,
		Strategy:    res.Strategy,
		Allocations: toRPC(res.Allocations),
	}, nil
}

func (s *InventoryGRPCServer) Restock(ctx context.Context, req *inventoryrpc.RestockRequest) (*inventoryrpc.RestockResponse, error) {
	allocations := make([]domain.Allocation, len(req.Allocations))
	for i, a := range req.Allocations {
		allocations[i] = domain.Allocation{BatchID: a.BatchID, Quantity: a.Quantity}
	}

	units, err := s.restockHandler.Handle(ctx, command.RestockCommand{ProductID: req.ProductID, Allocations: allocations})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrBatchNotFound):
			return nil, status.Error(codes.NotFound, err.Error())
		case errors.Is(err, domain.ErrInvalidProduct), errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrEmptyRestock):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		logger.Error(ctx).Err(err).Msg("gRPC: Failed to restock inventory")
		return nil, status.Errorf(codes.Internal, "failed to restock inventory: %v", err)
	}
	return &inventoryrpc.RestockResponse{Restocked: units}, nil
}

func toRPC(allocations []domain.Allocation) []inventoryrpc.Allocation {
	out := make([]inventoryrpc.Allocation, len(allocations))
	for i, a := range allocations {
		out[i] = inventoryrpc.Allocation{BatchID: a.BatchID, Quantity: a.Quantity}
	}
	return out
}
