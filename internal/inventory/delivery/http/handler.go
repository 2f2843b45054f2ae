package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tair/batch-allocation/internal/inventory/depletion"
	"github.com/tair/batch-allocation/internal/inventory/domain"
	"github.com/tair/batch-allocation/internal/inventory/usecase/command"
	"github.com/tair/batch-allocation/internal/inventory/usecase/query"
	"github.com/tair/batch-allocation/pkg/logger"
)

// InventoryHandler handles HTTP requests for inventory
type InventoryHandler struct {
	// Command handlers
	updateHandler  *command.UpdateInventoryHandler
	restockHandler *command.RestockHandler

	// Query handlers
	listHandler   *query.ListBatchesHandler
	existsHandler *query.ProductExistsHandler

	registry *depletion.Registry
}

func NewInventoryHandler(
	updateHandler *command.UpdateInventoryHandler,
	restockHandler *command.RestockHandler,
	listHandler *query.ListBatchesHandler,
	existsHandler *query.ProductExistsHandler,
	registry *depletion.Registry,
) *InventoryHandler {
	return &InventoryHandler{
		updateHandler:  updateHandler,
		restockHandler: restockHandler,
		listHandler:    listHandler,
		existsHandler:  existsHandler,
		registry:       registry,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Path    string      `json:"path,omitempty"`
}

type UpdateInventoryRequest struct {
	ProductID   uint   `json:"product_id"`
	Quantity    int    `json:"quantity"`
	StrategyKey string `json:"strategy_key,omitempty"`
}

type RestockRequest struct {
	ProductID   uint                `json:"product_id"`
	Allocations []domain.Allocation `json:"allocations"`
}

type StrategiesResponse struct {
	Default    string   `json:"default"`
	Strategies []string `json:"strategies"`
}

// ListBatches godoc
// @Summary List batches of a product
// @Description Batches ordered by ascending expiry date
// @Tags Inventory
// @Produce json
// @Param productId path int true "Product ID"
// @Success 200 {object} Response{data=[]domain.InventoryBatch}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /inventory/{productId} [get]
func (h *InventoryHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, err := strconv.ParseUint(mux.Vars(r)["productId"], 10, 32)
	if err != nil || productID == 0 {
		respondError(w, r, http.StatusBadRequest, "Invalid product ID")
		return
	}

	batches, err := h.listHandler.Handle(ctx, query.ListBatchesQuery{ProductID: uint(productID)})
	if err != nil {
		logger.Error(ctx).Err(err).Uint64("product_id", productID).Msg("Failed to list batches")
		respondError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	if len(batches) == 0 {
		exists, err := h.existsHandler.Handle(ctx, query.ProductExistsQuery{ProductID: uint(productID)})
		if err != nil {
			logger.Error(ctx).Err(err).Uint64("product_id", productID).Msg("Failed to look up product")
			respondError(w, r, http.StatusInternalServerError, "Internal server error")
			return
		}
		msg := "No inventory batches found for product"
		if !exists {
			msg = "Product not found"
		}
		respondError(w, r, http.StatusNotFound, msg)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    batches,
	})
}

// UpdateInventory godoc
// @Summary Deplete inventory
// @Description Deplete stock from batches in ascending expiry order with the given strategy (default STANDARD)
// @Tags Inventory
// @Accept json
// @Produce json
// @Param request body UpdateInventoryRequest true "Depletion request"
// @Success 200 {object} Response{data=command.UpdateInventoryResult}
// @Failure 400 {object} Response{data=command.UpdateInventoryResult}
// @Failure 500 {object} Response
// @Router /inventory/update [post]
func (h *InventoryHandler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID == 0 {
		respondError(w, r, http.StatusBadRequest, domain.ErrInvalidProduct.Error())
		return
	}

	res, err := h.updateHandler.Handle(ctx, command.UpdateInventoryCommand{
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		StrategyKey: req.StrategyKey,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuantity) {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error(ctx).Err(err).Uint("product_id", req.ProductID).Msg("Failed to update inventory")
		respondError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, Response{
		Success: res.Success,
		Message: res.Message,
		Data:    res,
	})
}

// Restock godoc
// @Summary Restock inventory
// @Description Credit allocations from an earlier depletion back to their batches
// @Tags Inventory
// @Accept json
// @Produce json
// @Param request body RestockRequest true "Allocations to return"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /inventory/restock [post]
func (h *InventoryHandler) Restock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	units, err := h.restockHandler.Handle(ctx, command.RestockCommand{
		ProductID:   req.ProductID,
		Allocations: req.Allocations,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrBatchNotFound):
			respondError(w, r, http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrInvalidProduct), errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrEmptyRestock):
			respondError(w, r, http.StatusBadRequest, err.Error())
		default:
			logger.Error(ctx).Err(err).Uint("product_id", req.ProductID).Msg("Failed to restock inventory")
			respondError(w, r, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Inventory restocked successfully",
		Data:    map[string]int{"restocked": units},
	})
}

// ListStrategies godoc
// @Summary List depletion strategies
// @Tags Inventory
// @Produce json
// @Success 200 {object} Response{data=StrategiesResponse}
// @Router /inventory/strategies [get]
func (h *InventoryHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: StrategiesResponse{
			Default:    h.registry.Default().Key(),
			Strategies: h.registry.Keys(),
		},
	})
}

// RegisterRoutes registers all inventory routes
func (h *InventoryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/inventory/strategies", h.ListStrategies).Methods("GET")
	router.HandleFunc("/inventory/update", h.UpdateInventory).Methods("POST")
	router.HandleFunc("/inventory/restock", h.Restock).Methods("POST")
	router.HandleFunc("/inventory/{productId}", h.ListBatches).Methods("GET")
}

// RegisterHealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /health [get]
func (h *InventoryHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			respondError(w, r, http.StatusServiceUnavailable, "Database unavailable")
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Inventory service is healthy",
		})
	}).Methods("GET")
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, status, Response{
		Success: false,
		Error:   msg,
		Path:    r.URL.Path,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
