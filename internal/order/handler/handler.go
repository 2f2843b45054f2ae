package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tair/batch-allocation/internal/order/domain"
	"github.com/tair/batch-allocation/internal/order/usecase/command"
	"github.com/tair/batch-allocation/internal/order/usecase/query"
	"github.com/tair/batch-allocation/pkg/logger"
)

// OrderHandler handles HTTP requests for orders using CQRS pattern
type OrderHandler struct {
	// Command handlers
	createHandler *command.CreateOrderHandler

	// Query handlers
	getHandler  *query.GetOrderHandler
	listHandler *query.ListOrdersHandler
}

func NewOrderHandler(
	createHandler *command.CreateOrderHandler,
	getHandler *query.GetOrderHandler,
	listHandler *query.ListOrdersHandler,
) *OrderHandler {
	return &OrderHandler{
		createHandler: createHandler,
		getHandler:    getHandler,
		listHandler:   listHandler,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Path    string      `json:"path,omitempty"`
}

type OrderItemRequest struct {
	ProductID   uint            `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price" swaggertype:"number"`
	StrategyKey string          `json:"strategy_key,omitempty"`
}

type CreateOrderRequest struct {
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Items         []OrderItemRequest `json:"items"`
}

// InsufficientInventoryDetail is returned with a 400 when stock is short
type InsufficientInventoryDetail struct {
	ProductID uint `json:"product_id"`
	Requested int  `json:"requested"`
	Available int  `json:"available"`
}

// CreateOrder godoc
// @Summary Place an order
// @Description Checks availability of every item, stores the order and depletes inventory
// @Tags Orders
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Order"
// @Success 201 {object} domain.Order
// @Failure 400 {object} Response{data=InsufficientInventoryDetail}
// @Failure 409 {object} Response{data=domain.Order}
// @Failure 503 {object} Response
// @Failure 500 {object} Response
// @Router /order [post]
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd := command.CreateOrderCommand{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Items:         make([]command.ItemInput, len(req.Items)),
	}
	for i, item := range req.Items {
		cmd.Items[i] = command.ItemInput{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Price:       item.Price,
			StrategyKey: item.StrategyKey,
		}
	}

	order, err := h.createHandler.Handle(ctx, cmd)
	if err != nil {
		var insufficient *domain.InsufficientInventoryError
		var cancelled *domain.OrderCancelledError
		switch {
		case errors.As(err, &insufficient):
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   insufficient.Error(),
				Data: InsufficientInventoryDetail{
					ProductID: insufficient.ProductID,
					Requested: insufficient.Requested,
					Available: insufficient.Available,
				},
				Path: r.URL.Path,
			})
		case errors.As(err, &cancelled):
			respondJSON(w, http.StatusConflict, Response{
				Success: false,
				Error:   "Order cancelled: inventory could not be reserved",
				Data:    cancelled.Order,
				Path:    r.URL.Path,
			})
		case errors.Is(err, domain.ErrInvalidOrder):
			respondError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrInventoryUnavailable):
			respondError(w, r, http.StatusServiceUnavailable, "Inventory service is unavailable, please try again later")
		default:
			logger.Error(ctx).Err(err).Msg("Failed to create order")
			respondError(w, r, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GetOrder godoc
// @Summary Get an order
// @Tags Orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /order/{id} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		respondError(w, r, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.getHandler.Handle(ctx, query.GetOrderQuery{ID: uint(id)})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			respondError(w, r, http.StatusNotFound, "Order not found")
			return
		}
		logger.Error(ctx).Err(err).Uint64("order_id", id).Msg("Failed to get order")
		respondError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// ListOrders godoc
// @Summary List orders
// @Description Returns one page of orders, oldest first. Without limit the page holds 20 orders; limit is capped at 100. Page with offset to read them all.
// @Tags Orders
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)" default(20) maximum(100)
// @Param offset query int false "Number of orders to skip" default(0)
// @Success 200 {array} domain.Order
// @Failure 500 {object} Response
// @Router /order [get]
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.listHandler.Handle(ctx, query.ListOrdersQuery{Limit: limit, Offset: offset})
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Failed to list orders")
		respondError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/order", h.CreateOrder).Methods("POST")
	router.HandleFunc("/order", h.ListOrders).Methods("GET")
	router.HandleFunc("/order/{id}", h.GetOrder).Methods("GET")
}

// RegisterHealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /health [get]
func (h *OrderHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			respondError(w, r, http.StatusServiceUnavailable, "Database unavailable")
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Order service is healthy",
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
