package kafka

import "time"

// AllocationRecord is one batch touched by a depletion or restock
type AllocationRecord struct {
	BatchID  uint `json:"batch_id"`
	Quantity int  `json:"quantity"`
}

// InventoryDepletedEvent is emitted after every committed depletion, including
// failed STANDARD depletions that still drained stock
type InventoryDepletedEvent struct {
	EventID     string             `json:"event_id"`
	EventType   string             `json:"event_type"`
	ProductID   uint               `json:"product_id"`
	Requested   int                `json:"requested"`
	Strategy    string             `json:"strategy"`
	Success     bool               `json:"success"`
	Allocations []AllocationRecord `json:"allocations"`
	Timestamp   time.Time          `json:"timestamp"`
}

// InventoryRestockedEvent is emitted when allocations are credited back
type InventoryRestockedEvent struct {
	EventID     string             `json:"event_id"`
	EventType   string             `json:"event_type"`
	ProductID   uint               `json:"product_id"`
	Allocations []AllocationRecord `json:"allocations"`
	Timestamp   time.Time          `json:"timestamp"`
}

type OrderItemRecord struct {
	ProductID   uint   `json:"product_id"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	StrategyKey string `json:"strategy_key,omitempty"`
}

// OrderPlacedEvent is emitted once an order reaches its final status
type OrderPlacedEvent struct {
	EventID     string            `json:"event_id"`
	EventType   string            `json:"event_type"`
	OrderID     uint              `json:"order_id"`
	Status      string            `json:"status"`
	TotalAmount string            `json:"total_amount"`
	Items       []OrderItemRecord `json:"items"`
	Timestamp   time.Time         `json:"timestamp"`
}

const (
	EventTypeInventoryDepleted  = "inventory.depleted"
	EventTypeInventoryRestocked = "inventory.restocked"
	EventTypeOrderPlaced        = "order.placed"
)

const (
	TopicInventoryEvents = "inventory-events"
	TopicOrderEvents     = "order-events"
)
