package depletion

import "github.com/tair/batch-allocation/internal/inventory/domain"

const (
	StandardKey = "STANDARD"
	AtomicKey   = "ATOMIC"
)

// StandardEngine consumes batches first-expiring-first. When stock runs out
// before the request is covered, every visited batch stays drained and the
// result reports failure.
type StandardEngine struct{}

func NewStandardEngine() *StandardEngine {
	return &StandardEngine{}
}

func (e *StandardEngine) Key() string {
	return StandardKey
}

func (e *StandardEngine) Deplete(batches []*domain.InventoryBatch, requested int) Result {
	if requested < 0 {
		return Result{Success: false, Allocations: []domain.Allocation{}}
	}

	steps, remaining := plan(byExpiry(batches), requested)
	return Result{
		Success:     remaining == 0,
		Allocations: apply(steps),
	}
}

// AtomicEngine walks batches in the same order as StandardEngine but only
// mutates them when the whole request can be covered.
type AtomicEngine struct{}

func NewAtomicEngine() *AtomicEngine {
	return &AtomicEngine{}
}

func (e *AtomicEngine) Key() string {
	return AtomicKey
}

func (e *AtomicEngine) Deplete(batches []*domain.InventoryBatch, requested int) Result {
	if requested < 0 {
		return Result{Success: false, Allocations: []domain.Allocation{}}
	}

	steps, remaining := plan(byExpiry(batches), requested)
	if remaining > 0 {
		return Result{Success: false, Allocations: []domain.Allocation{}}
	}

	return Result{Success: true, Allocations: apply(steps)}
}
