package depletion

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/batch-allocation/internal/inventory/domain"
)

var today = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func batch(id uint, qty int, monthsOut int) *domain.InventoryBatch {
	return &domain.InventoryBatch{
		ID:         id,
		BatchCode:  "BATCH-00" + string(rune('0'+id)),
		Quantity:   qty,
		ExpiryDate: today.AddDate(0, monthsOut, 0),
		ProductID:  1,
	}
}

func twoBatches() []*domain.InventoryBatch {
	return []*domain.InventoryBatch{batch(1, 100, 3), batch(2, 150, 6)}
}

func quantities(batches []*domain.InventoryBatch) []int {
	out := make([]int, len(batches))
	for i, b := range batches {
		out[i] = b.Quantity
	}
	return out
}

func TestStandardEngine_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		requested   int
		wantSuccess bool
		wantQty     []int
		wantAlloc   []domain.Allocation
	}{
		{
			name:        "partial first batch",
			requested:   50,
			wantSuccess: true,
			wantQty:     []int{50, 150},
			wantAlloc:   []domain.Allocation{{BatchID: 1, Quantity: 50}},
		},
		{
			name:        "spans two batches",
			requested:   120,
			wantSuccess: true,
			wantQty:     []int{0, 130},
			wantAlloc:   []domain.Allocation{{BatchID: 1, Quantity: 100}, {BatchID: 2, Quantity: 20}},
		},
		{
			name:        "insufficient stock drains everything",
			requested:   300,
			wantSuccess: false,
			wantQty:     []int{0, 0},
			wantAlloc:   []domain.Allocation{{BatchID: 1, Quantity: 100}, {BatchID: 2, Quantity: 150}},
		},
		{
			name:        "exact total",
			requested:   250,
			wantSuccess: true,
			wantQty:     []int{0, 0},
			wantAlloc:   []domain.Allocation{{BatchID: 1, Quantity: 100}, {BatchID: 2, Quantity: 150}},
		},
		{
			name:        "zero requested is a no-op",
			requested:   0,
			wantSuccess: true,
			wantQty:     []int{100, 150},
			wantAlloc:   []domain.Allocation{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := twoBatches()

			res := NewStandardEngine().Deplete(batches, tt.requested)

			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantQty, quantities(batches))
			assert.Equal(t, tt.wantAlloc, res.Allocations)
		})
	}
}

func TestStandardEngine_SortsByExpiryRegardlessOfInputOrder(t *testing.T) {
	late := batch(1, 100, 12)
	early := batch(2, 40, 1)
	mid := batch(3, 60, 6)

	res := NewStandardEngine().Deplete([]*domain.InventoryBatch{late, early, mid}, 70)

	require.True(t, res.Success)
	assert.Equal(t, 0, early.Quantity)
	assert.Equal(t, 30, mid.Quantity)
	assert.Equal(t, 100, late.Quantity)
	assert.Equal(t, []domain.Allocation{{BatchID: 2, Quantity: 40}, {BatchID: 3, Quantity: 30}}, res.Allocations)
}

func TestStandardEngine_TiesKeepInputOrder(t *testing.T) {
	first := batch(7, 10, 2)
	second := batch(3, 10, 2)

	res := NewStandardEngine().Deplete([]*domain.InventoryBatch{first, second}, 15)

	require.True(t, res.Success)
	assert.Equal(t, 0, first.Quantity)
	assert.Equal(t, 5, second.Quantity)
}

func TestStandardEngine_SkipsEmptyBatches(t *testing.T) {
	empty := batch(1, 0, 1)
	full := batch(2, 20, 2)

	res := NewStandardEngine().Deplete([]*domain.InventoryBatch{empty, full}, 5)

	require.True(t, res.Success)
	assert.Equal(t, []domain.Allocation{{BatchID: 2, Quantity: 5}}, res.Allocations)
	assert.Equal(t, 0, empty.Quantity)
}

func TestEngines_RejectNegativeQuantity(t *testing.T) {
	for _, e := range []Engine{NewStandardEngine(), NewAtomicEngine()} {
		batches := twoBatches()
		res := e.Deplete(batches, -5)

		assert.False(t, res.Success, e.Key())
		assert.Empty(t, res.Allocations, e.Key())
		assert.Equal(t, []int{100, 150}, quantities(batches), e.Key())
	}
}

func TestAtomicEngine_LeavesBatchesUntouchedOnShortage(t *testing.T) {
	batches := twoBatches()

	res := NewAtomicEngine().Deplete(batches, 300)

	assert.False(t, res.Success)
	assert.Empty(t, res.Allocations)
	assert.Equal(t, []int{100, 150}, quantities(batches))
}

func TestAtomicEngine_MatchesStandardOnSuccess(t *testing.T) {
	for _, requested := range []int{0, 1, 50, 100, 120, 250} {
		std := twoBatches()
		atomic := twoBatches()

		a := NewStandardEngine().Deplete(std, requested)
		b := NewAtomicEngine().Deplete(atomic, requested)

		assert.Equal(t, a, b, "requested=%d", requested)
		assert.Equal(t, quantities(std), quantities(atomic), "requested=%d", requested)
	}
}

// Randomized check of the ordering and conservation properties.
func TestStandardEngine_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		n := rng.Intn(6)
		batches := make([]*domain.InventoryBatch, n)
		before := 0
		for j := range batches {
			batches[j] = batch(uint(j+1), rng.Intn(50), j)
			before += batches[j].Quantity
		}
		requested := rng.Intn(before + 30)

		res := NewStandardEngine().Deplete(batches, requested)

		after := 0
		for _, b := range batches {
			assert.GreaterOrEqual(t, b.Quantity, 0)
			after += b.Quantity
		}

		if before >= requested {
			require.True(t, res.Success)
			assert.Equal(t, before-requested, after)
		} else {
			require.False(t, res.Success)
			assert.Equal(t, 0, after)
		}
		assert.Equal(t, before-after, res.Taken())

		// Nothing after the first partially consumed batch is touched.
		partial := false
		for j, b := range batches {
			initial := b.Quantity + takenFrom(res, b.ID)
			if partial {
				assert.Equal(t, initial, b.Quantity, "batch %d touched after partial", j)
			}
			if b.Quantity > 0 && b.Quantity < initial {
				partial = true
			}
		}
	}
}

func takenFrom(res Result, id uint) int {
	for _, a := range res.Allocations {
		if a.BatchID == id {
			return a.Quantity
		}
	}
	return 0
}
