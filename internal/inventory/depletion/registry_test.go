package depletion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/batch-allocation/internal/inventory/domain"
)

type namedEngine struct{ key string }

func (e namedEngine) Key() string { return e.key }

func (e namedEngine) Deplete([]*domain.InventoryBatch, int) Result { return Result{} }

func TestRegistry_FallsBackToStandard(t *testing.T) {
	reg, err := NewDefaultRegistry()
	require.NoError(t, err)

	def := reg.Default()
	assert.Equal(t, StandardKey, def.Key())
	assert.Same(t, def, reg.Get(""))
	assert.Same(t, def, reg.Get("anything-unregistered"))
	assert.Same(t, def, reg.Get(StandardKey))

	e, exact := reg.Lookup("standard")
	assert.False(t, exact)
	assert.Same(t, def, e)
}

func TestRegistry_ResolvesRegisteredKey(t *testing.T) {
	reg, err := NewDefaultRegistry()
	require.NoError(t, err)

	e, exact := reg.Lookup(AtomicKey)
	assert.True(t, exact)
	assert.Equal(t, AtomicKey, e.Key())
	assert.Equal(t, []string{AtomicKey, StandardKey}, reg.Keys())
}

func TestRegistry_RequiresStandard(t *testing.T) {
	_, err := NewRegistry(NewAtomicEngine())
	assert.ErrorContains(t, err, StandardKey)
}

func TestRegistry_RejectsDuplicatesAndNil(t *testing.T) {
	_, err := NewRegistry(NewStandardEngine(), namedEngine{key: StandardKey})
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewRegistry(NewStandardEngine(), nil)
	assert.Error(t, err)
}

func TestRegistry_AcceptsCustomEngines(t *testing.T) {
	reg, err := NewRegistry(NewStandardEngine(), namedEngine{key: "PRIORITY"})
	require.NoError(t, err)

	assert.Equal(t, "PRIORITY", reg.Get("PRIORITY").Key())
	assert.Equal(t, []string{"PRIORITY", StandardKey}, reg.Keys())
}
