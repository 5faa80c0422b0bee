package cortex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferFunctions(t *testing.T) {
	assert.Equal(t, 3.5, Transfer(Sum, 3.5))
	assert.InDelta(t, 0.5, Transfer(Logistic, 0.0), 1e-12)
	assert.InDelta(t, 1.0, Transfer(Logistic, 100.0), 1e-9)
	assert.InDelta(t, 0.0, Transfer(Logistic, -100.0), 1e-9)
	assert.InDelta(t, math.Tanh(0.3), Transfer(Tanh, 0.3), 1e-12)
	assert.InDelta(t, 1.0, Transfer(Gaussian, 0.0), 1e-12)
	assert.Equal(t, 1.0, Transfer(Const, 42.0))
	assert.InDelta(t, (1.0+math.Sqrt(5.0))/2.0, Transfer(Golden, -7.0), 1e-12)

	// The smooth rectifier passes through the origin, approaches the
	// line x-1 for large inputs and -1 for very negative ones, and is
	// monotonic throughout.
	assert.InDelta(t, 0.0, Transfer(ReLU, 0.0), 1e-12)
	assert.InDelta(t, 99.0, Transfer(ReLU, 100.0), 0.01)
	assert.InDelta(t, -1.0, Transfer(ReLU, -1000.0), 0.01)
	prev := Transfer(ReLU, -10.0)
	for x := -9.5; x < 10.0; x += 0.5 {
		cur := Transfer(ReLU, x)
		assert.Greater(t, cur, prev)
		prev = cur
	}
}

func TestTransferAllAggregates(t *testing.T) {
	inputs := []float64{3.0, -1.0, 2.0}
	assert.Equal(t, -1.0, TransferAll(Min, inputs))
	assert.Equal(t, 3.0, TransferAll(Max, inputs))
	assert.InDelta(t, 4.0/3.0, TransferAll(Avg, inputs), 1e-12)
	assert.Equal(t, 4.0, TransferAll(Sum, inputs))
	assert.InDelta(t, math.Tanh(4.0), TransferAll(Tanh, inputs), 1e-12)

	assert.Equal(t, 0.0, TransferAll(Min, nil))
	assert.Equal(t, 0.0, TransferAll(Max, nil))
}

func TestPermittedFuncs(t *testing.T) {
	require.Equal(t, []Func{Const}, PermittedFuncs(BiasNode))
	require.Equal(t, []Func{Sum}, PermittedFuncs(InputNode))
	assert.NotEmpty(t, PermittedFuncs(OutputNode))
	assert.NotEmpty(t, PermittedFuncs(HiddenNode))

	f, err := GetFunc("tanh")
	require.NoError(t, err)
	assert.Equal(t, Tanh, f)
	_, err = GetFunc("warp")
	assert.Error(t, err)
}
