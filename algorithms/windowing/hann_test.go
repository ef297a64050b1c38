package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHannPeriodic(t *testing.T) {
	h := NewHann(8, false)
	c := h.Coefficients()

	require.Len(t, c, 8)
	assert.Equal(t, 0.0, c[0])
	assert.InDelta(t, 1.0, c[4], 1e-12, "periodic window peaks at N/2")
	assert.InDelta(t, c[1], c[7], 1e-12)
	assert.InDelta(t, 0.5, c[2], 1e-12)
}

func TestHannSymmetric(t *testing.T) {
	c := NewHann(5, true).Coefficients()
	assert.Equal(t, 0.0, c[0])
	assert.InDelta(t, 0.0, c[4], 1e-12)
	assert.InDelta(t, 1.0, c[2], 1e-12)
}

func TestHannApplyInPlace(t *testing.T) {
	h := NewHann(4, false)
	signal := []float64{2, 2, 2, 2}
	require.NoError(t, h.ApplyInPlace(signal))
	assert.InDeltaSlice(t, []float64{0, 1, 2, 1}, signal, 1e-12)

	assert.Error(t, h.ApplyInPlace([]float64{1, 2}))
	assert.Equal(t, 4, h.Size())
}

func TestHannSingleton(t *testing.T) {
	assert.Equal(t, []float64{1}, NewHann(1, false).Coefficients())
}
