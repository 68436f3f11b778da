package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
}

func TestStdDev(t *testing.T) {
	assert.Zero(t, StdDev(nil))
	assert.Zero(t, StdDev([]float64{5, 5, 5}))
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(0.5, 1, 5))
	assert.Equal(t, 5.0, Clamp(7, 1, 5))
	assert.Equal(t, 3.0, Clamp(3, 1, 5))
}

func TestRoundTo(t *testing.T) {
	assert.InDelta(t, 1.23, RoundTo(1.2345, 2), 1e-9)
	assert.InDelta(t, 1.235, RoundTo(1.2345, 3), 1e-9)
}
