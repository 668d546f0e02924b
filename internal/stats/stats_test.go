package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.Equal(t, 5.0, Mean(xs))
	assert.InDelta(t, 2.0, StdDev(xs), 1e-12, "population std of the classic example is 2")
	assert.InDelta(t, 2.138, SampleStdDev(xs), 0.001)
	assert.InDelta(t, 2.0/2.8284271, StdErr(xs), 1e-6)
}

func TestEmptyInputsAreZero(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Zero(t, StdDev(nil))
	assert.Zero(t, SampleStdDev([]float64{3}))
	assert.Zero(t, Min(nil))
	assert.Zero(t, Max(nil))
	assert.Zero(t, Percentile(nil, 50))
	assert.Equal(t, -1, ArgMax(nil))
}

func TestPercentileInterpolates(t *testing.T) {
	xs := []float64{4, 1, 3, 2}

	assert.Equal(t, 1.0, Percentile(xs, 0))
	assert.Equal(t, 4.0, Percentile(xs, 100))
	assert.InDelta(t, 1.75, Percentile(xs, 25), 1e-12)
	assert.InDelta(t, 3.25, Percentile(xs, 75), 1e-12)
	assert.Equal(t, []float64{4, 1, 3, 2}, xs, "input must not be reordered")
}

func TestArgMaxPicksFirstPeak(t *testing.T) {
	assert.Equal(t, 1, ArgMax([]float64{1, 5, 2, 5}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.4, Clamp(0.1, 0.4, 0.95))
	assert.Equal(t, 0.95, Clamp(1.2, 0.4, 0.95))
	assert.Equal(t, 7, Clamp(7, 0, 10))
}

func TestReturnsSkipsZeroPrices(t *testing.T) {
	r := Returns([]float64{100, 110, 0, 50})
	assert.Len(t, r, 2)
	assert.InDelta(t, 0.10, r[0], 1e-12)
	assert.InDelta(t, -1.0, r[1], 1e-12)
}
