package warp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func landmarks(ts, intensities []float64) []Landmark {
	out := make([]Landmark, len(ts))
	for i := range ts {
		out[i] = Landmark{T: ts[i], Intensity: intensities[i]}
	}
	return out
}

func TestSelectPivotPrefersMostRepresentativeSample(t *testing.T) {
	ts := []float64{0, 1, 2, 3, 4, 5}
	shape := []float64{1, 5, 10, 5, 1, 0}
	noisy := []float64{1, 2, 1, 2, 1, 0}

	samples := [][]Landmark{
		landmarks(ts, shape),
		landmarks(ts, shape),
		landmarks(ts, noisy),
	}
	pivot := SelectPivot(samples)
	assert.Contains(t, []int{0, 1}, pivot)
}

func TestBuildWarpIsMonotoneAndAnchored(t *testing.T) {
	pivotTs := []float64{0, 1, 2, 3, 4, 5}
	pivotI := []float64{1, 5, 10, 5, 1, 0}
	sampleTs := []float64{0, 1.1, 2.2, 3.3, 4.4, 5}
	sampleI := []float64{1, 5, 10, 5, 1, 0}

	w := Build(landmarks(pivotTs, pivotI), landmarks(sampleTs, sampleI), 15)
	require.NotNil(t, w)

	assert.InDelta(t, 0, w.Map(0), 1e-9)

	prev := w.Map(0)
	for _, t64 := range []float64{0.5, 1, 1.5, 2, 3, 4, 5} {
		cur := w.Map(t64)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestBuildWarpHandlesEmptySample(t *testing.T) {
	pivotTs := []float64{0, 1, 2}
	pivotI := []float64{1, 2, 1}
	w := Build(landmarks(pivotTs, pivotI), nil, 15)
	require.NotNil(t, w)
	assert.Equal(t, 0.0, w.Map(0))
}
