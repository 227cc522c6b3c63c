package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kortschak/msfeature/model"
)

func TestNoiseFloorIgnoresTopFifth(t *testing.T) {
	spectrum := model.Spectrum{
		{MZ: 100, Intensity: 10},
		{MZ: 101, Intensity: 12},
		{MZ: 102, Intensity: 11},
		{MZ: 103, Intensity: 9},
		{MZ: 104, Intensity: 100000}, // huge outlier, should be excluded from the lowest 80%
	}
	floor := NoiseFloor(spectrum, 3)
	assert.Less(t, floor, 1000.0)
}

func TestSelectFindsClusterAndSortsByIntensity(t *testing.T) {
	// Two charge-2 triplets sharing no overlap, at different intensity scales.
	spectrum := model.Spectrum{
		{MZ: 500.0, Intensity: 5000},
		{MZ: 500.5, Intensity: 3000},
		{MZ: 501.0, Intensity: 1000},

		{MZ: 700.0, Intensity: 50000},
		{MZ: 700.5, Intensity: 30000},
		{MZ: 701.0, Intensity: 10000},
	}
	out := Select(spectrum, 0, 4, 0.02)
	if assert.NotEmpty(t, out) {
		for i := 1; i < len(out); i++ {
			assert.GreaterOrEqual(t, out[i-1].Intensity, out[i].Intensity)
		}
	}
}

func TestSelectEmptyBelowNoiseFloor(t *testing.T) {
	spectrum := model.Spectrum{
		{MZ: 500.0, Intensity: 10},
		{MZ: 500.5, Intensity: 5},
	}
	out := Select(spectrum, 1000, 4, 0.02)
	assert.Empty(t, out)
}
