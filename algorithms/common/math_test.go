package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankIndicesDescendingKeepsLowestIndexOnTies(t *testing.T) {
	data := []float64{4, 0, 0, 0, 8, 9, 0, 2, 0, 0, 0, 1}
	assert.Equal(t, []int{5, 4, 0, 7}, RankIndices(data, true)[:4])

	ties := []float64{1, 0, 0, 0, 1, 0, 0, 1, 0, 0, 0, 1}
	assert.Equal(t, []int{0, 4, 7, 11}, RankIndices(ties, true)[:4])
}

func TestRankIndicesAscending(t *testing.T) {
	data := []float64{0.2, 0.3, 0.9, 0.9, 0.8, 0.9, 0.1, 0.2, 0.3, 5, 5, 1}
	assert.Equal(t, []int{6, 0, 7, 1}, RankIndices(data, false)[:4])
}

func TestWrapPitchClass(t *testing.T) {
	assert.Equal(t, 0, WrapPitchClass(12))
	assert.Equal(t, 1, WrapPitchClass(13))
	assert.Equal(t, 11, WrapPitchClass(-1))
	assert.Equal(t, []int{2, 5, 9, 0}, WrapPitchClasses([]int{2, 5, 9, 12}))
}

func TestMeans(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, WeightedMean([]float64{1, 3}, []float64{1, 3}), 1e-12)
	assert.Equal(t, 0.0, WeightedMean([]float64{1, 3}, []float64{0, 0}))
	assert.InDelta(t, 6.0, Sum([]float64{1, 2, 3}), 1e-12)
}
