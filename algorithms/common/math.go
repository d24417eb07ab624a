package common

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PitchClasses is the number of pitch classes in an octave.
const PitchClasses = 12

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// WeightedMean calculates the weighted arithmetic mean using gonum.
// Returns 0 when the weights sum to zero.
func WeightedMean(data, weights []float64) float64 {
	if len(data) == 0 || len(data) != len(weights) {
		return 0.0
	}
	if floats.Sum(weights) == 0 {
		return 0.0
	}
	return stat.Mean(data, weights)
}

// Sum adds up a slice using gonum
func Sum(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Sum(data)
}

// RankIndices returns the indices of data ordered by value, largest first when
// descending is true and smallest first otherwise. Equal values keep index order,
// so the lowest index wins a tie.
func RankIndices(data []float64, descending bool) []int {
	indices := make([]int, len(data))
	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(a, b int) bool {
		if descending {
			return data[indices[a]] > data[indices[b]]
		}
		return data[indices[a]] < data[indices[b]]
	})

	return indices
}

// WrapPitchClass folds an unwrapped note value into [0, 11].
func WrapPitchClass(note int) int {
	pc := note % PitchClasses
	if pc < 0 {
		pc += PitchClasses
	}
	return pc
}

// WrapPitchClasses folds every note value into [0, 11], preserving order.
func WrapPitchClasses(notes []int) []int {
	wrapped := make([]int, len(notes))
	for i, note := range notes {
		wrapped[i] = WrapPitchClass(note)
	}
	return wrapped
}
