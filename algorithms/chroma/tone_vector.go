package chroma

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-jam/algorithms/common"
)

// ErrToneVectorLength is returned when a tone vector does not have exactly 12 bins.
var ErrToneVectorLength = errors.New("tone vector must have 12 pitch classes")

// ErrToneVectorValue is returned for negative, NaN or infinite bin energies.
var ErrToneVectorValue = errors.New("tone vector values must be finite and non-negative")

// ToneVector holds harmonic energy per pitch class (0=C ... 11=B) for one beat or bar.
type ToneVector [common.PitchClasses]float64

// NewToneVector validates values and copies them into a ToneVector.
func NewToneVector(values []float64) (ToneVector, error) {
	var tv ToneVector
	if len(values) != common.PitchClasses {
		return tv, fmt.Errorf("%w: got %d", ErrToneVectorLength, len(values))
	}
	for i, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return tv, fmt.Errorf("%w: pitch class %d is %v", ErrToneVectorValue, i, v)
		}
		tv[i] = v
	}
	return tv, nil
}

// Values returns a copy of the bins as a slice.
func (tv ToneVector) Values() []float64 {
	values := make([]float64, common.PitchClasses)
	copy(values, tv[:])
	return values
}

// Mean is the average bin energy.
func (tv ToneVector) Mean() float64 {
	return common.Mean(tv[:])
}

// Energy is the total energy over all bins.
func (tv ToneVector) Energy() float64 {
	return common.Sum(tv[:])
}

// Dominant returns the strongest pitch class; the lowest one wins a tie.
func (tv ToneVector) Dominant() int {
	return common.RankIndices(tv[:], true)[0]
}

// MeanToneVector averages vectors bin by bin. Weights may be nil for a plain mean;
// otherwise there must be one non-negative weight per vector.
func MeanToneVector(vectors []ToneVector, weights []float64) (ToneVector, error) {
	var mean ToneVector
	if len(vectors) == 0 {
		return mean, nil
	}
	if weights != nil && len(weights) != len(vectors) {
		return mean, fmt.Errorf("got %d weights for %d tone vectors", len(weights), len(vectors))
	}
	if weights == nil {
		weights = make([]float64, len(vectors))
		for i := range weights {
			weights[i] = 1
		}
	}

	column := make([]float64, len(vectors))
	for pc := 0; pc < common.PitchClasses; pc++ {
		for i, tv := range vectors {
			column[i] = tv[pc]
		}
		mean[pc] = common.WeightedMean(column, weights)
	}
	return mean, nil
}
