package temporal

import (
	"math"
)

// Envelope provides amplitude envelope extraction
type Envelope struct{}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// ComputeRMS computes RMS envelope with given frame and hop sizes
func (e *Envelope) ComputeRMS(signal []float64, frameSize, hopSize int) []float64 {
	if len(signal) < frameSize || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	envelope := make([]float64, numFrames)

	for i := range numFrames {
		start := i * hopSize
		sumSquares := 0.0
		for _, s := range signal[start : start+frameSize] {
			sumSquares += s * s
		}
		envelope[i] = math.Sqrt(sumSquares / float64(frameSize))
	}

	return envelope
}

// OnsetStrength is the half-wave rectified first difference of an envelope:
// it rises where the level jumps up and is zero where it holds or decays.
// The result is one shorter than the envelope.
func (e *Envelope) OnsetStrength(envelope []float64) []float64 {
	if len(envelope) < 2 {
		return []float64{}
	}

	strength := make([]float64, len(envelope)-1)
	for i := range strength {
		strength[i] = max(envelope[i+1]-envelope[i], 0)
	}
	return strength
}
