package temporal

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// ErrNoPulse is returned when a signal has no periodic onsets to derive a tempo from.
var ErrNoPulse = errors.New("no steady pulse found")

// TempoEstimation estimates a steady tempo from the autocorrelation of an
// onset strength curve.
type TempoEstimation struct {
	MinBPM float64 `json:"min_bpm"`
	MaxBPM float64 `json:"max_bpm"`
	// FrameSeconds and HopSeconds size the RMS envelope frames.
	FrameSeconds float64 `json:"frame_seconds"`
	HopSeconds   float64 `json:"hop_seconds"`

	envelope *Envelope
}

// NewTempoEstimation creates an estimator covering 60 to 240 BPM
func NewTempoEstimation() *TempoEstimation {
	return &TempoEstimation{
		MinBPM:       60,
		MaxBPM:       240,
		FrameSeconds: 0.02,
		HopSeconds:   0.01,
		envelope:     NewEnvelope(),
	}
}

// EstimateTempo returns the tempo in BPM.
func (te *TempoEstimation) EstimateTempo(signal []float64, sampleRate int) (float64, error) {
	frameSize := int(te.FrameSeconds * float64(sampleRate))
	hopSize := int(te.HopSeconds * float64(sampleRate))
	if frameSize <= 0 || hopSize <= 0 {
		return 0, ErrNoPulse
	}
	hopTime := float64(hopSize) / float64(sampleRate)

	strength := te.envelope.OnsetStrength(te.envelope.ComputeRMS(signal, frameSize, hopSize))

	minLag := max(int(60.0/te.MaxBPM/hopTime), 1)
	maxLag := int(60.0 / te.MinBPM / hopTime)
	if maxLag+1 >= len(strength) || minLag >= maxLag {
		return 0, ErrNoPulse
	}

	autocorr := make([]float64, maxLag+2)
	for lag := minLag - 1; lag <= maxLag+1; lag++ {
		autocorr[lag] = floats.Dot(strength[:len(strength)-lag], strength[lag:])
	}

	// Highest local maximum in range; the plain maximum when there is none.
	bestLag := -1
	for lag := minLag; lag <= maxLag; lag++ {
		if autocorr[lag] <= 0 || autocorr[lag] < autocorr[lag-1] || autocorr[lag] < autocorr[lag+1] {
			continue
		}
		if bestLag < 0 || autocorr[lag] > autocorr[bestLag] {
			bestLag = lag
		}
	}
	if bestLag < 0 {
		bestLag = minLag + floats.MaxIdx(autocorr[minLag:maxLag+1])
		if autocorr[bestLag] <= 0 {
			return 0, ErrNoPulse
		}
	}

	period := (float64(bestLag) + parabolicOffset(autocorr[bestLag-1], autocorr[bestLag], autocorr[bestLag+1])) * hopTime
	return 60.0 / period, nil
}

// parabolicOffset is the vertex of the parabola through three equally spaced
// points, relative to the middle one.
func parabolicOffset(left, center, right float64) float64 {
	denom := left - 2*center + right
	if denom == 0 {
		return 0
	}
	return 0.5 * (left - right) / denom
}
