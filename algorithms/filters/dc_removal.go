package filters

import (
	"math"
)

// DCRemoval is a one-pole DC blocking filter:
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// See https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCRemoval struct {
	poleLocation float64 // R, 0 < R < 1
	cutoffFreq   float64 // -3dB cutoff in Hz
	sampleRate   int
}

// NewDCRemoval creates a DC blocker with R = 0.995.
func NewDCRemoval() *DCRemoval {
	return &DCRemoval{poleLocation: 0.995}
}

// NewDCRemovalWithCutoff derives R from a cutoff frequency using R = 1 - 2*pi*fc/fs.
func NewDCRemovalWithCutoff(sampleRate int, cutoffFreq float64) *DCRemoval {
	dc := &DCRemoval{sampleRate: sampleRate, cutoffFreq: cutoffFreq, poleLocation: 0.995}
	if sampleRate > 0 && cutoffFreq > 0 {
		dc.poleLocation = math.Max(0, math.Min(1-2*math.Pi*cutoffFreq/float64(sampleRate), 0.9999))
	}
	return dc
}

// PoleLocation returns R.
func (dc *DCRemoval) PoleLocation() float64 {
	return dc.poleLocation
}

// Process filters signal into a new slice. Filter state starts at rest for
// every call.
func (dc *DCRemoval) Process(signal []float64) []float64 {
	out := make([]float64, len(signal))
	var x1, y1 float64
	for i, x := range signal {
		y := x - x1 + dc.poleLocation*y1
		out[i] = y
		x1, y1 = x, y
	}
	return out
}
