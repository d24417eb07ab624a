package chroma

import (
	"math"

	"github.com/RyanBlaney/sonido-jam/algorithms/common"
	"github.com/RyanBlaney/sonido-jam/algorithms/spectral"
	"github.com/RyanBlaney/sonido-jam/algorithms/windowing"
)

// FFTChroma folds the power spectrum of one analysis frame (typically a beat)
// into 12 pitch-class bins.
//
// Frequencies are mapped to the nearest equal-tempered semitone relative to the
// tuning frequency (A4, default 440 Hz) and octave-folded, so every C lands in bin 0.
type FFTChroma struct {
	sampleRate int
	tuningFreq float64
	minFreq    float64
	maxFreq    float64
	fft        *spectral.FFT
}

// NewFFTChroma creates a chroma calculator with A4=440Hz tuning
func NewFFTChroma(sampleRate int) *FFTChroma {
	return &FFTChroma{
		sampleRate: sampleRate,
		tuningFreq: 440.0,
		minFreq:    55.0,   // A1, below the usual walking bass range
		maxFreq:    5000.0, // enough for upper partials of horns and piano
		fft:        spectral.NewFFT(),
	}
}

// Compute returns the unit-sum tone vector of frame. Silent or empty frames give
// an all-zero vector.
func (fc *FFTChroma) Compute(frame []float64) ToneVector {
	var tv ToneVector
	if len(frame) < 2 || fc.sampleRate <= 0 {
		return tv
	}

	windowed, err := windowing.NewHann(len(frame), false).Apply(frame)
	if err != nil {
		return tv
	}

	power := fc.fft.PowerSpectrum(windowed)
	for k := 1; k < len(power); k++ {
		freq := spectral.BinFrequency(k, len(frame), fc.sampleRate)
		if freq < fc.minFreq || freq > fc.maxFreq {
			continue
		}
		tv[fc.pitchClass(freq)] += power[k]
	}

	total := tv.Energy()
	if total > 1e-12 {
		for i := range tv {
			tv[i] /= total
		}
	}
	return tv
}

// pitchClass converts a frequency to its pitch class via the MIDI note number.
func (fc *FFTChroma) pitchClass(frequency float64) int {
	midi := 69.0 + 12.0*math.Log2(frequency/fc.tuningFreq)
	return common.WrapPitchClass(int(math.Round(midi)))
}
