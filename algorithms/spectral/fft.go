package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp for the chroma analyzer.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the Fast Fourier Transform of a real signal.
// go-dsp handles any length, including non-power-of-2 beat frames.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// PowerSpectrum returns |X[k]|^2 for the non-negative frequency bins 0..N/2.
func (f *FFT) PowerSpectrum(x []float64) []float64 {
	spectrum := f.Compute(x)
	if len(spectrum) == 0 {
		return []float64{}
	}

	half := len(spectrum)/2 + 1
	power := make([]float64, half)
	for k := 0; k < half; k++ {
		mag := cmplx.Abs(spectrum[k])
		power[k] = mag * mag
	}
	return power
}

// BinFrequency returns the centre frequency in Hz of bin k for an N-point transform.
func BinFrequency(k, n, sampleRate int) float64 {
	if n == 0 {
		return 0
	}
	return float64(k) * float64(sampleRate) / float64(n)
}
