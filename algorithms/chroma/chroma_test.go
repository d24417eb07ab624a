package chroma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestNewToneVectorValidates(t *testing.T) {
	_, err := NewToneVector([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrToneVectorLength)

	values := make([]float64, 12)
	values[3] = -1
	_, err = NewToneVector(values)
	assert.ErrorIs(t, err, ErrToneVectorValue)

	values[3] = math.NaN()
	_, err = NewToneVector(values)
	assert.ErrorIs(t, err, ErrToneVectorValue)

	values[3] = 2
	tv, err := NewToneVector(values)
	require.NoError(t, err)
	assert.Equal(t, 3, tv.Dominant())
	assert.InDelta(t, 2.0/12.0, tv.Mean(), 1e-12)
}

func TestMeanToneVector(t *testing.T) {
	a := ToneVector{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	b := ToneVector{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}

	plain, err := MeanToneVector([]ToneVector{a, b}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, plain[0], 1e-12)
	assert.InDelta(t, 0.5, plain[4], 1e-12)

	weighted, err := MeanToneVector([]ToneVector{a, b}, []float64{3, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, weighted[0], 1e-12)
	assert.InDelta(t, 0.25, weighted[4], 1e-12)

	_, err = MeanToneVector([]ToneVector{a, b}, []float64{1})
	assert.Error(t, err)
}

func TestFFTChromaFindsPitchClassOfSine(t *testing.T) {
	const sampleRate = 22050
	fc := NewFFTChroma(sampleRate)

	cases := map[string]struct {
		freq float64
		pc   int
	}{
		"A4": {440.0, 9},
		"C4": {261.63, 0},
		"E3": {164.81, 4},
		"G4": {392.0, 7},
	}
	for name, tc := range cases {
		tv := fc.Compute(sine(tc.freq, sampleRate, 8192))
		assert.Equal(t, tc.pc, tv.Dominant(), name)
		assert.InDelta(t, 1.0, tv.Energy(), 1e-9, name)
	}
}

func TestFFTChromaTriad(t *testing.T) {
	const sampleRate = 22050
	n := 8192
	c, e, g := sine(261.63, sampleRate, n), sine(329.63, sampleRate, n), sine(392.0, sampleRate, n)
	mix := make([]float64, n)
	for i := range mix {
		mix[i] = c[i] + e[i] + g[i]
	}

	tv := NewFFTChroma(sampleRate).Compute(mix)
	top := map[int]bool{}
	for pc, v := range tv {
		if v > 0.2 {
			top[pc] = true
		}
	}
	assert.Equal(t, map[int]bool{0: true, 4: true, 7: true}, top)
}

func TestFFTChromaSilence(t *testing.T) {
	tv := NewFFTChroma(22050).Compute(make([]float64, 1024))
	assert.Equal(t, ToneVector{}, tv)
	assert.Equal(t, ToneVector{}, NewFFTChroma(22050).Compute(nil))
}
