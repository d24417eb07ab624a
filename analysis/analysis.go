// Package analysis describes the per-bar and per-beat harmonic content of a
// recording and provides loaders that produce it.
package analysis

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-jam/algorithms/chroma"
)

// SupportedTimeSignature is the only meter the chorus aligner understands.
const SupportedTimeSignature = 4

// ErrUnsupportedTimeSignature is returned for anything other than 4/4.
var ErrUnsupportedTimeSignature = errors.New("unsupported time signature")

// Beat is one beat (or any other timed span) of a recording.
type Beat interface {
	// Start is the offset of the span in seconds from the start of the audio.
	Start() float64
	// Duration is the length of the span in seconds.
	Duration() float64
	// MeanPitches is the harmonic energy of the span per pitch class.
	MeanPitches() chroma.ToneVector
}

// Bar is a measure together with its beats, in order.
type Bar interface {
	Beat
	Beats() []Beat
}

// Analysis is everything the aligner and jammer need to know about a recording.
type Analysis interface {
	// Source identifies the audio the analysis describes, normally a file path.
	Source() string
	Tempo() float64
	// TimeSignature is the numerator of the meter.
	TimeSignature() int
	Beats() []Beat
	Bars() []Bar
}

// ValidateTimeSignature rejects analyses that are not in 4/4.
func ValidateTimeSignature(a Analysis) error {
	if ts := a.TimeSignature(); ts != SupportedTimeSignature {
		return fmt.Errorf("%w: %s is in %d/4, only %d/4 is supported",
			ErrUnsupportedTimeSignature, a.Source(), ts, SupportedTimeSignature)
	}
	return nil
}

// BeatDurations lists the duration of every beat of a.
func BeatDurations(a Analysis) []float64 {
	beats := a.Beats()
	durations := make([]float64, len(beats))
	for i, b := range beats {
		durations[i] = b.Duration()
	}
	return durations
}

// BarDurations lists the duration of every bar of a.
func BarDurations(a Analysis) []float64 {
	bars := a.Bars()
	durations := make([]float64, len(bars))
	for i, b := range bars {
		durations[i] = b.Duration()
	}
	return durations
}

// BeatVectors returns the tone vector of each beat of bar.
func BeatVectors(bar Bar) []chroma.ToneVector {
	beats := bar.Beats()
	vectors := make([]chroma.ToneVector, len(beats))
	for i, b := range beats {
		vectors[i] = b.MeanPitches()
	}
	return vectors
}

// End returns the time in seconds at which span b finishes.
func End(b Beat) float64 {
	return b.Start() + b.Duration()
}
