package analysis

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-jam/algorithms/chroma"
	"github.com/RyanBlaney/sonido-jam/logging"
)

// ErrNoTempo is returned when raw audio has neither a given nor a detectable tempo.
var ErrNoTempo = errors.New("no tempo for raw audio")

// GridParams places a fixed beat grid over raw audio.
type GridParams struct {
	Tempo       float64 `json:"tempo"`         // beats per minute
	BeatsPerBar int     `json:"beats_per_bar"` // defaults to 4
	FirstBeat   float64 `json:"first_beat"`    // seconds from the start of the audio
}

// PCMAnalyzer turns mono PCM into bars and beats on a steady tempo grid, taking
// the chroma of each beat's samples.
type PCMAnalyzer struct {
	logger logging.Logger
}

// NewPCMAnalyzer creates a grid analyzer.
func NewPCMAnalyzer(logger logging.Logger) *PCMAnalyzer {
	return &PCMAnalyzer{logger: logging.OrGlobal(logger)}
}

// Analyze builds a recording of every complete bar of samples after FirstBeat.
func (pa *PCMAnalyzer) Analyze(source string, samples []float64, sampleRate int, grid GridParams) (*Recording, error) {
	logger := pa.logger.WithFields(logging.Fields{
		"component": "pcm_analyzer",
		"function":  "Analyze",
		"source":    source,
	})

	if grid.Tempo <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTempo, source)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d for %s", sampleRate, source)
	}
	if grid.BeatsPerBar <= 0 {
		grid.BeatsPerBar = SupportedTimeSignature
	}
	if grid.FirstBeat < 0 {
		grid.FirstBeat = 0
	}

	beatLength := 60.0 / grid.Tempo
	barLength := beatLength * float64(grid.BeatsPerBar)
	total := float64(len(samples)) / float64(sampleRate)
	numBars := int((total - grid.FirstBeat) / barLength)
	if numBars <= 0 {
		return nil, fmt.Errorf("%w: %s is shorter than one bar at %.1f bpm", ErrInvalidAnalysis, source, grid.Tempo)
	}

	fc := chroma.NewFFTChroma(sampleRate)
	frame := func(start float64) []float64 {
		from := int(start * float64(sampleRate))
		to := min(int((start+beatLength)*float64(sampleRate)), len(samples))
		return samples[from:to]
	}

	var beats []Beat
	bars := make([]Bar, numBars)
	for i := range bars {
		barBeats := make([]Beat, grid.BeatsPerBar)
		for j := range barBeats {
			start := grid.FirstBeat + float64(i)*barLength + float64(j)*beatLength
			barBeats[j] = NewSpan(start, beatLength, fc.Compute(frame(start)))
		}
		bars[i] = NewMeasureFromBeats(barBeats)
		beats = append(beats, barBeats...)
	}

	logger.Debug("Analysed PCM on a fixed grid", logging.Fields{
		"tempo":       grid.Tempo,
		"bars":        numBars,
		"beat_length": beatLength,
		"duration":    total,
	})

	return NewRecording(source, grid.Tempo, grid.BeatsPerBar, beats, bars), nil
}
