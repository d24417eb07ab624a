package analysis

import (
	"github.com/RyanBlaney/sonido-jam/algorithms/chroma"
)

// Span is a concrete Beat.
type Span struct {
	start    float64
	duration float64
	pitches  chroma.ToneVector
}

// NewSpan creates a span starting at start seconds and lasting duration seconds.
func NewSpan(start, duration float64, pitches chroma.ToneVector) *Span {
	return &Span{start: start, duration: duration, pitches: pitches}
}

func (s *Span) Start() float64                 { return s.start }
func (s *Span) Duration() float64              { return s.duration }
func (s *Span) MeanPitches() chroma.ToneVector { return s.pitches }

// Measure is a concrete Bar.
type Measure struct {
	Span
	beats []Beat
}

// NewMeasure creates a bar from its own span and its beats.
func NewMeasure(start, duration float64, pitches chroma.ToneVector, beats []Beat) *Measure {
	return &Measure{
		Span:  Span{start: start, duration: duration, pitches: pitches},
		beats: beats,
	}
}

// NewMeasureFromBeats creates a bar spanning its beats whose tone vector is the
// duration-weighted mean of theirs.
func NewMeasureFromBeats(beats []Beat) *Measure {
	if len(beats) == 0 {
		return &Measure{}
	}

	vectors := make([]chroma.ToneVector, len(beats))
	weights := make([]float64, len(beats))
	for i, b := range beats {
		vectors[i] = b.MeanPitches()
		weights[i] = b.Duration()
	}
	// weights match vectors one to one, so this cannot fail
	mean, _ := chroma.MeanToneVector(vectors, weights)

	start := beats[0].Start()
	return NewMeasure(start, End(beats[len(beats)-1])-start, mean, beats)
}

func (m *Measure) Beats() []Beat { return m.beats }

// Recording is a concrete Analysis.
type Recording struct {
	source        string
	tempo         float64
	timeSignature int
	beats         []Beat
	bars          []Bar
}

// NewRecording creates an analysis from explicit beat and bar lists.
func NewRecording(source string, tempo float64, timeSignature int, beats []Beat, bars []Bar) *Recording {
	return &Recording{
		source:        source,
		tempo:         tempo,
		timeSignature: timeSignature,
		beats:         beats,
		bars:          bars,
	}
}

// NewRecordingFromBars creates an analysis whose beat list is the concatenation
// of the bars' beats.
func NewRecordingFromBars(source string, tempo float64, timeSignature int, bars []Bar) *Recording {
	var beats []Beat
	for _, bar := range bars {
		beats = append(beats, bar.Beats()...)
	}
	return NewRecording(source, tempo, timeSignature, beats, bars)
}

func (r *Recording) Source() string     { return r.source }
func (r *Recording) Tempo() float64     { return r.tempo }
func (r *Recording) TimeSignature() int { return r.timeSignature }
func (r *Recording) Beats() []Beat      { return r.beats }
func (r *Recording) Bars() []Bar        { return r.bars }

// Duration is the time from the start of the first bar to the end of the last.
func (r *Recording) Duration() float64 {
	if len(r.bars) == 0 {
		return 0
	}
	return End(r.bars[len(r.bars)-1]) - r.bars[0].Start()
}
