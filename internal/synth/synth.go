// Package synth builds noiseless recordings whose harmony follows a chord chart exactly.
package synth

import (
	"fmt"

	"github.com/RyanBlaney/sonido-jam/algorithms/chroma"
	"github.com/RyanBlaney/sonido-jam/algorithms/tonal"
	"github.com/RyanBlaney/sonido-jam/analysis"
)

// Params describes a synthetic recording.
type Params struct {
	Source   string
	Tempo    float64 // defaults to 120
	Choruses int
	// Intro and Outro are silent bars before the first and after the last chorus.
	Intro int
	Outro int
	// BeatScale stretches every beat, e.g. 2 for a half-time analysis.
	BeatScale float64
}

// ChordVector puts unit energy on each chord tone.
func ChordVector(ci *tonal.ChordInfo) chroma.ToneVector {
	var tv chroma.ToneVector
	for _, pc := range ci.NoteInts {
		tv[pc] = 1
	}
	return tv
}

// Recording renders params.Choruses repetitions of changes as 4/4 bars.
func Recording(changes [][]string, cache *tonal.ChordCache, params Params) (*analysis.Recording, error) {
	if cache == nil {
		cache = tonal.NewChordCache()
	}
	if params.Tempo <= 0 {
		params.Tempo = 120
	}
	if params.BeatScale <= 0 {
		params.BeatScale = 1
	}
	beatLength := 60.0 / params.Tempo * params.BeatScale

	var bars []analysis.Bar
	clock := 0.0
	addBar := func(perBeat [4]chroma.ToneVector) {
		beats := make([]analysis.Beat, len(perBeat))
		for i, tv := range perBeat {
			beats[i] = analysis.NewSpan(clock, beatLength, tv)
			clock += beatLength
		}
		bars = append(bars, analysis.NewMeasureFromBeats(beats))
	}

	for range params.Intro {
		addBar([4]chroma.ToneVector{})
	}
	for range params.Choruses {
		for i, measure := range changes {
			chords, err := cache.GetAll(measure)
			if err != nil {
				return nil, fmt.Errorf("measure %d: %w", i, err)
			}
			first, second := ChordVector(chords[0]), ChordVector(chords[len(chords)-1])
			addBar([4]chroma.ToneVector{first, first, second, second})
		}
	}
	for range params.Outro {
		addBar([4]chroma.ToneVector{})
	}

	return analysis.NewRecordingFromBars(params.Source, params.Tempo/params.BeatScale, analysis.SupportedTimeSignature, bars), nil
}
