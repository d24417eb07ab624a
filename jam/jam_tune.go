// Package jam aligns recordings of the same tune and splices their choruses
// into a new performance.
package jam

import (
	"fmt"
	"math/rand"

	"github.com/RyanBlaney/sonido-jam/algorithms/stats"
	"github.com/RyanBlaney/sonido-jam/alignment"
	"github.com/RyanBlaney/sonido-jam/analysis"
	"github.com/RyanBlaney/sonido-jam/logging"
	"github.com/RyanBlaney/sonido-jam/tune"
)

// TuneParams configures how a recording is summarized.
type TuneParams struct {
	BinTolerance float64 `json:"bin_tolerance"`
}

// JamTune is one recording aligned against a tune's changes.
type JamTune struct {
	structure *tune.Structure
	recording analysis.Analysis
	alignment *alignment.ChorusAlignment
	sections  *alignment.Sections
	durations *stats.DurationInfo
}

// NewJamTune aligns recording against structure and cuts it into choruses.
// Recordings that are too short for solos are still returned; callers check HasSolos.
func NewJamTune(structure *tune.Structure, recording analysis.Analysis, aligner *alignment.ChorusAligner, params TuneParams, logger logging.Logger) (*JamTune, error) {
	logger = logging.OrGlobal(logger).WithFields(logging.Fields{
		"component": "jam_tune",
		"function":  "NewJamTune",
		"source":    recording.Source(),
		"tune":      structure.Name,
	})

	if err := analysis.ValidateTimeSignature(recording); err != nil {
		return nil, err
	}

	bars := recording.Bars()
	result, err := aligner.FindBestOffset(structure.Changes, bars)
	if err != nil {
		return nil, fmt.Errorf("aligning %s: %w", recording.Source(), err)
	}

	sections, err := alignment.Slice(bars, result.Offset, result.ChorusLength)
	if err != nil {
		return nil, fmt.Errorf("slicing %s: %w", recording.Source(), err)
	}

	durations, err := stats.NewDurationInfo(analysis.BeatDurations(recording), analysis.BarDurations(recording), params.BinTolerance)
	if err != nil {
		return nil, fmt.Errorf("binning %s: %w", recording.Source(), err)
	}

	jt := &JamTune{
		structure: structure,
		recording: recording,
		alignment: result,
		sections:  sections,
		durations: durations,
	}

	fields := logging.Fields{
		"tempo":                 recording.Tempo(),
		"time_signature":        recording.TimeSignature(),
		"average_beat_duration": durations.AverageBeatDuration,
		"average_bar_duration":  durations.AverageBarDuration,
		"chorus_length":         result.ChorusLength,
		"offset":                result.Offset,
		"total_choruses":        sections.TotalChoruses,
		"solo_choruses":         sections.SoloChoruses,
		"half_time":             jt.HalfTime(),
	}
	if sections.HasSolos() {
		logger.Info("Aligned recording", fields)
	} else {
		logger.Warn("Aligned recording has no solo choruses", fields)
	}

	return jt, nil
}

func (jt *JamTune) Source() string                        { return jt.recording.Source() }
func (jt *JamTune) Recording() analysis.Analysis          { return jt.recording }
func (jt *JamTune) Alignment() *alignment.ChorusAlignment { return jt.alignment }
func (jt *JamTune) Sections() *alignment.Sections         { return jt.sections }
func (jt *JamTune) Durations() *stats.DurationInfo        { return jt.durations }

func (jt *JamTune) HeadBars() []analysis.Bar    { return jt.sections.Head }
func (jt *JamTune) HeadOutBars() []analysis.Bar { return jt.sections.HeadOut }
func (jt *JamTune) SoloBars() []analysis.Bar    { return jt.sections.Solo }
func (jt *JamTune) SoloChoruses() int           { return jt.sections.SoloChoruses }
func (jt *JamTune) HasSolos() bool              { return jt.sections.HasSolos() }

// HalfTime reports whether the analysis found about half the beats per bar the
// meter calls for.
func (jt *JamTune) HalfTime() bool {
	return jt.durations.IsHalfTime(jt.recording.TimeSignature())
}

// NthSoloChorus returns the bars of solo chorus n.
func (jt *JamTune) NthSoloChorus(n int) ([]analysis.Bar, error) {
	return jt.sections.SoloChorus(n)
}

// RandomSoloChorus picks one solo chorus.
func (jt *JamTune) RandomSoloChorus(rng *rand.Rand) ([]analysis.Bar, error) {
	if !jt.HasSolos() {
		return jt.sections.SoloChorus(0)
	}
	return jt.sections.SoloChorus(rng.Intn(jt.sections.SoloChoruses))
}

// NthBarsOfRandomSoloChorus returns up to count bars starting at index of a
// random solo chorus. The slice is shorter when it would run past the chorus.
func (jt *JamTune) NthBarsOfRandomSoloChorus(rng *rand.Rand, index, count int) ([]analysis.Bar, error) {
	chorus, err := jt.RandomSoloChorus(rng)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(chorus) {
		return nil, fmt.Errorf("bar %d outside a %d bar chorus", index, len(chorus))
	}
	return chorus[index:min(index+count, len(chorus))], nil
}

// BarInPrimaryBin reports whether bar has the typical bar length, i.e. whether
// its boundaries look correctly detected.
func (jt *JamTune) BarInPrimaryBin(bar analysis.Bar) bool {
	return jt.durations.BarFits(bar.Duration())
}

// BeatInPrimaryBin reports whether beat has the typical beat length.
func (jt *JamTune) BeatInPrimaryBin(beat analysis.Beat) bool {
	return jt.durations.BeatFits(beat.Duration())
}
