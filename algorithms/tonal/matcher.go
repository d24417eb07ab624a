package tonal

import (
	"errors"
	"fmt"
	"slices"

	"github.com/RyanBlaney/sonido-jam/algorithms/chroma"
	"github.com/RyanBlaney/sonido-jam/algorithms/common"
)

var (
	// ErrEmptyRank is returned when a ranked-membership score is asked to look at zero pitch classes.
	ErrEmptyRank = errors.New("ranked membership needs a positive count")
	// ErrRankCount is returned when more pitch classes are requested than a tone vector holds.
	ErrRankCount = errors.New("ranked membership count exceeds 12 pitch classes")
	// ErrMeasureChords is returned when a measure carries neither one nor two chords.
	ErrMeasureChords = errors.New("a measure must carry one or two chords")
)

// beatsPerMeasure is the number of beats scored for a 4/4 measure.
const beatsPerMeasure = 4

// RankDirection selects whether the strongest or the weakest pitch classes are ranked.
type RankDirection int

const (
	RankMax RankDirection = iota
	RankMin
)

func (d RankDirection) String() string {
	if d == RankMin {
		return "min"
	}
	return "max"
}

// RankedScore is the outcome of a ranked-membership comparison.
type RankedScore struct {
	Score     float64 `json:"score"`     // Raw / Potential, 0-1
	Raw       float64 `json:"raw"`       // sum of awarded weights
	Potential float64 `json:"potential"` // sum of all weights examined
}

// RankedMembership ranks the pitch classes of tv by energy (strongest first for
// RankMax, weakest first for RankMin), walks the first count of them with weights
// 1, 1/2, 1/4, ... and awards the weight whenever membership in targets matches
// inIsGood. Equal energies rank the lower pitch class first.
func RankedMembership(tv chroma.ToneVector, targets []int, direction RankDirection, inIsGood bool, count int) (RankedScore, error) {
	if count <= 0 {
		return RankedScore{}, fmt.Errorf("%w: got %d", ErrEmptyRank, count)
	}
	if count > common.PitchClasses {
		return RankedScore{}, fmt.Errorf("%w: got %d", ErrRankCount, count)
	}

	ranked := common.RankIndices(tv[:], direction == RankMax)[:count]

	var result RankedScore
	weight := 1.0
	for _, pc := range ranked {
		if slices.Contains(targets, pc) == inIsGood {
			result.Raw += weight
		}
		result.Potential += weight
		weight /= 2.0
	}
	result.Score = result.Raw / result.Potential
	return result, nil
}

// MatchParams tunes the tone vector scoring.
type MatchParams struct {
	// InvertAverageRelative flips the average-relative term so that chord tones
	// below the mean and non-chord tones above it score. See DESIGN.md.
	InvertAverageRelative bool `json:"invert_average_relative"`
}

// Matcher scores how well tone vectors fit chords.
type Matcher struct {
	params MatchParams
}

// NewMatcher creates a matcher with the given parameters.
func NewMatcher(params MatchParams) *Matcher {
	return &Matcher{params: params}
}

// NewDefaultMatcher creates a matcher that rewards chord tones above the mean.
func NewDefaultMatcher() *Matcher {
	return NewMatcher(MatchParams{})
}

// AverageRelative compares each bin with the vector's mean and returns
// (points / 12, points). By default a chord tone above the mean or a non-chord
// tone below it earns a point; InvertAverageRelative swaps both conditions.
func (m *Matcher) AverageRelative(chord *ChordInfo, tv chroma.ToneVector) (float64, float64) {
	mean := tv.Mean()

	raw := 0.0
	for pc, value := range tv {
		above, below := value > mean, value < mean
		if m.params.InvertAverageRelative {
			above, below = below, above
		}
		inChord := chord.IsChordTone(pc)
		if (inChord && above) || (!inChord && below) {
			raw++
		}
	}
	return raw / common.PitchClasses, raw
}

// Score combines every sub-score for one tone vector. Higher is better; only
// relative comparisons are meaningful.
//
// Terms: strongest tones inside the chord, weakest tones outside it (both over
// as many pitch classes as the chord has notes), the two chord-membership terms
// over as many pitch classes as the chord has anti-tones, and twice the
// average-relative score. A chord without anti-tones contributes nothing for the
// anti-tone-count terms.
func (m *Matcher) Score(chord *ChordInfo, tv chroma.ToneVector) (float64, error) {
	noteCount := len(chord.NoteInts)
	antiCount := len(chord.AntiNoteInts)

	type term struct {
		direction RankDirection
		inIsGood  bool
		count     int
	}
	terms := []term{
		{RankMax, true, noteCount},
		{RankMin, false, noteCount},
	}
	if antiCount > 0 {
		terms = append(terms,
			term{RankMax, false, antiCount},
			term{RankMax, true, antiCount},
		)
	}

	total := 0.0
	for _, t := range terms {
		rs, err := RankedMembership(tv, chord.NoteInts, t.direction, t.inIsGood, t.count)
		if err != nil {
			return 0, fmt.Errorf("scoring %s: %w", chord.Symbol, err)
		}
		total += rs.Score
	}

	avg, _ := m.AverageRelative(chord, tv)
	total += 2 * avg
	return total, nil
}

// ScoreBeats sums Score over each beat's tone vector.
func (m *Matcher) ScoreBeats(chord *ChordInfo, beats []chroma.ToneVector) (float64, error) {
	total := 0.0
	for _, tv := range beats {
		s, err := m.Score(chord, tv)
		if err != nil {
			return 0, err
		}
		total += s
	}
	return total, nil
}

// ScoreMeasure scores one measure of audio against the chords written for it.
//
// With one chord the score is (beat scores over the first four beats + 4 x bar
// score) / 2. With two chords the first covers beats 0-1 and the second beats
// 2-3, and no bar-level term is used.
func (m *Matcher) ScoreMeasure(chords []*ChordInfo, bar chroma.ToneVector, beats []chroma.ToneVector) (float64, error) {
	switch len(chords) {
	case 1:
		beatScore, err := m.ScoreBeats(chords[0], head(beats, beatsPerMeasure))
		if err != nil {
			return 0, err
		}
		barScore, err := m.Score(chords[0], bar)
		if err != nil {
			return 0, err
		}
		return (beatScore + beatsPerMeasure*barScore) / 2.0, nil

	case 2:
		half := beatsPerMeasure / 2
		first, err := m.ScoreBeats(chords[0], head(beats, half))
		if err != nil {
			return 0, err
		}
		second, err := m.ScoreBeats(chords[1], window(beats, half, beatsPerMeasure))
		if err != nil {
			return 0, err
		}
		return first + second, nil

	default:
		return 0, fmt.Errorf("%w: got %d", ErrMeasureChords, len(chords))
	}
}

func head(beats []chroma.ToneVector, n int) []chroma.ToneVector {
	return window(beats, 0, n)
}

func window(beats []chroma.ToneVector, from, to int) []chroma.ToneVector {
	if from > len(beats) {
		return nil
	}
	if to > len(beats) {
		to = len(beats)
	}
	return beats[from:to]
}
