// Package alignment finds where a tune's chord progression starts repeating in
// a recording and cuts the recording into head, solo and head-out choruses.
package alignment

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/remeh/sizedwaitgroup"

	"github.com/RyanBlaney/sonido-jam/algorithms/chroma"
	"github.com/RyanBlaney/sonido-jam/algorithms/tonal"
	"github.com/RyanBlaney/sonido-jam/analysis"
	"github.com/RyanBlaney/sonido-jam/logging"
)

// ErrInsufficientMaterial is returned when a recording is too short for what is asked of it.
var ErrInsufficientMaterial = errors.New("insufficient material")

// AlignerParams configures the offset search.
type AlignerParams struct {
	Workers int               `json:"workers"` // concurrent window evaluations, <= 0 means NumCPU
	Match   tonal.MatchParams `json:"match"`
}

// DefaultAlignerParams uses every CPU and the default scoring.
func DefaultAlignerParams() AlignerParams {
	return AlignerParams{Workers: runtime.NumCPU()}
}

// ChorusAlignment is the best cyclic placement of a chord progression over a recording.
type ChorusAlignment struct {
	// Offset is the bar, in [0, ChorusLength), at which choruses start.
	Offset int `json:"offset"`
	// Score is the summed window score of Offset's residue class.
	Score        float64 `json:"score"`
	ChorusLength int     `json:"chorus_length"`
	// WindowScores[s] is the score of the chorus starting at bar s.
	WindowScores []float64 `json:"window_scores"`
	// ResidueScores[r] sums WindowScores over every s with s mod ChorusLength == r.
	ResidueScores []float64 `json:"residue_scores"`
}

// ChorusAligner scores chord progressions against recordings.
type ChorusAligner struct {
	cache   *tonal.ChordCache
	matcher *tonal.Matcher
	params  AlignerParams
	logger  logging.Logger
}

// NewChorusAligner creates an aligner that resolves chords through cache. A nil
// cache gets a private one.
func NewChorusAligner(cache *tonal.ChordCache, params AlignerParams, logger logging.Logger) *ChorusAligner {
	if cache == nil {
		cache = tonal.NewChordCache()
	}
	if params.Workers <= 0 {
		params.Workers = runtime.NumCPU()
	}
	return &ChorusAligner{
		cache:   cache,
		matcher: tonal.NewMatcher(params.Match),
		params:  params,
		logger:  logging.OrGlobal(logger),
	}
}

// Cache returns the chord cache the aligner resolves symbols through.
func (ca *ChorusAligner) Cache() *tonal.ChordCache {
	return ca.cache
}

// FindBestOffset scores a chorus of changes starting at every bar s in
// [0, len(bars)-L), sums those scores by s mod L and returns the residue with the
// highest sum. Only residues with at least one window compete; the lowest
// offset wins a tie.
func (ca *ChorusAligner) FindBestOffset(changes [][]string, bars []analysis.Bar) (*ChorusAlignment, error) {
	chorusLength := len(changes)
	logger := ca.logger.WithFields(logging.Fields{
		"component":     "chorus_aligner",
		"function":      "FindBestOffset",
		"chorus_length": chorusLength,
		"bars":          len(bars),
	})

	if chorusLength == 0 {
		return nil, fmt.Errorf("%w: empty chord progression", ErrInsufficientMaterial)
	}
	if len(bars) <= chorusLength {
		return nil, fmt.Errorf("%w: %d bars cannot hold more than one %d bar chorus",
			ErrInsufficientMaterial, len(bars), chorusLength)
	}

	measures := make([][]*tonal.ChordInfo, chorusLength)
	for i, symbols := range changes {
		chords, err := ca.cache.GetAll(symbols)
		if err != nil {
			return nil, fmt.Errorf("measure %d: %w", i, err)
		}
		measures[i] = chords
	}

	barVectors := make([]chroma.ToneVector, len(bars))
	beatVectors := make([][]chroma.ToneVector, len(bars))
	for i, bar := range bars {
		barVectors[i] = bar.MeanPitches()
		beatVectors[i] = analysis.BeatVectors(bar)
	}

	numWindows := len(bars) - chorusLength
	windowScores := make([]float64, numWindows)
	windowErrs := make([]error, numWindows)

	swg := sizedwaitgroup.New(ca.params.Workers)
	for start := range numWindows {
		swg.Add()
		go func(start int) {
			defer swg.Done()
			total := 0.0
			for i, chords := range measures {
				score, err := ca.matcher.ScoreMeasure(chords, barVectors[start+i], beatVectors[start+i])
				if err != nil {
					windowErrs[start] = fmt.Errorf("window %d, measure %d: %w", start, i, err)
					return
				}
				total += score
			}
			windowScores[start] = total
		}(start)
	}
	swg.Wait()

	if err := errors.Join(windowErrs...); err != nil {
		return nil, err
	}

	result := &ChorusAlignment{
		Offset:        -1,
		ChorusLength:  chorusLength,
		WindowScores:  windowScores,
		ResidueScores: make([]float64, chorusLength),
	}
	for start, score := range windowScores {
		result.ResidueScores[start%chorusLength] += score
	}
	for residue := 0; residue < min(chorusLength, numWindows); residue++ {
		if result.Offset < 0 || result.ResidueScores[residue] > result.Score {
			result.Offset = residue
			result.Score = result.ResidueScores[residue]
		}
	}

	logger.Info("Found best chorus offset", logging.Fields{
		"offset":  result.Offset,
		"score":   result.Score,
		"windows": numWindows,
	})

	return result, nil
}
