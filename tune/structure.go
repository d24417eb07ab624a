package tune

import (
	"fmt"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-jam/algorithms/tonal"
)

// MaxChordsPerMeasure is the most chords a measure may carry.
const MaxChordsPerMeasure = 2

// Structure is a parsed chart: cleaned per-measure changes plus the set of
// distinct chords they use. Every symbol in it is known to parse.
type Structure struct {
	Name         string
	HalfTime     bool
	Changes      [][]string
	UniqueChords map[string]struct{}
}

// Parse validates a chart against the chord grammar, resolving every chord
// through cache, and returns its structure. Symbols are trimmed of whitespace.
// A nil cache parses against a fresh one.
func Parse(chart *Chart, cache *tonal.ChordCache) (*Structure, error) {
	if cache == nil {
		cache = tonal.NewChordCache()
	}
	if chart == nil || len(chart.Changes) == 0 {
		return nil, fmt.Errorf("%w: no measures", ErrInvalidChart)
	}
	if chart.TimeSignature != 0 && chart.TimeSignature != 4 {
		return nil, fmt.Errorf("%w: %s is in %d/4", ErrInvalidChart, chart.Name, chart.TimeSignature)
	}

	s := &Structure{
		Name:         chart.Name,
		HalfTime:     chart.HalfTime,
		Changes:      make([][]string, len(chart.Changes)),
		UniqueChords: make(map[string]struct{}),
	}

	for i, measure := range chart.Changes {
		if len(measure) == 0 || len(measure) > MaxChordsPerMeasure {
			return nil, fmt.Errorf("%w: measure %d has %d chords, want 1 or %d",
				ErrInvalidChart, i, len(measure), MaxChordsPerMeasure)
		}

		chords := make([]string, len(measure))
		for j, raw := range measure {
			symbol := strings.TrimSpace(raw)
			if _, err := cache.Get(symbol); err != nil {
				return nil, fmt.Errorf("measure %d: %w", i, err)
			}
			chords[j] = symbol
			s.UniqueChords[symbol] = struct{}{}
		}
		s.Changes[i] = chords
	}

	return s, nil
}

// ChorusLength is the number of measures in one chorus.
func (s *Structure) ChorusLength() int {
	return len(s.Changes)
}

// SortedChords lists the distinct chords alphabetically.
func (s *Structure) SortedChords() []string {
	chords := make([]string, 0, len(s.UniqueChords))
	for c := range s.UniqueChords {
		chords = append(chords, c)
	}
	slices.Sort(chords)
	return chords
}
