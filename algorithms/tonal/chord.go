package tonal

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-jam/algorithms/common"
)

var (
	// ErrChordSyntax is returned when a symbol does not match the chord grammar.
	ErrChordSyntax = errors.New("invalid chord symbol")
	// ErrChordSemantic is returned for a mode/seventh combination the parser cannot resolve.
	ErrChordSemantic = errors.New("unsupported chord structure")
)

// Mode is the overall chord family selected by the mode character.
type Mode int

const (
	ModeMajor Mode = iota
	ModeDominant
	ModeMinor
	ModeDiminished
)

func (m Mode) String() string {
	switch m {
	case ModeMajor:
		return "major"
	case ModeDominant:
		return "dominant"
	case ModeMinor:
		return "minor"
	case ModeDiminished:
		return "diminished"
	default:
		return "unknown"
	}
}

// ThirdQuality is the quality of the chord's third.
type ThirdQuality int

const (
	ThirdMajor ThirdQuality = iota
	ThirdMinor
)

func (q ThirdQuality) String() string {
	if q == ThirdMinor {
		return "minor"
	}
	return "major"
}

// FifthQuality is the quality of the chord's fifth.
type FifthQuality int

const (
	FifthNormal FifthQuality = iota
	FifthFlat
)

func (q FifthQuality) String() string {
	if q == FifthFlat {
		return "flat"
	}
	return "normal"
}

// SeventhQuality is the quality of the chord's seventh, if any.
type SeventhQuality int

const (
	SeventhNone SeventhQuality = iota
	SeventhMajor
	SeventhMinor
	// SeventhDiminished is the doubly flattened seventh (a major sixth above the root).
	SeventhDiminished
)

func (q SeventhQuality) String() string {
	switch q {
	case SeventhMajor:
		return "major"
	case SeventhMinor:
		return "minor"
	case SeventhDiminished:
		return "diminished"
	default:
		return "none"
	}
}

// Interval offsets in semitones above the root.
const (
	offsetRoot         = 0
	offsetFlatNinth    = 1
	offsetMinorThird   = 3
	offsetMajorThird   = 4
	offsetFlatFifth    = 6
	offsetFifth        = 7
	offsetDimSeventh   = 9
	offsetMinorSeventh = 10
	offsetMajorSeventh = 11
)

var letterPitchClass = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var noteNames = [common.PitchClasses]string{
	"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B",
}

// NoteName returns the flat-spelled name of a pitch class.
func NoteName(note int) string {
	return noteNames[common.WrapPitchClass(note)]
}

// root letter, flat, mode character, seventh, flat five
var chordPattern = regexp.MustCompile(`^([A-G])(b)?([Mmo])?(7)?(b5)?$`)

// ChordInfo is the parsed, immutable form of a chord symbol such as "Dm7b5".
//
// Note slices are ordered root, third, fifth and (optionally) seventh; the raw
// slices are shifted by the root but not wrapped, so they can exceed 11.
type ChordInfo struct {
	Symbol  string `json:"symbol"`
	Root    string `json:"root"`
	RootInt int    `json:"root_int"`
	Mode    Mode   `json:"mode"`

	Third         ThirdQuality   `json:"third"`
	ThirdOffset   int            `json:"third_offset"`
	Fifth         FifthQuality   `json:"fifth"`
	FifthOffset   int            `json:"fifth_offset"`
	Seventh       SeventhQuality `json:"seventh"`
	SeventhOffset int            `json:"seventh_offset,omitempty"`

	NoteBaseOffsets []int `json:"note_base_offsets"`
	NoteIntsRaw     []int `json:"note_ints_raw"`
	NoteInts        []int `json:"note_ints"`

	AntiNoteOffsets []int `json:"anti_note_offsets"`
	AntiNoteIntsRaw []int `json:"anti_note_ints_raw"`
	AntiNoteInts    []int `json:"anti_note_ints"`
}

// HasSeventh reports whether the symbol carried a seventh.
func (ci *ChordInfo) HasSeventh() bool {
	return ci.Seventh != SeventhNone
}

// IsChordTone reports whether pitch class pc is one of the chord's notes.
func (ci *ChordInfo) IsChordTone(pc int) bool {
	return slices.Contains(ci.NoteInts, pc)
}

// IsAntiTone reports whether pitch class pc clashes with the chord's quality.
func (ci *ChordInfo) IsAntiTone(pc int) bool {
	return slices.Contains(ci.AntiNoteInts, pc)
}

func (ci *ChordInfo) String() string {
	return ci.Symbol
}

// Parse parses a chord symbol without consulting any cache.
//
// Grammar: root letter A-G, optional flat 'b', optional mode character
// ('M' major, 'm' minor, 'o' diminished, absent dominant), optional '7',
// optional "b5". A "b5" forces the chord to diminished with a flat fifth, so
// "m7b5" spells a half-diminished chord.
func Parse(symbol string) (*ChordInfo, error) {
	symbol = strings.TrimSpace(symbol)
	match := chordPattern.FindStringSubmatch(symbol)
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrChordSyntax, symbol)
	}
	rootLetter, flat, modeChar, seventh, altFifth := match[1], match[2], match[3], match[4], match[5]

	ci := &ChordInfo{
		Symbol:  symbol,
		Root:    rootLetter + flat,
		RootInt: letterPitchClass[rootLetter[0]],
	}
	if flat != "" {
		ci.RootInt = common.WrapPitchClass(ci.RootInt - 1)
	}

	if err := ci.resolveMode(modeChar); err != nil {
		return nil, fmt.Errorf("%w: %q", err, symbol)
	}
	if seventh != "" {
		if err := ci.resolveSeventh(); err != nil {
			return nil, fmt.Errorf("%w: %q", err, symbol)
		}
	}
	if altFifth != "" {
		ci.Mode = ModeDiminished
		ci.Fifth = FifthFlat
		ci.FifthOffset = offsetFlatFifth
	}

	ci.NoteBaseOffsets = []int{offsetRoot, ci.ThirdOffset, ci.FifthOffset}
	if ci.HasSeventh() {
		ci.NoteBaseOffsets = append(ci.NoteBaseOffsets, ci.SeventhOffset)
	}
	ci.NoteIntsRaw = shift(ci.NoteBaseOffsets, ci.RootInt)
	ci.NoteInts = common.WrapPitchClasses(ci.NoteIntsRaw)

	ci.AntiNoteOffsets = ci.antiOffsets()
	ci.AntiNoteIntsRaw = shift(ci.AntiNoteOffsets, ci.RootInt)
	ci.AntiNoteInts = common.WrapPitchClasses(ci.AntiNoteIntsRaw)

	return ci, nil
}

func (ci *ChordInfo) resolveMode(modeChar string) error {
	switch modeChar {
	case "M":
		ci.Mode = ModeMajor
		ci.Third, ci.ThirdOffset = ThirdMajor, offsetMajorThird
		ci.Fifth, ci.FifthOffset = FifthNormal, offsetFifth
	case "":
		ci.Mode = ModeDominant
		ci.Third, ci.ThirdOffset = ThirdMajor, offsetMajorThird
		ci.Fifth, ci.FifthOffset = FifthNormal, offsetFifth
	case "m":
		ci.Mode = ModeMinor
		ci.Third, ci.ThirdOffset = ThirdMinor, offsetMinorThird
		ci.Fifth, ci.FifthOffset = FifthNormal, offsetFifth
	case "o":
		ci.Mode = ModeDiminished
		ci.Third, ci.ThirdOffset = ThirdMinor, offsetMinorThird
		ci.Fifth, ci.FifthOffset = FifthFlat, offsetFlatFifth
	default:
		return fmt.Errorf("%w: mode character %q", ErrChordSyntax, modeChar)
	}
	return nil
}

func (ci *ChordInfo) resolveSeventh() error {
	switch ci.Mode {
	case ModeMajor:
		ci.Seventh, ci.SeventhOffset = SeventhMajor, offsetMajorSeventh
	case ModeDominant, ModeMinor:
		ci.Seventh, ci.SeventhOffset = SeventhMinor, offsetMinorSeventh
	case ModeDiminished:
		ci.Seventh, ci.SeventhOffset = SeventhDiminished, offsetDimSeventh
	default:
		return fmt.Errorf("%w: seventh for mode %s", ErrChordSemantic, ci.Mode)
	}
	return nil
}

// antiOffsets lists the avoid notes for the chord's quality, in rule order.
func (ci *ChordInfo) antiOffsets() []int {
	anti := []int{}
	// b9 clashes with major and minor chords, but not dominants or flat-five chords
	if ci.Mode != ModeDominant && ci.Fifth != FifthFlat {
		anti = append(anti, offsetFlatNinth)
	}
	if ci.Third == ThirdMajor && ci.Mode != ModeDominant {
		anti = append(anti, offsetMinorThird)
	}
	if ci.Third == ThirdMinor {
		anti = append(anti, offsetMajorThird)
	}
	if ci.Seventh == SeventhMinor {
		anti = append(anti, offsetMajorSeventh)
	}
	if ci.Seventh == SeventhMajor || (ci.Mode == ModeMajor && ci.Seventh == SeventhNone) {
		anti = append(anti, offsetMinorSeventh)
	}
	return anti
}

func shift(offsets []int, root int) []int {
	shifted := make([]int, len(offsets))
	for i, offset := range offsets {
		shifted[i] = root + offset
	}
	return shifted
}
