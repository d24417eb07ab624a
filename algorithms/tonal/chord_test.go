package tonal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChords(t *testing.T) {
	cases := []struct {
		symbol       string
		mode         Mode
		rootInt      int
		third        ThirdQuality
		fifth        FifthQuality
		seventh      SeventhQuality
		baseOffsets  []int
		noteIntsRaw  []int
		noteInts     []int
		antiOffsets  []int
		antiIntsRaw  []int
		antiNoteInts []int
	}{
		{"CM", ModeMajor, 0, ThirdMajor, FifthNormal, SeventhNone,
			[]int{0, 4, 7}, []int{0, 4, 7}, []int{0, 4, 7},
			[]int{1, 3, 10}, []int{1, 3, 10}, []int{1, 3, 10}},
		{"CM7", ModeMajor, 0, ThirdMajor, FifthNormal, SeventhMajor,
			[]int{0, 4, 7, 11}, []int{0, 4, 7, 11}, []int{0, 4, 7, 11},
			[]int{1, 3, 10}, []int{1, 3, 10}, []int{1, 3, 10}},
		{"Cm7", ModeMinor, 0, ThirdMinor, FifthNormal, SeventhMinor,
			[]int{0, 3, 7, 10}, []int{0, 3, 7, 10}, []int{0, 3, 7, 10},
			[]int{1, 4, 11}, []int{1, 4, 11}, []int{1, 4, 11}},
		{"Dm7", ModeMinor, 2, ThirdMinor, FifthNormal, SeventhMinor,
			[]int{0, 3, 7, 10}, []int{2, 5, 9, 12}, []int{2, 5, 9, 0},
			[]int{1, 4, 11}, []int{3, 6, 13}, []int{3, 6, 1}},
		{"Ebm7", ModeMinor, 3, ThirdMinor, FifthNormal, SeventhMinor,
			[]int{0, 3, 7, 10}, []int{3, 6, 10, 13}, []int{3, 6, 10, 1},
			[]int{1, 4, 11}, []int{4, 7, 14}, []int{4, 7, 2}},
		{"Em7b5", ModeDiminished, 4, ThirdMinor, FifthFlat, SeventhMinor,
			[]int{0, 3, 6, 10}, []int{4, 7, 10, 14}, []int{4, 7, 10, 2},
			[]int{4, 11}, []int{8, 15}, []int{8, 3}},
		{"Fm7", ModeMinor, 5, ThirdMinor, FifthNormal, SeventhMinor,
			[]int{0, 3, 7, 10}, []int{5, 8, 12, 15}, []int{5, 8, 0, 3},
			[]int{1, 4, 11}, []int{6, 9, 16}, []int{6, 9, 4}},
		{"G7", ModeDominant, 7, ThirdMajor, FifthNormal, SeventhMinor,
			[]int{0, 4, 7, 10}, []int{7, 11, 14, 17}, []int{7, 11, 2, 5},
			[]int{11}, []int{18}, []int{6}},
		{"Co7", ModeDiminished, 0, ThirdMinor, FifthFlat, SeventhDiminished,
			[]int{0, 3, 6, 9}, []int{0, 3, 6, 9}, []int{0, 3, 6, 9},
			[]int{4}, []int{4}, []int{4}},
		{"Bb", ModeDominant, 10, ThirdMajor, FifthNormal, SeventhNone,
			[]int{0, 4, 7}, []int{10, 14, 17}, []int{10, 2, 5},
			[]int{}, []int{}, []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.symbol, func(t *testing.T) {
			ci, err := Parse(tc.symbol)
			require.NoError(t, err)

			assert.Equal(t, tc.symbol, ci.Symbol)
			assert.Equal(t, tc.mode, ci.Mode)
			assert.Equal(t, tc.rootInt, ci.RootInt)
			assert.Equal(t, tc.third, ci.Third)
			assert.Equal(t, tc.fifth, ci.Fifth)
			assert.Equal(t, tc.seventh, ci.Seventh)
			assert.Equal(t, tc.baseOffsets, ci.NoteBaseOffsets)
			assert.Equal(t, tc.noteIntsRaw, ci.NoteIntsRaw)
			assert.Equal(t, tc.noteInts, ci.NoteInts)
			assert.Equal(t, tc.antiOffsets, ci.AntiNoteOffsets)
			assert.Equal(t, tc.antiIntsRaw, ci.AntiNoteIntsRaw)
			assert.Equal(t, tc.antiNoteInts, ci.AntiNoteInts)

			assert.Equal(t, 0, ci.NoteBaseOffsets[0])
			assert.Contains(t, []int{3, 4}, len(ci.NoteInts))
		})
	}
}

func TestParseFlatRoots(t *testing.T) {
	cases := map[string]int{"Db7": 1, "Gbm": 6, "Ab7": 8, "Cb": 11, "Fb": 4}
	for symbol, root := range cases {
		ci, err := Parse(symbol)
		require.NoError(t, err, symbol)
		assert.Equal(t, root, ci.RootInt, symbol)
	}
}

func TestParseFlatFiveOverridesMode(t *testing.T) {
	ci, err := Parse("Em7b5")
	require.NoError(t, err)
	assert.Equal(t, ModeDiminished, ci.Mode)
	assert.Equal(t, FifthFlat, ci.Fifth)
	assert.Equal(t, 6, ci.FifthOffset)
	// the seventh was resolved from the minor mode before the override
	assert.Equal(t, 10, ci.SeventhOffset)
}

func TestParseRejectsBadSymbols(t *testing.T) {
	for _, symbol := range []string{"", "H7", "c", "Cmaj7", "C#", "Cx", "CM7b5x", "C9", "7"} {
		_, err := Parse(symbol)
		assert.ErrorIs(t, err, ErrChordSyntax, symbol)
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	ci, err := Parse("  Dm7\t")
	require.NoError(t, err)
	assert.Equal(t, "Dm7", ci.Symbol)
}

func TestChordToneHelpers(t *testing.T) {
	ci, err := Parse("Dm7")
	require.NoError(t, err)
	assert.True(t, ci.IsChordTone(0))
	assert.False(t, ci.IsChordTone(1))
	assert.True(t, ci.IsAntiTone(1))
	assert.True(t, ci.HasSeventh())
	assert.Equal(t, "Eb", NoteName(3))
	assert.Equal(t, "C", NoteName(12))
}

func TestChordCacheReturnsSameInstance(t *testing.T) {
	cache := NewChordCache()

	first, err := cache.Get("Dm7b5")
	require.NoError(t, err)
	second, err := cache.Get(" Dm7b5 ")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	fresh, err := Parse("Dm7b5")
	require.NoError(t, err)
	assert.Equal(t, fresh, first)
}

func TestChordCacheDoesNotStoreFailures(t *testing.T) {
	cache := NewChordCache()
	_, err := cache.Get("X7")
	assert.ErrorIs(t, err, ErrChordSyntax)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.GetAll([]string{"G7", "nope"})
	assert.ErrorIs(t, err, ErrChordSyntax)
}

func TestChordCacheConcurrentFirstParseWins(t *testing.T) {
	cache := NewChordCache()
	results := make([]*ChordInfo, 32)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ci, err := cache.Get("Ab7")
			if err == nil {
				results[i] = ci
			}
		}(i)
	}
	wg.Wait()

	for _, ci := range results {
		assert.Same(t, results[0], ci)
	}
}
