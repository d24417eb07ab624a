package jam

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-jam/algorithms/chroma"
	"github.com/RyanBlaney/sonido-jam/algorithms/stats"
	"github.com/RyanBlaney/sonido-jam/algorithms/tonal"
	"github.com/RyanBlaney/sonido-jam/alignment"
	"github.com/RyanBlaney/sonido-jam/analysis"
	"github.com/RyanBlaney/sonido-jam/internal/synth"
	"github.com/RyanBlaney/sonido-jam/logging"
	"github.com/RyanBlaney/sonido-jam/transcode"
	"github.com/RyanBlaney/sonido-jam/tune"
)

type fixture struct {
	cache     *tonal.ChordCache
	structure *tune.Structure
	aligner   *alignment.ChorusAligner
}

func newFixture(t *testing.T, chartName string) *fixture {
	t.Helper()
	cache := tonal.NewChordCache()
	chart, err := tune.Builtin(chartName)
	require.NoError(t, err)
	structure, err := tune.Parse(chart, cache)
	require.NoError(t, err)
	return &fixture{
		cache:     cache,
		structure: structure,
		aligner:   alignment.NewChorusAligner(cache, alignment.AlignerParams{Workers: 2}, &logging.NoOpLogger{}),
	}
}

func (f *fixture) jamTune(t *testing.T, params synth.Params) *JamTune {
	t.Helper()
	rec, err := synth.Recording(f.structure.Changes, f.cache, params)
	require.NoError(t, err)
	jt, err := NewJamTune(f.structure, rec, f.aligner, TuneParams{BinTolerance: stats.DefaultBinTolerance}, &logging.NoOpLogger{})
	require.NoError(t, err)
	return jt
}

func TestNewJamTune(t *testing.T) {
	f := newFixture(t, "blue-bossa")
	jt := f.jamTune(t, synth.Params{Source: "take1.mp3", Choruses: 5})
	bars := jt.Recording().Bars()

	assert.Equal(t, "take1.mp3", jt.Source())
	assert.Equal(t, 0, jt.Alignment().Offset)
	assert.Equal(t, 2, jt.SoloChoruses())
	assert.True(t, jt.HasSolos())
	assert.False(t, jt.HalfTime())
	assert.Equal(t, bars[:16], jt.HeadBars())
	assert.Equal(t, bars[64:80], jt.HeadOutBars())
	assert.Equal(t, bars[32:64], jt.SoloBars())
	assert.InDelta(t, 0.5, jt.Durations().AverageBeatDuration, 1e-9)
	assert.InDelta(t, 2.0, jt.Durations().AverageBarDuration, 1e-9)

	second, err := jt.NthSoloChorus(1)
	require.NoError(t, err)
	assert.Equal(t, bars[48:64], second)

	for _, bar := range bars {
		assert.True(t, jt.BarInPrimaryBin(bar))
		for _, beat := range bar.Beats() {
			assert.True(t, jt.BeatInPrimaryBin(beat))
		}
	}
	assert.False(t, jt.BarInPrimaryBin(analysis.NewMeasure(0, 3, chroma.ToneVector{}, nil)))
	assert.False(t, jt.BeatInPrimaryBin(analysis.NewSpan(0, 0.25, chroma.ToneVector{})))
}

func TestNthBarsOfRandomSoloChorus(t *testing.T) {
	f := newFixture(t, "blue-bossa")
	jt := f.jamTune(t, synth.Params{Choruses: 6})
	rng := rand.New(rand.NewSource(3))

	for range 20 {
		bars, err := jt.NthBarsOfRandomSoloChorus(rng, 12, 8)
		require.NoError(t, err)
		// clipped at the chorus end
		require.Len(t, bars, 4)

		// measure 12 of any solo chorus sits 12 bars into a chorus boundary
		index := int(bars[0].Start()/2.0) - 12
		assert.Zero(t, index%16)
		assert.GreaterOrEqual(t, index, 32)
		assert.Less(t, index, 80)
	}

	_, err := jt.NthBarsOfRandomSoloChorus(rng, 16, 8)
	assert.Error(t, err)
}

func TestNewJamTuneRejectsOtherMeters(t *testing.T) {
	f := newFixture(t, "blue-bossa")
	rec, err := synth.Recording(f.structure.Changes, f.cache, synth.Params{Choruses: 4})
	require.NoError(t, err)
	waltz := analysis.NewRecordingFromBars("waltz", 120, 3, rec.Bars())

	_, err = NewJamTune(f.structure, waltz, f.aligner, TuneParams{}, &logging.NoOpLogger{})
	assert.ErrorIs(t, err, analysis.ErrUnsupportedTimeSignature)
}

func TestNewJamTuneKeepsShortRecordings(t *testing.T) {
	f := newFixture(t, "blue-bossa")
	jt := f.jamTune(t, synth.Params{Choruses: 2})
	assert.False(t, jt.HasSolos())

	_, err := jt.RandomSoloChorus(rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, alignment.ErrInsufficientMaterial)
}

func TestJammerGenerate(t *testing.T) {
	f := newFixture(t, "blue-bossa")
	first := f.jamTune(t, synth.Params{Source: "a", Choruses: 5})
	short := f.jamTune(t, synth.Params{Source: "b", Choruses: 3})
	last := f.jamTune(t, synth.Params{Source: "c", Choruses: 6})

	jammer, err := NewJammer(f.structure, []*JamTune{first, short, last},
		Params{SoloChoruses: 3, ChunkBars: 8, Seed: 7}, &logging.NoOpLogger{})
	require.NoError(t, err)
	assert.Equal(t, 8, jammer.ChunkBars())

	playlist, err := jammer.Generate()
	require.NoError(t, err)

	require.Len(t, playlist.Segments, 1+3*2+1)
	head, headOut := playlist.Segments[0], playlist.Segments[len(playlist.Segments)-1]
	assert.Equal(t, RoleHead, head.Role)
	assert.Equal(t, "a", head.Source)
	assert.Equal(t, 16, head.BarCount)
	assert.Equal(t, RoleHeadOut, headOut.Role)
	assert.Equal(t, "c", headOut.Source)
	assert.InDelta(t, 5*16*2.0, headOut.Start, 1e-9)

	for i, seg := range playlist.Segments[1 : len(playlist.Segments)-1] {
		assert.Equal(t, RoleSolo, seg.Role)
		assert.Equal(t, i/2+1, seg.Chorus)
		assert.Equal(t, (i%2)*8, seg.Measure)
		assert.Equal(t, 8, seg.BarCount)
		// b has no solo choruses to give
		assert.NotEqual(t, "b", seg.Source)
	}

	assert.Equal(t, 5*16, playlist.TotalBars())
	assert.Equal(t, 160*time.Second, playlist.TotalDuration())
}

func TestJammerIsReproducibleForASeed(t *testing.T) {
	f := newFixture(t, "blue-bossa")
	tunes := []*JamTune{
		f.jamTune(t, synth.Params{Source: "a", Choruses: 6}),
		f.jamTune(t, synth.Params{Source: "b", Choruses: 7}),
	}

	layout := func(seed int64) []Segment {
		jammer, err := NewJammer(f.structure, tunes, Params{SoloChoruses: 4, ChunkBars: 4, Seed: seed}, &logging.NoOpLogger{})
		require.NoError(t, err)
		playlist, err := jammer.Generate()
		require.NoError(t, err)
		return playlist.Segments
	}

	assert.Equal(t, layout(42), layout(42))
}

func TestJammerHalvesChunksForHalfTimeCharts(t *testing.T) {
	f := newFixture(t, "blue-bossa-half-time")
	jt := f.jamTune(t, synth.Params{Source: "half", Choruses: 4, BeatScale: 2})

	jammer, err := NewJammer(f.structure, []*JamTune{jt}, Params{SoloChoruses: 1, ChunkBars: 8}, &logging.NoOpLogger{})
	require.NoError(t, err)
	assert.Equal(t, 4, jammer.ChunkBars())

	playlist, err := jammer.Generate()
	require.NoError(t, err)
	require.Len(t, playlist.Segments, 4)
	assert.Equal(t, 0, playlist.Segments[1].Measure)
	assert.Equal(t, 4, playlist.Segments[2].Measure)
}

func TestJammerErrors(t *testing.T) {
	f := newFixture(t, "blue-bossa")

	_, err := NewJammer(f.structure, nil, DefaultParams(), nil)
	assert.ErrorIs(t, err, ErrNoRecordings)

	short := f.jamTune(t, synth.Params{Source: "short", Choruses: 3})
	jammer, err := NewJammer(f.structure, []*JamTune{short}, DefaultParams(), &logging.NoOpLogger{})
	require.NoError(t, err)
	_, err = jammer.Generate()
	assert.ErrorIs(t, err, alignment.ErrInsufficientMaterial)

	// without solos the head and head-out alone still make a jam
	jammer, err = NewJammer(f.structure, []*JamTune{short}, Params{SoloChoruses: 0}, &logging.NoOpLogger{})
	require.NoError(t, err)
	playlist, err := jammer.Generate()
	require.NoError(t, err)
	require.Len(t, playlist.Segments, 2)
	assert.Equal(t, RoleHead, playlist.Segments[0].Role)
	assert.Equal(t, RoleHeadOut, playlist.Segments[1].Role)
}

func TestPlaylistJSON(t *testing.T) {
	rec := analysis.NewRecordingFromBars("take.wav", 120, 4, []analysis.Bar{
		analysis.NewMeasure(2, 2, chroma.ToneVector{}, nil),
		analysis.NewMeasure(4, 2, chroma.ToneVector{}, nil),
	})
	p := NewPlaylist("Blue Bossa", 9)
	p.Add(rec, RoleSolo, 1, 8, rec.Bars())
	p.Add(rec, RoleSolo, 1, 16, nil)

	var buf bytes.Buffer
	require.NoError(t, p.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, p.ID.String(), decoded["id"])
	assert.Equal(t, "Blue Bossa", decoded["tune"])

	segments := decoded["segments"].([]any)
	require.Len(t, segments, 1)
	seg := segments[0].(map[string]any)
	assert.Equal(t, "take.wav", seg["source"])
	assert.Equal(t, "solo", seg["role"])
	assert.Equal(t, 2.0, seg["start"])
	assert.Equal(t, 4.0, seg["duration"])
	assert.Equal(t, 2.0, seg["bars"])
	assert.NotContains(t, seg, "Bars")
}

type rampDecoder struct {
	calls map[string]int
}

// DecodeFile returns ten seconds of 100 Hz mono audio whose samples count up.
func (d *rampDecoder) DecodeFile(_ context.Context, path string) (*transcode.AudioData, error) {
	d.calls[path]++
	pcm := make([]float64, 1000)
	for i := range pcm {
		pcm[i] = float64(i)
	}
	return &transcode.AudioData{PCM: pcm, SampleRate: 100, Channels: 1, Duration: 10 * time.Second, Source: path}, nil
}

type captureEncoder struct {
	path  string
	audio *transcode.AudioData
}

func (e *captureEncoder) EncodeFile(_ context.Context, audio *transcode.AudioData, path string) error {
	e.path, e.audio = path, audio
	return nil
}

func TestRendererRender(t *testing.T) {
	bar := func(start float64) []analysis.Bar {
		return []analysis.Bar{analysis.NewMeasure(start, 2, chroma.ToneVector{}, nil)}
	}
	a := analysis.NewRecordingFromBars("a.wav", 120, 4, nil)
	b := analysis.NewRecordingFromBars("b.wav", 120, 4, nil)

	p := NewPlaylist("test", 1)
	p.Add(a, RoleHead, 0, 0, bar(0))
	p.Add(b, RoleSolo, 1, 0, bar(4))
	p.Add(a, RoleHeadOut, 0, 0, bar(6))

	decoder := &rampDecoder{calls: make(map[string]int)}
	encoder := &captureEncoder{}
	audio, err := NewRenderer(decoder, encoder, &logging.NoOpLogger{}).Render(t.Context(), p, "out.mp3")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a.wav": 1, "b.wav": 1}, decoder.calls)
	assert.Equal(t, "out.mp3", encoder.path)
	assert.Same(t, audio, encoder.audio)

	require.Len(t, audio.PCM, 600)
	assert.Equal(t, 0.0, audio.PCM[0])
	assert.Equal(t, 400.0, audio.PCM[200])
	assert.Equal(t, 600.0, audio.PCM[400])
	assert.Equal(t, 6*time.Second, audio.Duration)
}
