package transcode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleBytesRoundTrip(t *testing.T) {
	samples := []float64{0, 0.5, -0.25, 1}
	data := float64ToBytes(samples)
	require.Len(t, data, 32)

	// a trailing partial sample is ignored
	assert.Equal(t, samples, bytesToFloat64(append(data, 1, 2, 3)))
	assert.Nil(t, bytesToFloat64([]byte{1, 2}))
}

func TestParseFFprobeOutput(t *testing.T) {
	out := []byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"44100","channels":2,"duration":"181.5","bit_rate":"320000"}]}`)
	meta, err := parseFFprobeOutput(out)
	require.NoError(t, err)
	assert.Equal(t, 44100, meta.SampleRate)
	assert.Equal(t, 2, meta.Channels)
	assert.Equal(t, "mp3", meta.Codec)
	assert.InDelta(t, 181.5, meta.Duration, 1e-9)

	_, err = parseFFprobeOutput([]byte(`{"streams":[]}`))
	assert.Error(t, err)

	_, err = parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"video","channels":2}]}`))
	assert.Error(t, err)
}

func TestAudioSlice(t *testing.T) {
	audio := &AudioData{PCM: make([]float64, 100), SampleRate: 10, Channels: 1}
	for i := range audio.PCM {
		audio.PCM[i] = float64(i)
	}

	clip := audio.Slice(2, 3.5)
	assert.Equal(t, 15, len(clip.PCM))
	assert.Equal(t, 20.0, clip.PCM[0])
	assert.Equal(t, 1500*time.Millisecond, clip.Duration)

	assert.Len(t, audio.Slice(9, 20).PCM, 10)
	assert.Empty(t, audio.Slice(5, 4).PCM)
}

func TestConcat(t *testing.T) {
	a := &AudioData{PCM: []float64{1, 2}, SampleRate: 2, Channels: 1}
	b := &AudioData{PCM: []float64{3, 4}, SampleRate: 2, Channels: 1}

	joined, err := Concat([]*AudioData{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, joined.PCM)
	assert.Equal(t, 2*time.Second, joined.Duration)

	_, err = Concat([]*AudioData{a, {PCM: []float64{1}, SampleRate: 4, Channels: 1}})
	assert.Error(t, err)

	_, err = Concat(nil)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestEncoderArgs(t *testing.T) {
	enc := NewEncoder(nil, nil)
	audio := &AudioData{SampleRate: 22050, Channels: 1}

	mp3 := enc.buildFFmpegArgs(audio, "jam.mp3")
	assert.Contains(t, mp3, "-b:a")
	assert.Equal(t, "jam.mp3", mp3[len(mp3)-1])

	wav := enc.buildFFmpegArgs(audio, "jam.WAV")
	assert.NotContains(t, wav, "-b:a")
}
