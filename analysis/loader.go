package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-jam/algorithms/filters"
	"github.com/RyanBlaney/sonido-jam/algorithms/temporal"
	"github.com/RyanBlaney/sonido-jam/logging"
	"github.com/RyanBlaney/sonido-jam/transcode"
)

// dcCutoff is below the lowest bass note, so only offset and rumble are removed.
const dcCutoff = 10.0

// Loader produces an Analysis from either an Echo Nest analysis file or raw audio.
type Loader struct {
	decoder  *transcode.Decoder
	analyzer *PCMAnalyzer
	tempo    *temporal.TempoEstimation
	silence  *temporal.SilenceDetection
	grid     GridParams
	logger   logging.Logger
}

// NewLoader creates a loader. grid is only used for raw audio inputs; a zero
// tempo there means the tempo and first beat are estimated from the audio.
func NewLoader(decoder *transcode.Decoder, grid GridParams, logger logging.Logger) *Loader {
	logger = logging.OrGlobal(logger)
	return &Loader{
		decoder:  decoder,
		analyzer: NewPCMAnalyzer(logger),
		tempo:    temporal.NewTempoEstimation(),
		silence:  temporal.NewSilenceDetection(),
		grid:     grid,
		logger:   logger,
	}
}

// Load reads path. ".json" files are parsed as Echo Nest analyses; anything else
// is decoded with ffmpeg and analysed on the tempo grid.
func (l *Loader) Load(ctx context.Context, path string) (*Recording, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		l.logger.Debug("Loading Echo Nest analysis", logging.Fields{
			"component": "analysis_loader",
			"path":      path,
		})
		return LoadEchoNest(path)
	}

	audio, err := l.decoder.DecodeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return l.AnalyzeAudio(path, audio)
}

// AnalyzeAudio lays the beat grid over decoded audio, estimating the tempo and
// the first beat when the grid has no tempo.
func (l *Loader) AnalyzeAudio(source string, audio *transcode.AudioData) (*Recording, error) {
	logger := l.logger.WithFields(logging.Fields{
		"component": "analysis_loader",
		"function":  "AnalyzeAudio",
		"source":    source,
	})

	if audio.Channels != 1 {
		audio = downmix(audio)
	}
	pcm := filters.NewDCRemovalWithCutoff(audio.SampleRate, dcCutoff).Process(audio.PCM)

	grid := l.grid
	if grid.Tempo <= 0 {
		tempo, err := l.tempo.EstimateTempo(pcm, audio.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNoTempo, source, err)
		}
		grid.Tempo = tempo
		if grid.FirstBeat == 0 {
			grid.FirstBeat = l.silence.LeadingSilence(pcm, audio.SampleRate)
		}
		logger.Info("Estimated beat grid", logging.Fields{
			"tempo":      grid.Tempo,
			"first_beat": grid.FirstBeat,
		})
	}

	logger.Debug("Analysing audio on a fixed grid", logging.Fields{
		"sample_rate": audio.SampleRate,
		"duration":    audio.Duration.Seconds(),
	})

	return l.analyzer.Analyze(source, pcm, audio.SampleRate, grid)
}

// downmix averages interleaved channels into one.
func downmix(audio *transcode.AudioData) *transcode.AudioData {
	frames := audio.Frames()
	mono := make([]float64, frames)
	for i := range mono {
		sum := 0.0
		for c := 0; c < audio.Channels; c++ {
			sum += audio.PCM[i*audio.Channels+c]
		}
		mono[i] = sum / float64(audio.Channels)
	}
	return &transcode.AudioData{
		PCM:        mono,
		SampleRate: audio.SampleRate,
		Channels:   1,
		Duration:   audio.Duration,
		Source:     audio.Source,
	}
}
