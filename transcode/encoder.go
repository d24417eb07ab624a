package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-jam/logging"
)

// EncoderConfig holds encoder configuration
type EncoderConfig struct {
	FFmpegPath string `json:"ffmpeg_path"`
	Bitrate    string `json:"bitrate"` // lossy formats only, e.g. "192k"
}

// DefaultEncoderConfig returns default encoder configuration
func DefaultEncoderConfig() *EncoderConfig {
	return &EncoderConfig{
		FFmpegPath: "ffmpeg",
		Bitrate:    "192k",
	}
}

// Encoder writes PCM audio to a file with ffmpeg. The container and codec are
// chosen by ffmpeg from the output file extension.
type Encoder struct {
	config *EncoderConfig
	logger logging.Logger
}

// NewEncoder creates a new audio encoder
func NewEncoder(config *EncoderConfig, logger logging.Logger) *Encoder {
	if config == nil {
		config = DefaultEncoderConfig()
	}
	return &Encoder{config: config, logger: logging.OrGlobal(logger)}
}

// EncodeFile writes audio to path, overwriting it.
func (e *Encoder) EncodeFile(ctx context.Context, audio *AudioData, path string) error {
	logger := e.logger.WithFields(logging.Fields{
		"component": "audio_encoder",
		"function":  "EncodeFile",
		"output":    path,
	})

	if len(audio.PCM) == 0 {
		return fmt.Errorf("%w: nothing to encode to %s", ErrNoSamples, path)
	}

	args := e.buildFFmpegArgs(audio, path)
	logger.Debug("Running ffmpeg encode", logging.Fields{
		"args":    strings.Join(args, " "),
		"samples": len(audio.PCM),
	})

	cmd := exec.CommandContext(ctx, e.config.FFmpegPath, args...)
	cmd.Stdin = bytes.NewReader(float64ToBytes(audio.PCM))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "FFmpeg encode failed", logging.Fields{
				"stderr": stderr.String(),
			})
			return fmt.Errorf("ffmpeg encode failed: %w, stderr: %s", err, stderr.String())
		}
		return fmt.Errorf("ffmpeg encode failed: %w", err)
	}

	logger.Debug("FFmpeg encode completed", logging.Fields{
		"duration": audio.Duration.Seconds(),
	})
	return nil
}

func (e *Encoder) buildFFmpegArgs(audio *AudioData, path string) []string {
	args := []string{
		"-v", "error",
		"-y",
		"-f", "f64le",
		"-ac", strconv.Itoa(audio.Channels),
		"-ar", strconv.Itoa(audio.SampleRate),
		"-i", "pipe:0",
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".flac", ".aiff":
		// lossless, ffmpeg picks the codec
	default:
		if e.config.Bitrate != "" {
			args = append(args, "-b:a", e.config.Bitrate)
		}
	}

	return append(args, path)
}

// Concat joins audio clips that share a sample rate and channel count.
func Concat(clips []*AudioData) (*AudioData, error) {
	if len(clips) == 0 {
		return nil, ErrNoSamples
	}

	first := clips[0]
	total := 0
	for i, c := range clips {
		if c.SampleRate != first.SampleRate || c.Channels != first.Channels {
			return nil, fmt.Errorf("clip %d is %d Hz x %d, expected %d Hz x %d",
				i, c.SampleRate, c.Channels, first.SampleRate, first.Channels)
		}
		total += len(c.PCM)
	}

	pcm := make([]float64, 0, total)
	for _, c := range clips {
		pcm = append(pcm, c.PCM...)
	}

	out := &AudioData{PCM: pcm, SampleRate: first.SampleRate, Channels: first.Channels}
	out.Duration = framesToDuration(out.Frames(), out.SampleRate)
	return out, nil
}
