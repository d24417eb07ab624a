package jam

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-jam/logging"
	"github.com/RyanBlaney/sonido-jam/transcode"
)

// AudioDecoder loads the audio a segment was cut from.
type AudioDecoder interface {
	DecodeFile(ctx context.Context, path string) (*transcode.AudioData, error)
}

// AudioEncoder writes the finished jam.
type AudioEncoder interface {
	EncodeFile(ctx context.Context, audio *transcode.AudioData, path string) error
}

// Renderer turns a playlist into audio.
type Renderer struct {
	decoder AudioDecoder
	encoder AudioEncoder
	logger  logging.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(decoder AudioDecoder, encoder AudioEncoder, logger logging.Logger) *Renderer {
	return &Renderer{decoder: decoder, encoder: encoder, logger: logging.OrGlobal(logger)}
}

// Assemble decodes every source once and concatenates the segments in order.
func (r *Renderer) Assemble(ctx context.Context, playlist *Playlist) (*transcode.AudioData, error) {
	logger := r.logger.WithFields(logging.Fields{
		"component":   "renderer",
		"function":    "Assemble",
		"playlist_id": playlist.ID.String(),
	})

	decoded := make(map[string]*transcode.AudioData)
	for _, source := range playlist.Sources() {
		audio, err := r.decoder.DecodeFile(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", source, err)
		}
		decoded[source] = audio
		logger.Debug("Decoded source", logging.Fields{
			"source":   source,
			"duration": audio.Duration.Seconds(),
		})
	}

	clips := make([]*transcode.AudioData, len(playlist.Segments))
	for i, seg := range playlist.Segments {
		clips[i] = decoded[seg.Source].Slice(seg.Start, seg.End())
	}

	return transcode.Concat(clips)
}

// Render assembles the playlist and encodes it to outputPath.
func (r *Renderer) Render(ctx context.Context, playlist *Playlist, outputPath string) (*transcode.AudioData, error) {
	audio, err := r.Assemble(ctx, playlist)
	if err != nil {
		return nil, err
	}
	if err := r.encoder.EncodeFile(ctx, audio, outputPath); err != nil {
		return nil, err
	}

	r.logger.Info("Rendered jam", logging.Fields{
		"component":   "renderer",
		"output":      outputPath,
		"playlist_id": playlist.ID.String(),
		"duration":    audio.Duration.Seconds(),
	})
	return audio, nil
}
