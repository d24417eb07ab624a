package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/RyanBlaney/sonido-jam/algorithms/chroma"
	"github.com/RyanBlaney/sonido-jam/logging"
)

// ErrInvalidAnalysis is returned for analysis documents that cannot describe a recording.
var ErrInvalidAnalysis = errors.New("invalid analysis document")

// echoNestDocument is the subset of an Echo Nest track analysis that matters
// for chord matching. "audio" is an optional extension naming the analysed file.
type echoNestDocument struct {
	Audio string `json:"audio"`
	Track struct {
		Tempo         float64 `json:"tempo"`
		TimeSignature int     `json:"time_signature"`
	} `json:"track"`
	Bars     []echoNestSpan    `json:"bars"`
	Beats    []echoNestSpan    `json:"beats"`
	Segments []echoNestSegment `json:"segments"`
}

type echoNestSpan struct {
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	Confidence float64 `json:"confidence"`
}

type echoNestSegment struct {
	Start    float64   `json:"start"`
	Duration float64   `json:"duration"`
	Pitches  []float64 `json:"pitches"`
}

// segment is a validated echoNestSegment.
type segment struct {
	start, end float64
	pitches    chroma.ToneVector
}

// LoadEchoNest reads an Echo Nest analysis file. A relative "audio" path inside
// the document is resolved against the file's directory; without one the
// analysis file itself is used as the source.
func LoadEchoNest(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis: %w", err)
	}

	var doc echoNestDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAnalysis, path, err)
	}

	source := path
	if doc.Audio != "" {
		source = doc.Audio
		if !filepath.IsAbs(source) {
			source = filepath.Join(filepath.Dir(path), source)
		}
	}
	return buildEchoNest(doc, source)
}

// ParseEchoNest builds a recording from Echo Nest analysis JSON.
func ParseEchoNest(data []byte, source string) (*Recording, error) {
	var doc echoNestDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAnalysis, source, err)
	}
	if source == "" {
		source = doc.Audio
	}
	return buildEchoNest(doc, source)
}

func buildEchoNest(doc echoNestDocument, source string) (*Recording, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "echonest_loader",
		"function":  "buildEchoNest",
		"source":    source,
	})

	if len(doc.Bars) == 0 {
		return nil, fmt.Errorf("%w: %s has no bars", ErrInvalidAnalysis, source)
	}
	if len(doc.Segments) == 0 {
		return nil, fmt.Errorf("%w: %s has no segments", ErrInvalidAnalysis, source)
	}

	segments := make([]segment, len(doc.Segments))
	for i, s := range doc.Segments {
		tv, err := chroma.NewToneVector(s.Pitches)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d: %w", ErrInvalidAnalysis, i, err)
		}
		segments[i] = segment{start: s.Start, end: s.Start + s.Duration, pitches: tv}
	}
	sort.SliceStable(segments, func(a, b int) bool { return segments[a].start < segments[b].start })

	beats := make([]Beat, len(doc.Beats))
	for i, b := range doc.Beats {
		beats[i] = NewSpan(b.Start, b.Duration, overlapMean(segments, b.Start, b.Start+b.Duration))
	}

	bars := make([]Bar, len(doc.Bars))
	next := 0
	for i, b := range doc.Bars {
		end := b.Start + b.Duration

		// beats belong to the bar in which they start
		for next < len(beats) && beats[next].Start() < b.Start {
			next++
		}
		first := next
		for next < len(beats) && beats[next].Start() < end {
			next++
		}

		bars[i] = NewMeasure(b.Start, b.Duration, overlapMean(segments, b.Start, end), beats[first:next])
	}

	logger.Debug("Loaded Echo Nest analysis", logging.Fields{
		"tempo":          doc.Track.Tempo,
		"time_signature": doc.Track.TimeSignature,
		"bars":           len(bars),
		"beats":          len(beats),
		"segments":       len(segments),
	})

	return NewRecording(source, doc.Track.Tempo, doc.Track.TimeSignature, beats, bars), nil
}

// overlapMean averages the pitches of the segments overlapping [start, end),
// each weighted by how many seconds of the window it covers.
func overlapMean(segments []segment, start, end float64) chroma.ToneVector {
	// first segment that ends after start
	i := sort.Search(len(segments), func(i int) bool { return segments[i].end > start })

	var vectors []chroma.ToneVector
	var weights []float64
	for ; i < len(segments) && segments[i].start < end; i++ {
		overlap := min(end, segments[i].end) - max(start, segments[i].start)
		if overlap <= 0 {
			continue
		}
		vectors = append(vectors, segments[i].pitches)
		weights = append(weights, overlap)
	}

	// weights match vectors one to one, so this cannot fail
	mean, _ := chroma.MeanToneVector(vectors, weights)
	return mean
}
