package jam

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/RyanBlaney/sonido-jam/alignment"
	"github.com/RyanBlaney/sonido-jam/analysis"
	"github.com/RyanBlaney/sonido-jam/logging"
	"github.com/RyanBlaney/sonido-jam/tune"
)

// ErrNoRecordings is returned when a jam is asked for without any recordings.
var ErrNoRecordings = errors.New("at least one recording is required")

// Params configures jam generation.
type Params struct {
	SoloChoruses int `json:"solo_choruses"`
	// ChunkBars is how many consecutive bars come from one source; it is halved
	// for half-time charts.
	ChunkBars int `json:"chunk_bars"`
	// MaxChunkAttempts bounds how often a chunk with a misdetected bar is redrawn.
	MaxChunkAttempts int   `json:"max_chunk_attempts"`
	Seed             int64 `json:"seed"`
	// DetectHalfTime also halves chunks when the first recording looks half-time.
	DetectHalfTime bool `json:"detect_half_time"`
}

// DefaultParams returns default jam parameters
func DefaultParams() Params {
	return Params{
		SoloChoruses:     3,
		ChunkBars:        8,
		MaxChunkAttempts: 3,
		Seed:             1,
	}
}

// Jammer builds jams out of aligned recordings of one tune.
type Jammer struct {
	structure *tune.Structure
	tunes     []*JamTune
	params    Params
	rng       *rand.Rand
	logger    logging.Logger
}

// NewJammer creates a jammer over tunes. The first supplies the head, the last
// the head-out.
func NewJammer(structure *tune.Structure, tunes []*JamTune, params Params, logger logging.Logger) (*Jammer, error) {
	if len(tunes) == 0 {
		return nil, ErrNoRecordings
	}
	defaults := DefaultParams()
	if params.ChunkBars <= 0 {
		params.ChunkBars = defaults.ChunkBars
	}
	if params.MaxChunkAttempts <= 0 {
		params.MaxChunkAttempts = defaults.MaxChunkAttempts
	}
	if params.SoloChoruses < 0 {
		params.SoloChoruses = 0
	}

	return &Jammer{
		structure: structure,
		tunes:     tunes,
		params:    params,
		rng:       rand.New(rand.NewSource(params.Seed)),
		logger:    logging.OrGlobal(logger),
	}, nil
}

// Tunes returns the aligned recordings.
func (j *Jammer) Tunes() []*JamTune {
	return j.tunes
}

// ChunkBars is the chunk size actually used.
func (j *Jammer) ChunkBars() int {
	chunk := j.params.ChunkBars
	if j.structure.HalfTime || (j.params.DetectHalfTime && j.tunes[0].HalfTime()) {
		chunk /= 2
	}
	return max(chunk, 1)
}

// Generate lays out head, SoloChoruses generated solo choruses and head-out.
// Each solo chorus is assembled chunk by chunk, each chunk taken from the same
// chart position of a random solo chorus of a random recording.
func (j *Jammer) Generate() (*Playlist, error) {
	logger := j.logger.WithFields(logging.Fields{
		"component": "jammer",
		"function":  "Generate",
		"tune":      j.structure.Name,
	})

	playlist := NewPlaylist(j.structure.Name, j.params.Seed)

	first := j.tunes[0]
	playlist.Add(first.Recording(), RoleHead, 0, 0, first.HeadBars())

	if j.params.SoloChoruses > 0 {
		soloists := j.soloists()
		if len(soloists) == 0 {
			return nil, fmt.Errorf("%w: none of %d recordings has a solo chorus",
				alignment.ErrInsufficientMaterial, len(j.tunes))
		}

		chunk := j.ChunkBars()
		for chorus := range j.params.SoloChoruses {
			for measure := 0; measure < j.structure.ChorusLength(); measure += chunk {
				source, bars, err := j.drawChunk(soloists, measure, chunk, logger)
				if err != nil {
					return nil, err
				}
				playlist.Add(source.Recording(), RoleSolo, chorus+1, measure, bars)
			}
		}
	}

	last := j.tunes[len(j.tunes)-1]
	playlist.Add(last.Recording(), RoleHeadOut, 0, 0, last.HeadOutBars())

	logger.Info("Generated jam", logging.Fields{
		"playlist_id":   playlist.ID.String(),
		"segments":      len(playlist.Segments),
		"bars":          playlist.TotalBars(),
		"duration":      playlist.TotalDuration().Seconds(),
		"solo_choruses": j.params.SoloChoruses,
	})

	return playlist, nil
}

func (j *Jammer) soloists() []*JamTune {
	var soloists []*JamTune
	for _, jt := range j.tunes {
		if jt.HasSolos() {
			soloists = append(soloists, jt)
		}
	}
	return soloists
}

// drawChunk picks bars for one chunk, redrawing while the chunk contains a bar
// of untypical length. The last draw is kept once attempts run out.
func (j *Jammer) drawChunk(soloists []*JamTune, measure, chunk int, logger logging.Logger) (*JamTune, []analysis.Bar, error) {
	var source *JamTune
	var bars []analysis.Bar

	for attempt := 1; attempt <= j.params.MaxChunkAttempts; attempt++ {
		source = soloists[j.rng.Intn(len(soloists))]

		var err error
		bars, err = source.NthBarsOfRandomSoloChorus(j.rng, measure, chunk)
		if err != nil {
			return nil, nil, fmt.Errorf("measure %d of %s: %w", measure, source.Source(), err)
		}
		if j.chunkFits(source, bars) {
			return source, bars, nil
		}
	}

	logger.Warn("Using chunk with irregular bar lengths", logging.Fields{
		"source":   source.Source(),
		"measure":  measure,
		"attempts": j.params.MaxChunkAttempts,
	})
	return source, bars, nil
}

func (j *Jammer) chunkFits(source *JamTune, bars []analysis.Bar) bool {
	for _, bar := range bars {
		if !source.BarInPrimaryBin(bar) {
			return false
		}
	}
	return true
}
