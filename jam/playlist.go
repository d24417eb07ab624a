package jam

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-jam/analysis"
)

// Role is the part a segment plays in the generated jam.
type Role string

const (
	RoleHead    Role = "head"
	RoleSolo    Role = "solo"
	RoleHeadOut Role = "head-out"
)

// Segment is a run of consecutive bars taken from one recording.
type Segment struct {
	Source   string  `json:"source"`
	Role     Role    `json:"role"`
	Chorus   int     `json:"chorus"`  // solo chorus of the jam, 0 for head and head-out
	Measure  int     `json:"measure"` // chart measure the segment starts on
	Start    float64 `json:"start"`   // seconds into the source
	Duration float64 `json:"duration"`
	BarCount int     `json:"bars"`

	Analysis analysis.Analysis `json:"-"`
	Bars     []analysis.Bar    `json:"-"`
}

// End is where the segment stops in its source, in seconds.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Playlist is the ordered list of source segments that makes up a jam.
type Playlist struct {
	ID       uuid.UUID `json:"id"`
	Tune     string    `json:"tune"`
	Seed     int64     `json:"seed"`
	Segments []Segment `json:"segments"`
}

// NewPlaylist creates an empty playlist with a fresh ID.
func NewPlaylist(tuneName string, seed int64) *Playlist {
	return &Playlist{ID: uuid.New(), Tune: tuneName, Seed: seed}
}

// Add appends bars of a as a segment. Empty bar runs are ignored.
func (p *Playlist) Add(a analysis.Analysis, role Role, chorus, measure int, bars []analysis.Bar) {
	if len(bars) == 0 {
		return
	}
	start := bars[0].Start()
	p.Segments = append(p.Segments, Segment{
		Source:   a.Source(),
		Role:     role,
		Chorus:   chorus,
		Measure:  measure,
		Start:    start,
		Duration: analysis.End(bars[len(bars)-1]) - start,
		BarCount: len(bars),
		Analysis: a,
		Bars:     bars,
	})
}

// TotalDuration is the playing time of all segments together.
func (p *Playlist) TotalDuration() time.Duration {
	total := 0.0
	for _, s := range p.Segments {
		total += s.Duration
	}
	return time.Duration(total * float64(time.Second))
}

// TotalBars counts the bars in every segment.
func (p *Playlist) TotalBars() int {
	total := 0
	for _, s := range p.Segments {
		total += s.BarCount
	}
	return total
}

// Sources lists each distinct source in order of first use.
func (p *Playlist) Sources() []string {
	seen := make(map[string]bool)
	var sources []string
	for _, s := range p.Segments {
		if !seen[s.Source] {
			seen[s.Source] = true
			sources = append(sources, s.Source)
		}
	}
	return sources
}

// WriteJSON writes the playlist as indented JSON.
func (p *Playlist) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
