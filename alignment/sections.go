package alignment

import (
	"fmt"

	"github.com/RyanBlaney/sonido-jam/analysis"
)

// headChoruses is how many choruses at the start are treated as the head.
// The second is usually a repeat of the head, so solos start after both.
const headChoruses = 2

// Sections splits a recording into choruses once its offset is known.
type Sections struct {
	Offset        int `json:"offset"`
	ChorusLength  int `json:"chorus_length"`
	TotalChoruses int `json:"total_choruses"`
	// SoloChoruses is TotalChoruses - 3 and may be zero or negative.
	SoloChoruses int `json:"solo_choruses"`

	Valid   []analysis.Bar `json:"-"`
	Head    []analysis.Bar `json:"-"`
	HeadOut []analysis.Bar `json:"-"`
	Solo    []analysis.Bar `json:"-"`
}

// Slice cuts bars into whole choruses starting at offset. The first chorus is
// the head, the last the head-out, and everything from the third chorus up to
// the head-out is solo material.
func Slice(bars []analysis.Bar, offset, chorusLength int) (*Sections, error) {
	if chorusLength <= 0 {
		return nil, fmt.Errorf("%w: chorus length %d", ErrInsufficientMaterial, chorusLength)
	}
	if offset < 0 || offset >= chorusLength {
		return nil, fmt.Errorf("offset %d outside [0, %d)", offset, chorusLength)
	}

	total := (len(bars) - offset) / chorusLength
	if total < 1 {
		return nil, fmt.Errorf("%w: %d bars after offset %d hold no full %d bar chorus",
			ErrInsufficientMaterial, len(bars)-offset, offset, chorusLength)
	}

	s := &Sections{
		Offset:        offset,
		ChorusLength:  chorusLength,
		TotalChoruses: total,
		SoloChoruses:  total - headChoruses - 1,
	}
	s.Valid = bars[offset : offset+total*chorusLength]
	s.Head = s.Valid[:chorusLength]
	s.HeadOut = s.Valid[len(s.Valid)-chorusLength:]

	soloStart := headChoruses * chorusLength
	if s.HasSolos() {
		s.Solo = s.Valid[soloStart : soloStart+s.SoloChoruses*chorusLength]
	}
	return s, nil
}

// HasSolos reports whether there is at least one solo chorus.
func (s *Sections) HasSolos() bool {
	return s.SoloChoruses > 0
}

// SoloChorus returns the bars of the nth solo chorus, counting from zero.
func (s *Sections) SoloChorus(n int) ([]analysis.Bar, error) {
	if !s.HasSolos() {
		return nil, fmt.Errorf("%w: %d choruses leave no solo chorus",
			ErrInsufficientMaterial, s.TotalChoruses)
	}
	if n < 0 || n >= s.SoloChoruses {
		return nil, fmt.Errorf("solo chorus %d outside [0, %d)", n, s.SoloChoruses)
	}
	return s.Solo[n*s.ChorusLength : (n+1)*s.ChorusLength], nil
}
