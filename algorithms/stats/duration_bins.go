package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-jam/algorithms/common"
)

// DefaultBinTolerance is the relative distance from a bin's mean that a duration
// may have and still join it.
const DefaultBinTolerance = 0.2

// ErrNoDurations is returned when binning is asked to summarize nothing.
var ErrNoDurations = errors.New("no durations to bin")

// DurationBin is a group of durations that all lie close to its running mean.
type DurationBin struct {
	Tolerance float64   `json:"tolerance"`
	Durations []float64 `json:"durations"`
	Mean      float64   `json:"mean"`
}

// NewDurationBin creates an empty bin. A non-positive tolerance selects the default.
func NewDurationBin(tolerance float64) *DurationBin {
	if tolerance <= 0 {
		tolerance = DefaultBinTolerance
	}
	return &DurationBin{Tolerance: tolerance}
}

// Accepts reports whether d belongs in the bin: the bin is empty or d is
// strictly within Tolerance x Mean of the mean.
func (b *DurationBin) Accepts(d float64) bool {
	if len(b.Durations) == 0 {
		return true
	}
	return math.Abs(d-b.Mean) < b.Tolerance*b.Mean
}

// Add appends d and updates the mean if the bin accepts it.
func (b *DurationBin) Add(d float64) bool {
	if !b.Accepts(d) {
		return false
	}
	b.Durations = append(b.Durations, d)
	b.Mean = common.Mean(b.Durations)
	return true
}

// Len is the number of durations in the bin.
func (b *DurationBin) Len() int {
	return len(b.Durations)
}

// DurationBins is the greedy single-pass grouping of a sequence of durations.
type DurationBins struct {
	Tolerance float64        `json:"tolerance"`
	Bins      []*DurationBin `json:"bins"`
}

// BinDurations groups durations in order: each joins the first existing bin that
// accepts it, otherwise it opens a new bin.
func BinDurations(durations []float64, tolerance float64) *DurationBins {
	if tolerance <= 0 {
		tolerance = DefaultBinTolerance
	}
	bins := &DurationBins{Tolerance: tolerance}
	for _, d := range durations {
		bins.Add(d)
	}
	return bins
}

// Add places d into the first accepting bin or a new one.
func (bs *DurationBins) Add(d float64) {
	for _, b := range bs.Bins {
		if b.Add(d) {
			return
		}
	}
	b := NewDurationBin(bs.Tolerance)
	b.Add(d)
	bs.Bins = append(bs.Bins, b)
}

// Primary returns the bin with the most members; the earliest bin wins a tie.
// It returns nil when nothing was binned.
func (bs *DurationBins) Primary() *DurationBin {
	var primary *DurationBin
	for _, b := range bs.Bins {
		if primary == nil || b.Len() > primary.Len() {
			primary = b
		}
	}
	return primary
}

// AverageDuration is the mean of the primary bin.
func (bs *DurationBins) AverageDuration() (float64, error) {
	primary := bs.Primary()
	if primary == nil {
		return 0, ErrNoDurations
	}
	return primary.Mean, nil
}

// DurationInfo summarizes the beat and bar lengths of one recording.
type DurationInfo struct {
	BeatBins            *DurationBins `json:"beat_bins"`
	BarBins             *DurationBins `json:"bar_bins"`
	AverageBeatDuration float64       `json:"average_beat_duration"`
	AverageBarDuration  float64       `json:"average_bar_duration"`
}

// NewDurationInfo bins beat and bar durations separately.
func NewDurationInfo(beatDurations, barDurations []float64, tolerance float64) (*DurationInfo, error) {
	info := &DurationInfo{
		BeatBins: BinDurations(beatDurations, tolerance),
		BarBins:  BinDurations(barDurations, tolerance),
	}

	var err error
	if info.AverageBeatDuration, err = info.BeatBins.AverageDuration(); err != nil {
		return nil, fmt.Errorf("beats: %w", err)
	}
	if info.AverageBarDuration, err = info.BarBins.AverageDuration(); err != nil {
		return nil, fmt.Errorf("bars: %w", err)
	}
	return info, nil
}

// PrimaryBeatBin is the most populated beat bin.
func (di *DurationInfo) PrimaryBeatBin() *DurationBin {
	return di.BeatBins.Primary()
}

// PrimaryBarBin is the most populated bar bin.
func (di *DurationInfo) PrimaryBarBin() *DurationBin {
	return di.BarBins.Primary()
}

// BeatsPerBar is the typical bar length measured in typical beats.
func (di *DurationInfo) BeatsPerBar() float64 {
	if di.AverageBeatDuration == 0 {
		return 0
	}
	return di.AverageBarDuration / di.AverageBeatDuration
}

// IsHalfTime reports whether beats were detected at twice the written length,
// so that a bar of numerator beats holds only about numerator/2 detected beats.
func (di *DurationInfo) IsHalfTime(numerator int) bool {
	half := float64(numerator) / 2
	return math.Abs(di.BeatsPerBar()-half) < di.BeatBins.Tolerance*half
}

// BarFits reports whether a bar duration belongs to the primary bar bin.
func (di *DurationInfo) BarFits(d float64) bool {
	primary := di.PrimaryBarBin()
	return primary != nil && primary.Accepts(d)
}

// BeatFits reports whether a beat duration belongs to the primary beat bin.
func (di *DurationInfo) BeatFits(d float64) bool {
	primary := di.PrimaryBeatBin()
	return primary != nil && primary.Accepts(d)
}
