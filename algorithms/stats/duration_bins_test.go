package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinDurationsGroupsNearValues(t *testing.T) {
	bins := BinDurations([]float64{1.0, 1.02, 0.51, 0.98}, 0.2)
	require.Len(t, bins.Bins, 2)

	primary := bins.Primary()
	require.NotNil(t, primary)
	assert.Equal(t, 3, primary.Len())
	assert.InDelta(t, 1.0, primary.Mean, 1e-9)

	avg, err := bins.AverageDuration()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, avg, 1e-9)
	assert.Equal(t, []float64{0.51}, bins.Bins[1].Durations)
}

func TestBinDurationsBoundaryIsExclusive(t *testing.T) {
	// 1.5 is exactly 50% away from 1.0 and must open its own bin
	bins := BinDurations([]float64{1.0, 1.5}, 0.5)
	assert.Len(t, bins.Bins, 2)
}

func TestBinDurationsJoinsFirstAcceptingBin(t *testing.T) {
	// 0.88 fits both the 1.0 bin and the 0.75 bin; it joins the older one
	bins := BinDurations([]float64{1.0, 0.75, 0.88}, 0.2)
	require.Len(t, bins.Bins, 2)
	assert.Equal(t, []float64{1.0, 0.88}, bins.Bins[0].Durations)
}

func TestPrimaryTieKeepsEarliestBin(t *testing.T) {
	bins := BinDurations([]float64{2.0, 1.0, 2.1, 1.05}, 0.2)
	require.Len(t, bins.Bins, 2)
	assert.Same(t, bins.Bins[0], bins.Primary())
}

func TestEmptyBins(t *testing.T) {
	bins := BinDurations(nil, 0)
	assert.Nil(t, bins.Primary())
	assert.Equal(t, DefaultBinTolerance, bins.Tolerance)

	_, err := bins.AverageDuration()
	assert.ErrorIs(t, err, ErrNoDurations)

	_, err = NewDurationInfo(nil, []float64{2}, 0.2)
	assert.ErrorIs(t, err, ErrNoDurations)
}

func TestDurationInfoHalfTime(t *testing.T) {
	beats := []float64{0.5, 0.5, 0.51, 0.49, 0.5, 0.5, 0.5, 0.5}
	bars := []float64{2.0, 2.01, 1.99}

	info, err := NewDurationInfo(beats, bars, DefaultBinTolerance)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, info.BeatsPerBar(), 0.05)
	assert.False(t, info.IsHalfTime(4))

	slow := []float64{1.0, 1.0, 0.99, 1.01}
	info, err = NewDurationInfo(slow, bars, DefaultBinTolerance)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, info.BeatsPerBar(), 0.05)
	assert.True(t, info.IsHalfTime(4))
}

func TestDurationInfoFits(t *testing.T) {
	info, err := NewDurationInfo([]float64{0.5, 0.5}, []float64{2.0, 2.0, 3.5}, DefaultBinTolerance)
	require.NoError(t, err)

	assert.True(t, info.BarFits(2.1))
	assert.False(t, info.BarFits(3.5))
	assert.True(t, info.BeatFits(0.52))
	assert.False(t, info.BeatFits(1.0))
}
