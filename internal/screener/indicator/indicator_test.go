package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestSMA(t *testing.T) {
	closes := seq(10, 1, 1) // 1..10

	got := SMA(closes, 5)

	require.NotNil(t, got)
	assert.InDelta(t, 8.0, *got, 1e-9) // mean of 6..10
}

func TestSMA_ShortHistory(t *testing.T) {
	assert.Nil(t, SMA(seq(3, 1, 1), 5))
	assert.Nil(t, SMA(nil, 5))
}

func TestMomentum(t *testing.T) {
	closes := []float64{95, 97, 100, 101, 103, 104, 108, 110}

	got := Momentum(closes, 5)

	require.NotNil(t, got)
	// 110 against the close 5 bars back (100).
	assert.InDelta(t, 10.0, *got, 1e-9)
}

func TestMomentum_ShortHistory(t *testing.T) {
	assert.Nil(t, Momentum(seq(5, 100, 1), 5))
}

func TestPercentChange(t *testing.T) {
	got := PercentChange([]float64{100, 101, 102})

	require.NotNil(t, got)
	assert.InDelta(t, 100*(102.0-101.0)/101.0, *got, 1e-9)
}

func TestRSI_TrendingSeries(t *testing.T) {
	rising := seq(40, 100, 1)
	falling := seq(40, 140, -1)

	up := RSI(rising, DefaultRSIPeriod)
	down := RSI(falling, DefaultRSIPeriod)

	require.NotNil(t, up)
	require.NotNil(t, down)
	assert.Greater(t, *up, 70.0)
	assert.Less(t, *down, 30.0)
}

func TestRSI_Bounds(t *testing.T) {
	closes := []float64{100, 103, 101, 104, 102, 106, 103, 107, 105, 108, 104, 109, 106, 110, 108, 111}

	got := RSI(closes, DefaultRSIPeriod)

	require.NotNil(t, got)
	assert.GreaterOrEqual(t, *got, 0.0)
	assert.LessOrEqual(t, *got, 100.0)
}

func TestRSI_ShortHistory(t *testing.T) {
	assert.Nil(t, RSI(seq(14, 100, 1), DefaultRSIPeriod))
}

func TestVolumeSurge(t *testing.T) {
	base := make([]int64, 21)
	for i := range base {
		base[i] = 100000
	}

	surge := append(append([]int64{}, base...), 250000)
	assert.True(t, VolumeSurge(surge, DefaultVolumeLookback, DefaultSurgeRatio))

	quiet := append(append([]int64{}, base...), 150000)
	assert.False(t, VolumeSurge(quiet, DefaultVolumeLookback, DefaultSurgeRatio))
}

func TestVolumeSurge_ShortHistory(t *testing.T) {
	assert.False(t, VolumeSurge([]int64{100, 200}, DefaultVolumeLookback, DefaultSurgeRatio))
}
