package indicator

import (
	"github.com/markcheno/go-talib"
)

// Default lookback windows for the technical readings.
const (
	DefaultRSIPeriod      = 14
	DefaultFastMAPeriod   = 20
	DefaultSlowMAPeriod   = 50
	DefaultMomentumDays   = 5
	DefaultVolumeLookback = 20
	DefaultSurgeRatio     = 2.0
)

// RSI calculates the Relative Strength Index over the given window.
// Returns nil if the history is shorter than length+1 bars.
func RSI(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}

	rsi := talib.Rsi(closes, length)
	if len(rsi) > 0 && !isNaN(rsi[len(rsi)-1]) {
		result := rsi[len(rsi)-1]
		return &result
	}

	return nil
}

// SMA calculates the simple moving average over the given window.
// Returns nil if the history is shorter than the window.
func SMA(closes []float64, length int) *float64 {
	if len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// Momentum calculates the percent change between the latest close and the
// close `days` bars earlier. Returns nil on insufficient history.
func Momentum(closes []float64, days int) *float64 {
	if len(closes) < days+1 {
		return nil
	}

	prev := closes[len(closes)-1-days]
	if prev == 0 {
		return nil
	}

	result := (closes[len(closes)-1] - prev) / prev * 100
	return &result
}

// PercentChange calculates the percent change between the last two closes.
// Returns nil on insufficient history.
func PercentChange(closes []float64) *float64 {
	return Momentum(closes, 1)
}

// VolumeSurge reports whether the latest volume exceeds ratio times the
// trailing average over the lookback window preceding it.
func VolumeSurge(volumes []int64, lookback int, ratio float64) bool {
	if len(volumes) < lookback+1 {
		return false
	}

	var sum int64
	for _, v := range volumes[len(volumes)-1-lookback : len(volumes)-1] {
		sum += v
	}
	baseline := float64(sum) / float64(lookback)
	if baseline == 0 {
		return false
	}

	return float64(volumes[len(volumes)-1]) > baseline*ratio
}

func isNaN(f float64) bool {
	return f != f
}
