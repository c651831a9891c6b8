package evaluator

// Policy holds the tunable weighting for signal scoring. The exact
// weighting is replaceable; the evaluator only guarantees that confidence
// is monotonic in the strength of agreeing signals and that ties resolve
// to the conservative classification.
type Policy struct {
	// Scoring weights. Each technical reading contributes up to its
	// weight, signed by direction; confidence is the absolute net score.
	RSIWeight      float64
	TrendWeight    float64
	MomentumWeight float64
	VolumeBoost    float64

	// Reading bands.
	RSIOversold   float64
	RSIOverbought float64
	// MomentumCap is the 5-day move (in percent) treated as a
	// full-strength momentum signal.
	MomentumCap float64
	// TrendCap is the relative fast/slow MA gap treated as a
	// full-strength trend signal.
	TrendCap float64
	// TrendFlat is the relative MA gap below which the trend reading is
	// treated as neutral.
	TrendFlat float64
	// ConflictFloor is the opposing-score level at or above which a
	// below-threshold symbol is classified AVOID instead of WAIT.
	ConflictFloor float64

	// Lookback windows.
	RSIPeriod      int
	FastMAPeriod   int
	SlowMAPeriod   int
	MomentumDays   int
	VolumeLookback int
	SurgeRatio     float64

	// Exit levels for directional signals, in percent of current price.
	Target1Percent  float64
	Target2Percent  float64
	StopLossPercent float64

	// Reversal probability coefficients (options mode).
	ReversalDeltaWeight    float64
	ReversalThetaWeight    float64
	ReversalThetaCap       float64
	ReversalMomentumWeight float64
}

// DefaultPolicy returns the stock weighting shipped with the service.
func DefaultPolicy() Policy {
	return Policy{
		RSIWeight:      30,
		TrendWeight:    25,
		MomentumWeight: 25,
		VolumeBoost:    10,

		RSIOversold:   30,
		RSIOverbought: 70,
		MomentumCap:   5,
		TrendCap:      0.02,
		TrendFlat:     0.001,
		ConflictFloor: 15,

		RSIPeriod:      14,
		FastMAPeriod:   20,
		SlowMAPeriod:   50,
		MomentumDays:   5,
		VolumeLookback: 20,
		SurgeRatio:     2.0,

		Target1Percent:  2.0,
		Target2Percent:  4.0,
		StopLossPercent: 1.5,

		ReversalDeltaWeight:    40,
		ReversalThetaWeight:    2,
		ReversalThetaCap:       20,
		ReversalMomentumWeight: 3,
	}
}
