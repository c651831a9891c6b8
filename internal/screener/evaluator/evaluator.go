package evaluator

import (
	"errors"
	"fmt"
	"math"

	"stocxer-screener/internal/screener/dto"
	"stocxer-screener/internal/screener/indicator"
)

var (
	// ErrInsufficientHistory marks a symbol whose lookback window is too
	// short to compute the technical readings. The symbol is skipped;
	// the scan continues.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrNoEligibleContract marks an options-mode symbol whose chain has
	// no contract passing the volume/open-interest filters. Treated like
	// insufficient history: skip the symbol, continue the scan.
	ErrNoEligibleContract = errors.New("no eligible option contract")
)

// OptionFilter narrows the option chain to liquid contracts.
type OptionFilter struct {
	MinVolume       int64
	MinOpenInterest int64
}

// Evaluator classifies one symbol's market snapshot into a trading
// signal. It is a pure function of its inputs: no I/O, no shared state,
// safe to run across any number of workers.
type Evaluator struct {
	policy Policy
}

// New creates an Evaluator with the given weighting policy.
func New(policy Policy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Readings computes the technical reading basket from a snapshot.
func (e *Evaluator) Readings(snap dto.Snapshot) (Readings, error) {
	p := e.policy
	required := p.SlowMAPeriod
	if p.RSIPeriod+1 > required {
		required = p.RSIPeriod + 1
	}

	closes := make([]float64, 0, len(snap.Candles))
	volumes := make([]int64, 0, len(snap.Candles))
	for _, c := range snap.Candles {
		closes = append(closes, c.Close)
		volumes = append(volumes, c.Volume)
	}

	rsi := indicator.RSI(closes, p.RSIPeriod)
	maFast := indicator.SMA(closes, p.FastMAPeriod)
	maSlow := indicator.SMA(closes, p.SlowMAPeriod)
	momentum := indicator.Momentum(closes, p.MomentumDays)
	pctChange := indicator.PercentChange(closes)

	if rsi == nil || maFast == nil || maSlow == nil || momentum == nil || pctChange == nil {
		return Readings{}, fmt.Errorf("%w: %s has %d bars, need %d",
			ErrInsufficientHistory, snap.Symbol, len(closes), required)
	}

	volume := snap.Volume
	if volume == 0 && len(volumes) > 0 {
		volume = volumes[len(volumes)-1]
	}

	return Readings{
		RSI:           *rsi,
		MAFast:        *maFast,
		MASlow:        *maSlow,
		Momentum5D:    *momentum,
		PercentChange: *pctChange,
		VolumeSurge:   indicator.VolumeSurge(volumes, p.VolumeLookback, p.SurgeRatio),
		Volume:        volume,
	}, nil
}

// EvaluateStock produces a stock-level signal for one symbol.
func (e *Evaluator) EvaluateStock(snap dto.Snapshot, minConfidence float64) (*Signal, error) {
	readings, err := e.Readings(snap)
	if err != nil {
		return nil, err
	}

	sc := e.score(readings)
	action, confidence := e.classifyStock(sc, minConfidence)
	if !action.IsDirectional() {
		sc.reasons = append(sc.reasons, e.holdReason(sc))
	}

	signal := &Signal{
		Symbol:     snap.Symbol,
		Name:       snap.Name,
		Price:      snap.Price,
		Action:     action,
		Confidence: confidence,
		Readings:   readings,
		Reasons:    sc.reasons,
	}
	e.applyTargets(signal)

	return signal, nil
}

// EvaluateOption produces an options signal for one underlying from its
// chain snapshot. When the underlying has no directional edge the result
// is a stock-level WAIT/AVOID: a hold concerns the underlying, not a
// contract, so no option fields are attached.
func (e *Evaluator) EvaluateOption(snap dto.Snapshot, chain dto.OptionChain, filter OptionFilter, minConfidence float64) (*Signal, error) {
	readings, err := e.Readings(snap)
	if err != nil {
		return nil, err
	}

	sc := e.score(readings)
	confidence := math.Min(100, math.Abs(sc.bias))

	if confidence < minConfidence || sc.bias == 0 {
		action, confidence := e.classifyStock(sc, minConfidence)
		sc.reasons = append(sc.reasons, e.holdReason(sc))
		return &Signal{
			Symbol:     snap.Symbol,
			Name:       snap.Name,
			Price:      snap.Price,
			Action:     action,
			Confidence: confidence,
			Readings:   readings,
			Reasons:    sc.reasons,
		}, nil
	}

	preferred := dto.OptionRightCall
	if sc.bias < 0 {
		preferred = dto.OptionRightPut
	}

	contract := selectContract(chain, preferred, filter)
	if contract == nil {
		// No liquid contract on the directional right: fall back to
		// collecting premium on the opposite right.
		fallback := dto.OptionRightPut
		if preferred == dto.OptionRightPut {
			fallback = dto.OptionRightCall
		}
		contract = selectContract(chain, fallback, filter)
		if contract == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoEligibleContract, snap.Symbol)
		}
	}

	var action Action
	switch {
	case contract.Right == dto.OptionRightCall && sc.bias > 0:
		action = ActionBuyCall
	case contract.Right == dto.OptionRightCall:
		action = ActionSellCall
	case sc.bias < 0:
		action = ActionBuyPut
	default:
		action = ActionSellPut
	}
	sc.reasons = append(sc.reasons, fmt.Sprintf("%s %.2f %s expiring %s selected near spot %.2f",
		snap.Symbol, contract.Strike, contract.Right, contract.Expiry.Format("2006-01-02"), chain.SpotPrice))

	signal := &Signal{
		Symbol:     snap.Symbol,
		Name:       snap.Name,
		Price:      snap.Price,
		Action:     action,
		Confidence: confidence,
		Readings:   readings,
		Reasons:    sc.reasons,
		Option: &OptionLeg{
			Strike:              contract.Strike,
			Right:               contract.Right,
			Expiry:              contract.Expiry,
			EntryPrice:          contract.LastPrice,
			ReversalProbability: e.reversalProbability(*contract, readings),
		},
	}
	e.applyTargets(signal)

	return signal, nil
}

type scorecard struct {
	bullish float64
	bearish float64
	bias    float64
	reasons []string
}

func (e *Evaluator) score(r Readings) scorecard {
	p := e.policy
	var sc scorecard

	// RSI: full weight beyond the oversold/overbought bands, scaled by
	// distance from the midline inside them.
	switch {
	case r.RSI <= p.RSIOversold:
		sc.bullish += p.RSIWeight
		sc.reasons = append(sc.reasons, fmt.Sprintf("RSI %.1f in oversold territory (<= %.0f)", r.RSI, p.RSIOversold))
	case r.RSI >= p.RSIOverbought:
		sc.bearish += p.RSIWeight
		sc.reasons = append(sc.reasons, fmt.Sprintf("RSI %.1f in overbought territory (>= %.0f)", r.RSI, p.RSIOverbought))
	case r.RSI < 50:
		sc.bullish += (50 - r.RSI) / (50 - p.RSIOversold) * p.RSIWeight
	case r.RSI > 50:
		sc.bearish += (r.RSI - 50) / (p.RSIOverbought - 50) * p.RSIWeight
	}

	// Moving-average ordering, scaled by the relative gap.
	if r.MASlow != 0 {
		gap := (r.MAFast - r.MASlow) / r.MASlow
		if math.Abs(gap) >= p.TrendFlat {
			strength := math.Min(math.Abs(gap)/p.TrendCap, 1)
			if gap > 0 {
				sc.bullish += strength * p.TrendWeight
				sc.reasons = append(sc.reasons, fmt.Sprintf("fast MA %.2f above slow MA %.2f", r.MAFast, r.MASlow))
			} else {
				sc.bearish += strength * p.TrendWeight
				sc.reasons = append(sc.reasons, fmt.Sprintf("fast MA %.2f below slow MA %.2f", r.MAFast, r.MASlow))
			}
		}
	}

	// 5-day momentum, capped at MomentumCap percent.
	if r.Momentum5D != 0 {
		strength := math.Min(math.Abs(r.Momentum5D)/p.MomentumCap, 1)
		if r.Momentum5D > 0 {
			sc.bullish += strength * p.MomentumWeight
		} else {
			sc.bearish += strength * p.MomentumWeight
		}
		if math.Abs(r.Momentum5D) >= 1 {
			sc.reasons = append(sc.reasons, fmt.Sprintf("5-day momentum %+.2f%%", r.Momentum5D))
		}
	}

	sc.bias = sc.bullish - sc.bearish

	// A volume surge amplifies whichever direction the other readings
	// already agree on; on its own it is not directional.
	if r.VolumeSurge && sc.bias != 0 {
		if sc.bias > 0 {
			sc.bullish += p.VolumeBoost
		} else {
			sc.bearish += p.VolumeBoost
		}
		sc.bias = sc.bullish - sc.bearish
		sc.reasons = append(sc.reasons, fmt.Sprintf("volume surge above %.1fx trailing average", p.SurgeRatio))
	}

	return sc
}

func (e *Evaluator) classifyStock(sc scorecard, minConfidence float64) (Action, float64) {
	confidence := math.Min(100, math.Abs(sc.bias))

	switch {
	case confidence >= minConfidence && sc.bias > 0:
		return ActionBuy, confidence
	case confidence >= minConfidence && sc.bias < 0:
		return ActionSell, confidence
	case math.Min(sc.bullish, sc.bearish) >= e.policy.ConflictFloor:
		return ActionAvoid, confidence
	default:
		return ActionWait, confidence
	}
}

func (e *Evaluator) holdReason(sc scorecard) string {
	if math.Min(sc.bullish, sc.bearish) >= e.policy.ConflictFloor {
		return "conflicting directional signals"
	}
	return "no clear directional edge"
}

// applyTargets sets the two profit targets and the stop loss for
// directional signals; holds carry none.
func (e *Evaluator) applyTargets(s *Signal) {
	if !s.Action.IsDirectional() || s.Price <= 0 {
		return
	}

	p := e.policy
	up := s.Action == ActionBuy || s.Action == ActionBuyCall || s.Action == ActionSellPut
	dir := 1.0
	if !up {
		dir = -1.0
	}

	t1 := s.Price * (1 + dir*p.Target1Percent/100)
	t2 := s.Price * (1 + dir*p.Target2Percent/100)
	sl := s.Price * (1 - dir*p.StopLossPercent/100)
	s.Target1 = &t1
	s.Target2 = &t2
	s.StopLoss = &sl
}

// reversalProbability estimates the odds the underlying move reverses
// against the contract, from the contract's Greeks and the underlying's
// momentum. Independent of the confidence score; both are preserved.
func (e *Evaluator) reversalProbability(c dto.OptionContract, r Readings) float64 {
	p := e.policy

	rp := 50.0
	// ATM contracts (|delta| near 0.5) are the most reversal-prone;
	// conviction grows as delta moves toward 0 or 1.
	rp += (0.5 - math.Abs(c.Greeks.Delta)) * p.ReversalDeltaWeight
	// Theta decay pressures long premium toward reversal.
	rp += math.Min(math.Abs(c.Greeks.Theta)*p.ReversalThetaWeight, p.ReversalThetaCap)
	// Momentum running with the contract direction lowers reversal odds.
	dir := 1.0
	if c.Right == dto.OptionRightPut {
		dir = -1.0
	}
	rp -= dir * r.Momentum5D * p.ReversalMomentumWeight

	return math.Max(0, math.Min(100, rp))
}

func selectContract(chain dto.OptionChain, right string, filter OptionFilter) *dto.OptionContract {
	var best *dto.OptionContract
	bestDistance := math.MaxFloat64

	for i := range chain.Contracts {
		c := &chain.Contracts[i]
		if c.Right != right {
			continue
		}
		if c.Volume < filter.MinVolume || c.OpenInterest < filter.MinOpenInterest {
			continue
		}
		distance := math.Abs(c.Strike - chain.SpotPrice)
		if distance < bestDistance {
			best = c
			bestDistance = distance
		}
	}

	return best
}
