package evaluator

import (
	"testing"
	"time"

	"stocxer-screener/internal/entity"
	"stocxer-screener/internal/screener/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(symbol string, closes []float64, volumes []int64) dto.Snapshot {
	candles := make([]dto.Candle, len(closes))
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		var v int64 = 100000
		if volumes != nil {
			v = volumes[i]
		}
		candles[i] = dto.Candle{
			Time:   day.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: v,
		}
	}
	return dto.Snapshot{
		Symbol:  symbol,
		Name:    symbol + " Ltd",
		Price:   closes[len(closes)-1],
		Volume:  candles[len(candles)-1].Volume,
		Candles: candles,
	}
}

// risingCloses yields a series gaining ratePercent per bar.
func risingCloses(n int, start, ratePercent float64) []float64 {
	closes := make([]float64, n)
	price := start
	for i := range closes {
		closes[i] = price
		price *= 1 + ratePercent/100
	}
	return closes
}

// choppyCloses oscillates around base with a small fixed step.
func choppyCloses(n int, base, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = base + step
		} else {
			closes[i] = base - step
		}
	}
	return closes
}

func testChain(spot float64, expiry time.Time) dto.OptionChain {
	return dto.OptionChain{
		Symbol:    "NIFTY",
		SpotPrice: spot,
		Expiry:    expiry,
		Contracts: []dto.OptionContract{
			{Strike: spot - 100, Right: dto.OptionRightCall, Expiry: expiry, LastPrice: 142.5, Volume: 50000, OpenInterest: 120000, IV: 14.2, Greeks: dto.OptionGreeks{Delta: 0.68, Theta: -4.1}},
			{Strike: spot, Right: dto.OptionRightCall, Expiry: expiry, LastPrice: 85.0, Volume: 90000, OpenInterest: 200000, IV: 13.8, Greeks: dto.OptionGreeks{Delta: 0.51, Theta: -5.6}},
			{Strike: spot + 100, Right: dto.OptionRightCall, Expiry: expiry, LastPrice: 44.0, Volume: 70000, OpenInterest: 150000, IV: 13.5, Greeks: dto.OptionGreeks{Delta: 0.34, Theta: -5.1}},
			{Strike: spot, Right: dto.OptionRightPut, Expiry: expiry, LastPrice: 82.0, Volume: 85000, OpenInterest: 180000, IV: 14.0, Greeks: dto.OptionGreeks{Delta: -0.49, Theta: -5.4}},
			{Strike: spot - 100, Right: dto.OptionRightPut, Expiry: expiry, LastPrice: 41.0, Volume: 60000, OpenInterest: 140000, IV: 14.5, Greeks: dto.OptionGreeks{Delta: -0.33, Theta: -4.9}},
		},
	}
}

func TestClassifyStock_OversoldBullishScenario(t *testing.T) {
	e := New(DefaultPolicy())

	readings := Readings{
		RSI:         28,
		MAFast:      102,
		MASlow:      100,
		Momentum5D:  3.2,
		VolumeSurge: true,
	}

	sc := e.score(readings)
	action, confidence := e.classifyStock(sc, 60)

	assert.Equal(t, ActionBuy, action)
	assert.GreaterOrEqual(t, confidence, 60.0)
}

func TestClassifyStock_NeutralScenario(t *testing.T) {
	e := New(DefaultPolicy())

	readings := Readings{
		RSI:        50,
		MAFast:     100,
		MASlow:     100,
		Momentum5D: 0,
	}

	sc := e.score(readings)
	action, confidence := e.classifyStock(sc, 60)

	assert.Equal(t, ActionWait, action)
	assert.Less(t, confidence, 60.0)
}

func TestClassifyStock_BelowThresholdNeverDirectional(t *testing.T) {
	e := New(DefaultPolicy())

	rsis := []float64{5, 25, 40, 50, 60, 75, 95}
	momenta := []float64{-6, -2, 0, 1.5, 4, 8}
	gaps := []float64{-3, -0.5, 0, 0.5, 3}

	for _, rsi := range rsis {
		for _, momentum := range momenta {
			for _, gap := range gaps {
				readings := Readings{
					RSI:        rsi,
					MAFast:     100 + gap,
					MASlow:     100,
					Momentum5D: momentum,
				}
				sc := e.score(readings)
				action, confidence := e.classifyStock(sc, 60)
				if confidence < 60 {
					assert.Contains(t, []Action{ActionWait, ActionAvoid}, action,
						"rsi=%v momentum=%v gap=%v", rsi, momentum, gap)
				}
			}
		}
	}
}

func TestClassifyStock_ConfidenceMonotonicInMomentum(t *testing.T) {
	e := New(DefaultPolicy())

	prev := -1.0
	for momentum := 0.0; momentum <= 6; momentum += 0.5 {
		readings := Readings{
			RSI:        32,
			MAFast:     101,
			MASlow:     100,
			Momentum5D: momentum,
		}
		sc := e.score(readings)
		_, confidence := e.classifyStock(sc, 60)
		assert.GreaterOrEqual(t, confidence, prev, "momentum=%v", momentum)
		prev = confidence
	}
}

func TestClassifyStock_ConfidenceBounded(t *testing.T) {
	e := New(DefaultPolicy())

	extremes := []Readings{
		{RSI: 1, MAFast: 150, MASlow: 100, Momentum5D: 50, VolumeSurge: true},
		{RSI: 99, MAFast: 50, MASlow: 100, Momentum5D: -50, VolumeSurge: true},
		{RSI: 50, MAFast: 100, MASlow: 100, Momentum5D: 0},
	}
	for _, readings := range extremes {
		sc := e.score(readings)
		_, confidence := e.classifyStock(sc, 60)
		assert.GreaterOrEqual(t, confidence, 0.0)
		assert.LessOrEqual(t, confidence, 100.0)
	}
}

func TestClassifyStock_ConflictingSignalsAvoid(t *testing.T) {
	e := New(DefaultPolicy())

	// Overbought RSI against a strong uptrend and opposing momentum.
	readings := Readings{
		RSI:        85,
		MAFast:     103,
		MASlow:     100,
		Momentum5D: 4.5,
	}

	sc := e.score(readings)
	action, confidence := e.classifyStock(sc, 60)

	require.Less(t, confidence, 60.0)
	assert.Equal(t, ActionAvoid, action)
}

func TestEvaluateStock_InsufficientHistory(t *testing.T) {
	e := New(DefaultPolicy())

	snap := testSnapshot("TCS", risingCloses(5, 100, 1), nil)
	signal, err := e.EvaluateStock(snap, 60)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
	assert.Nil(t, signal)
}

func TestEvaluateStock_StockSignalShape(t *testing.T) {
	e := New(DefaultPolicy())

	snap := testSnapshot("INFY", risingCloses(60, 100, 1), nil)
	signal, err := e.EvaluateStock(snap, 0)

	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.True(t, signal.Action.Valid())
	assert.GreaterOrEqual(t, signal.Confidence, 0.0)
	assert.LessOrEqual(t, signal.Confidence, 100.0)
	assert.Nil(t, signal.Option)
	assert.NotEmpty(t, signal.Reasons)
	assert.InDelta(t, 5.1, signal.Readings.Momentum5D, 0.2)

	row := signal.ToEntity("3f1e2a6c-0000-0000-0000-000000000001", "3f1e2a6c-0000-0000-0000-000000000002")
	assert.Equal(t, entity.SignalTypeStock, row.SignalType)
	assert.Nil(t, row.Strike)
	assert.Nil(t, row.OptionType)
	assert.Nil(t, row.ExpiryDate)
	assert.Nil(t, row.EntryPrice)
	assert.Nil(t, row.ReversalProbability)
}

func TestEvaluateStock_DirectionalHasTargets(t *testing.T) {
	e := New(DefaultPolicy())

	snap := testSnapshot("INFY", risingCloses(60, 100, 1), nil)
	signal, err := e.EvaluateStock(snap, 0)

	require.NoError(t, err)
	require.True(t, signal.Action.IsDirectional())
	require.NotNil(t, signal.Target1)
	require.NotNil(t, signal.Target2)
	require.NotNil(t, signal.StopLoss)

	if signal.Action == ActionBuy {
		assert.Greater(t, *signal.Target1, signal.Price)
		assert.Greater(t, *signal.Target2, *signal.Target1)
		assert.Less(t, *signal.StopLoss, signal.Price)
	} else {
		assert.Less(t, *signal.Target1, signal.Price)
		assert.Greater(t, *signal.StopLoss, signal.Price)
	}
}

func TestEvaluateStock_HoldHasNoTargets(t *testing.T) {
	e := New(DefaultPolicy())

	snap := testSnapshot("SBIN", choppyCloses(60, 100, 0.5), nil)
	signal, err := e.EvaluateStock(snap, 60)

	require.NoError(t, err)
	assert.False(t, signal.Action.IsDirectional())
	assert.Nil(t, signal.Target1)
	assert.Nil(t, signal.Target2)
	assert.Nil(t, signal.StopLoss)
}

func TestEvaluateOption_DirectionalHasAllOptionFields(t *testing.T) {
	e := New(DefaultPolicy())

	snap := testSnapshot("NIFTY", risingCloses(60, 22000, 1), nil)
	expiry := time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC)
	chain := testChain(snap.Price, expiry)

	signal, err := e.EvaluateOption(snap, chain, OptionFilter{MinVolume: 1000, MinOpenInterest: 10000}, 0)

	require.NoError(t, err)
	require.NotNil(t, signal)
	require.True(t, signal.Action.IsDirectional())
	require.NotNil(t, signal.Option)
	assert.NotZero(t, signal.Option.Strike)
	assert.Contains(t, []string{dto.OptionRightCall, dto.OptionRightPut}, signal.Option.Right)
	assert.Equal(t, expiry, signal.Option.Expiry)
	assert.NotZero(t, signal.Option.EntryPrice)
	assert.GreaterOrEqual(t, signal.Option.ReversalProbability, 0.0)
	assert.LessOrEqual(t, signal.Option.ReversalProbability, 100.0)

	row := signal.ToEntity("3f1e2a6c-0000-0000-0000-000000000001", "3f1e2a6c-0000-0000-0000-000000000002")
	assert.Equal(t, entity.SignalTypeOptions, row.SignalType)
	require.NotNil(t, row.Strike)
	require.NotNil(t, row.OptionType)
	require.NotNil(t, row.ExpiryDate)
	require.NotNil(t, row.EntryPrice)
	require.NotNil(t, row.ReversalProbability)
}

func TestEvaluateOption_BullishPicksCall(t *testing.T) {
	e := New(DefaultPolicy())

	snap := testSnapshot("NIFTY", risingCloses(60, 22000, 1), nil)
	chain := testChain(snap.Price, time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC))

	signal, err := e.EvaluateOption(snap, chain, OptionFilter{}, 0)

	require.NoError(t, err)
	require.NotNil(t, signal.Option)
	assert.Equal(t, dto.OptionRightCall, signal.Option.Right)
	assert.Equal(t, ActionBuyCall, signal.Action)
	// Nearest-to-spot strike wins.
	assert.InDelta(t, snap.Price, signal.Option.Strike, 1)
}

func TestEvaluateOption_FallbackRightSellsPremium(t *testing.T) {
	e := New(DefaultPolicy())

	snap := testSnapshot("NIFTY", risingCloses(60, 22000, 1), nil)
	expiry := time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC)
	chain := dto.OptionChain{
		Symbol:    "NIFTY",
		SpotPrice: snap.Price,
		Expiry:    expiry,
		Contracts: []dto.OptionContract{
			// Calls too illiquid for the filter; only the put qualifies.
			{Strike: snap.Price, Right: dto.OptionRightCall, Expiry: expiry, LastPrice: 85, Volume: 10, OpenInterest: 50, Greeks: dto.OptionGreeks{Delta: 0.51, Theta: -5.6}},
			{Strike: snap.Price, Right: dto.OptionRightPut, Expiry: expiry, LastPrice: 82, Volume: 90000, OpenInterest: 180000, Greeks: dto.OptionGreeks{Delta: -0.49, Theta: -5.4}},
		},
	}

	signal, err := e.EvaluateOption(snap, chain, OptionFilter{MinVolume: 1000, MinOpenInterest: 10000}, 0)

	require.NoError(t, err)
	require.NotNil(t, signal.Option)
	assert.Equal(t, dto.OptionRightPut, signal.Option.Right)
	assert.Equal(t, ActionSellPut, signal.Action)
}

func TestEvaluateOption_NoEligibleContract(t *testing.T) {
	e := New(DefaultPolicy())

	snap := testSnapshot("NIFTY", risingCloses(60, 22000, 1), nil)
	chain := testChain(snap.Price, time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC))

	signal, err := e.EvaluateOption(snap, chain, OptionFilter{MinVolume: 10000000}, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEligibleContract)
	assert.Nil(t, signal)
}

func TestEvaluateOption_HoldStaysStockLevel(t *testing.T) {
	e := New(DefaultPolicy())

	snap := testSnapshot("NIFTY", choppyCloses(60, 22000, 20), nil)
	chain := testChain(snap.Price, time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC))

	signal, err := e.EvaluateOption(snap, chain, OptionFilter{}, 60)

	require.NoError(t, err)
	assert.False(t, signal.Action.IsDirectional())
	assert.Nil(t, signal.Option)

	row := signal.ToEntity("3f1e2a6c-0000-0000-0000-000000000001", "3f1e2a6c-0000-0000-0000-000000000002")
	assert.Equal(t, entity.SignalTypeStock, row.SignalType)
}

func TestReversalProbabilityBounded(t *testing.T) {
	e := New(DefaultPolicy())

	cases := []struct {
		delta    float64
		theta    float64
		momentum float64
		right    string
	}{
		{0.5, -50, -100, dto.OptionRightCall},
		{0.99, 0, 100, dto.OptionRightCall},
		{-0.5, -50, 100, dto.OptionRightPut},
		{-0.01, 0, -100, dto.OptionRightPut},
	}
	for _, tc := range cases {
		contract := dto.OptionContract{Right: tc.right, Greeks: dto.OptionGreeks{Delta: tc.delta, Theta: tc.theta}}
		rp := e.reversalProbability(contract, Readings{Momentum5D: tc.momentum})
		assert.GreaterOrEqual(t, rp, 0.0)
		assert.LessOrEqual(t, rp, 100.0)
	}
}

func TestActionClasses(t *testing.T) {
	assert.True(t, ActionBuy.IsBuyClass())
	assert.True(t, ActionBuyCall.IsBuyClass())
	assert.True(t, ActionBuyPut.IsBuyClass())
	assert.True(t, ActionSell.IsSellClass())
	assert.True(t, ActionSellCall.IsSellClass())
	assert.True(t, ActionSellPut.IsSellClass())
	assert.False(t, ActionWait.IsDirectional())
	assert.False(t, ActionAvoid.IsDirectional())
	assert.False(t, Action("HOLD").Valid())
}
