package evaluator

import (
	"time"

	"stocxer-screener/internal/entity"
	"stocxer-screener/pkg/utils"

	"github.com/lib/pq"
)

// Action is the closed classification set persisted to screener_results.
type Action string

const (
	ActionBuy      Action = "BUY"
	ActionSell     Action = "SELL"
	ActionBuyCall  Action = "BUY CALL"
	ActionBuyPut   Action = "BUY PUT"
	ActionSellCall Action = "SELL CALL"
	ActionSellPut  Action = "SELL PUT"
	ActionWait     Action = "WAIT"
	ActionAvoid    Action = "AVOID"
)

// Valid reports whether a is a member of the closed classification set.
func (a Action) Valid() bool {
	switch a {
	case ActionBuy, ActionSell, ActionBuyCall, ActionBuyPut,
		ActionSellCall, ActionSellPut, ActionWait, ActionAvoid:
		return true
	}
	return false
}

// IsBuyClass reports whether a opens or adds long-side exposure.
func (a Action) IsBuyClass() bool {
	return a == ActionBuy || a == ActionBuyCall || a == ActionBuyPut
}

// IsSellClass reports whether a reduces or shorts exposure.
func (a Action) IsSellClass() bool {
	return a == ActionSell || a == ActionSellCall || a == ActionSellPut
}

// IsDirectional reports whether a is an actionable directional call, as
// opposed to WAIT/AVOID.
func (a Action) IsDirectional() bool {
	return a.IsBuyClass() || a.IsSellClass()
}

// Readings is the basket of technical readings backing a signal.
type Readings struct {
	RSI           float64
	MAFast        float64
	MASlow        float64
	Momentum5D    float64
	PercentChange float64
	VolumeSurge   bool
	Volume        int64
}

// OptionLeg carries the contract-specific part of an options signal.
type OptionLeg struct {
	Strike              float64
	Right               string // CE or PE
	Expiry              time.Time
	EntryPrice          float64
	ReversalProbability float64
}

// Signal is one evaluated outcome for one symbol. Option is nil for a
// stock-level signal; a non-nil Option makes this an OPTIONS signal and
// all five contract fields are populated. The two states are never mixed,
// which is what the nullable-column schema cannot express on its own.
type Signal struct {
	Symbol     string
	Name       string
	Price      float64
	Action     Action
	Confidence float64
	Target1    *float64
	Target2    *float64
	StopLoss   *float64
	Readings   Readings
	Reasons    []string
	Option     *OptionLeg
}

// ToEntity flattens the signal into the persisted row shape, correlated
// to a scan and scoped to the owning user.
func (s *Signal) ToEntity(scanID, userID string) *entity.ScreenerResult {
	result := &entity.ScreenerResult{
		ScanID:        scanID,
		UserID:        userID,
		Symbol:        s.Symbol,
		Name:          s.Name,
		Price:         utils.RoundTo2(s.Price),
		Action:        string(s.Action),
		Confidence:    utils.RoundTo2(s.Confidence),
		Target1:       roundPtr(s.Target1),
		Target2:       roundPtr(s.Target2),
		StopLoss:      roundPtr(s.StopLoss),
		RSI:           utils.RoundTo2(s.Readings.RSI),
		MAFast:        utils.RoundTo2(s.Readings.MAFast),
		MASlow:        utils.RoundTo2(s.Readings.MASlow),
		Momentum5D:    utils.RoundTo2(s.Readings.Momentum5D),
		VolumeSurge:   s.Readings.VolumeSurge,
		PercentChange: utils.RoundTo2(s.Readings.PercentChange),
		Volume:        s.Readings.Volume,
		Reasons:       pq.StringArray(s.Reasons),
		SignalType:    entity.SignalTypeStock,
	}

	if s.Option != nil {
		result.SignalType = entity.SignalTypeOptions
		result.Strike = utils.ToPointer(utils.RoundTo2(s.Option.Strike))
		result.OptionType = utils.ToPointer(s.Option.Right)
		result.ExpiryDate = utils.ToPointer(s.Option.Expiry)
		result.EntryPrice = utils.ToPointer(utils.RoundTo2(s.Option.EntryPrice))
		result.ReversalProbability = utils.ToPointer(utils.RoundTo2(s.Option.ReversalProbability))
	}

	return result
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return utils.ToPointer(utils.RoundTo2(*v))
}
