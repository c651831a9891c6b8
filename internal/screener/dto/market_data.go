package dto

import "time"

// Option right flags.
const (
	OptionRightCall = "CE"
	OptionRightPut  = "PE"
)

// Candle is one bar of price history.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Snapshot is the resolved per-symbol market view the evaluator consumes.
type Snapshot struct {
	Symbol  string   `json:"symbol"`
	Name    string   `json:"name"`
	Price   float64  `json:"price"`
	Volume  int64    `json:"volume"`
	Candles []Candle `json:"candles"`
}

// OptionGreeks represents option sensitivity measures.
type OptionGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// OptionContract is one strike/right entry of an option chain.
type OptionContract struct {
	Strike       float64      `json:"strike"`
	Right        string       `json:"right"` // CE or PE
	Expiry       time.Time    `json:"expiry"`
	LastPrice    float64      `json:"last_price"`
	Volume       int64        `json:"volume"`
	OpenInterest int64        `json:"open_interest"`
	IV           float64      `json:"iv"`
	Greeks       OptionGreeks `json:"greeks"`
}

// OptionChain is the per-expiry chain snapshot for one underlying.
type OptionChain struct {
	Symbol    string           `json:"symbol"`
	SpotPrice float64          `json:"spot_price"`
	Expiry    time.Time        `json:"expiry"`
	Contracts []OptionContract `json:"contracts"`
}

// GetHistoryParam selects the history window for a symbol.
type GetHistoryParam struct {
	Symbol   string
	Interval string
	Range    string
}
