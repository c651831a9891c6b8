package entity

import (
	"time"

	"github.com/lib/pq"
)

// Signal type discriminator values for ScreenerResult.
const (
	SignalTypeStock   = "STOCK"
	SignalTypeOptions = "OPTIONS"
)

// ScreenerResult is one evaluated signal for one symbol in one scan.
// Rows are immutable after creation except for the update timestamp.
// The five option fields (Strike, OptionType, ExpiryDate, EntryPrice,
// ReversalProbability) are populated if and only if SignalType is OPTIONS.
type ScreenerResult struct {
	ID                  int64          `gorm:"primaryKey" json:"id"`
	ScanID              string         `gorm:"type:uuid;index;not null" json:"scan_id"`
	UserID              string         `gorm:"type:uuid;index;not null" json:"user_id"`
	Symbol              string         `gorm:"type:varchar(50);not null" json:"symbol"`
	Name                string         `gorm:"type:varchar(255)" json:"name"`
	Price               float64        `json:"price"`
	Action              string         `gorm:"type:varchar(10);not null" json:"action"`
	Confidence          float64        `json:"confidence"`
	Target1             *float64       `gorm:"column:target_1" json:"target_1,omitempty"`
	Target2             *float64       `gorm:"column:target_2" json:"target_2,omitempty"`
	StopLoss            *float64       `json:"stop_loss,omitempty"`
	RSI                 float64        `gorm:"column:rsi" json:"rsi"`
	MAFast              float64        `gorm:"column:ma_fast" json:"ma_fast"`
	MASlow              float64        `gorm:"column:ma_slow" json:"ma_slow"`
	Momentum5D          float64        `gorm:"column:momentum_5d" json:"momentum_5d"`
	VolumeSurge         bool           `json:"volume_surge"`
	PercentChange       float64        `json:"percent_change"`
	Volume              int64          `json:"volume"`
	Reasons             pq.StringArray `gorm:"type:text[]" json:"reasons"`
	SignalType          string         `gorm:"type:varchar(10);not null;default:STOCK" json:"signal_type"`
	Strike              *float64       `json:"strike,omitempty"`
	OptionType          *string        `gorm:"type:varchar(2)" json:"option_type,omitempty"`
	ExpiryDate          *time.Time     `json:"expiry_date,omitempty"`
	EntryPrice          *float64       `json:"entry_price,omitempty"`
	ReversalProbability *float64       `json:"reversal_probability,omitempty"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the ScreenerResult model.
func (ScreenerResult) TableName() string {
	return "screener_results"
}
