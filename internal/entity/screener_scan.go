package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ScreenerScan is the summary row written once per scan invocation,
// after every symbol evaluation in the batch has completed.
type ScreenerScan struct {
	ID            int64          `gorm:"primaryKey" json:"id"`
	ScanID        string         `gorm:"type:uuid;uniqueIndex;not null" json:"scan_id"`
	UserID        string         `gorm:"type:uuid;index;not null" json:"user_id"`
	StocksScanned int            `json:"stocks_scanned"`
	SignalsFound  int            `json:"signals_found"`
	BuySignals    int            `json:"buy_signals"`
	SellSignals   int            `json:"sell_signals"`
	MinConfidence float64        `json:"min_confidence"`
	ScanParams    datatypes.JSON `gorm:"type:jsonb" json:"scan_params"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the ScreenerScan model.
func (ScreenerScan) TableName() string {
	return "screener_scans"
}
