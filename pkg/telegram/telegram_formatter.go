package telegram

import (
	"fmt"
	"strings"
	"time"

	"stocxer-screener/internal/entity"
)

// FormatScanSummaryMessage formats a completed scan into an HTML message
// for the alerts channel.
func FormatScanSummaryMessage(scan *entity.ScreenerScan, topResults []*entity.ScreenerResult) string {
	var b strings.Builder

	b.WriteString("📊 <b>Screener Scan Complete</b>\n\n")
	b.WriteString(fmt.Sprintf("Scan: <code>%s</code>\n", scan.ScanID))
	b.WriteString(fmt.Sprintf("Scanned: %d | Signals: %d\n", scan.StocksScanned, scan.SignalsFound))
	b.WriteString(fmt.Sprintf("Buy: %d | Sell: %d | Min confidence: %.0f%%\n", scan.BuySignals, scan.SellSignals, scan.MinConfidence))

	if len(topResults) > 0 {
		b.WriteString("\n<b>Top signals</b>\n")
		for _, r := range topResults {
			line := fmt.Sprintf("• %s — %s (%.1f%%) @ %.2f", r.Symbol, r.Action, r.Confidence, r.Price)
			if r.SignalType == entity.SignalTypeOptions && r.Strike != nil && r.OptionType != nil {
				line += fmt.Sprintf(" [%.2f %s]", *r.Strike, *r.OptionType)
			}
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

// FormatErrorAlertMessage formats an operational error alert.
func FormatErrorAlertMessage(at time.Time, errType, errMessage, rawPayload string) string {
	var b strings.Builder

	b.WriteString("🚨 <b>Screener Alert</b>\n\n")
	b.WriteString(fmt.Sprintf("Time: %s\n", at.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Type: %s\n", errType))
	b.WriteString(fmt.Sprintf("Error: <code>%s</code>\n", errMessage))
	if rawPayload != "" {
		b.WriteString(fmt.Sprintf("Payload: <code>%s</code>\n", rawPayload))
	}

	return b.String()
}
