package dto

import (
	"errors"
	"fmt"
)

// ErrInvalidScanConfig fails the whole scan before any symbol is evaluated.
var ErrInvalidScanConfig = errors.New("invalid scan configuration")

// ScanRequest is the per-invocation scan configuration. It is not
// persisted; its parameters are echoed into the scan summary for audit.
type ScanRequest struct {
	UserID          string   `json:"user_id"`
	Symbols         []string `json:"symbols"`
	MinConfidence   float64  `json:"min_confidence"`
	SignalType      string   `json:"signal_type"`
	ExpiryBucket    string   `json:"expiry_bucket,omitempty"`
	MinVolume       int64    `json:"min_volume,omitempty"`
	MinOpenInterest int64    `json:"min_open_interest,omitempty"`
}

// Validate checks the request before any evaluation starts.
func (r *ScanRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidScanConfig)
	}
	if len(r.Symbols) == 0 {
		return fmt.Errorf("%w: symbol universe is empty", ErrInvalidScanConfig)
	}
	if r.MinConfidence < 0 || r.MinConfidence > 100 {
		return fmt.Errorf("%w: min_confidence must be in [0,100], got %.2f", ErrInvalidScanConfig, r.MinConfidence)
	}
	switch r.SignalType {
	case "", "STOCK", "OPTIONS":
	default:
		return fmt.Errorf("%w: unknown signal_type %q", ErrInvalidScanConfig, r.SignalType)
	}
	if r.MinVolume < 0 {
		return fmt.Errorf("%w: min_volume must not be negative", ErrInvalidScanConfig)
	}
	if r.MinOpenInterest < 0 {
		return fmt.Errorf("%w: min_open_interest must not be negative", ErrInvalidScanConfig)
	}
	return nil
}

// IsOptions reports whether the scan evaluates option contracts rather
// than the underlying.
func (r *ScanRequest) IsOptions() bool {
	return r.SignalType == "OPTIONS"
}

// StreamDataScan is the payload enqueued on the scan stream.
type StreamDataScan struct {
	ScanID  string      `json:"scan_id"`
	Request ScanRequest `json:"request"`
}

// ScanQueuedResponse is returned when a scan has been enqueued.
type ScanQueuedResponse struct {
	ScanID string `json:"scan_id"`
	Status string `json:"status"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}
