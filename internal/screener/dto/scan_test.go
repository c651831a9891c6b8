package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanRequestValidate(t *testing.T) {
	valid := ScanRequest{
		UserID:        "8a3d2f40-0000-0000-0000-00000000a001",
		Symbols:       []string{"RELIANCE", "TCS"},
		MinConfidence: 60,
		SignalType:    "STOCK",
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(r *ScanRequest)
	}{
		{"missing user", func(r *ScanRequest) { r.UserID = "" }},
		{"empty universe", func(r *ScanRequest) { r.Symbols = nil }},
		{"confidence below range", func(r *ScanRequest) { r.MinConfidence = -1 }},
		{"confidence above range", func(r *ScanRequest) { r.MinConfidence = 100.5 }},
		{"unknown signal type", func(r *ScanRequest) { r.SignalType = "FUTURES" }},
		{"negative min volume", func(r *ScanRequest) { r.MinVolume = -1 }},
		{"negative min open interest", func(r *ScanRequest) { r.MinOpenInterest = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			assert.ErrorIs(t, req.Validate(), ErrInvalidScanConfig)
		})
	}
}

func TestScanRequestIsOptions(t *testing.T) {
	assert.True(t, (&ScanRequest{SignalType: "OPTIONS"}).IsOptions())
	assert.False(t, (&ScanRequest{SignalType: "STOCK"}).IsOptions())
	assert.False(t, (&ScanRequest{}).IsOptions())
}
