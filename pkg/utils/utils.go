package utils

import (
	"log"
	"math"
	"runtime/debug"
)

// GoSafe runs fn in a goroutine and recovers from panics so a single
// handler cannot take down the process.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// RoundTo2 rounds v to two fractional digits, the precision every price
// and percentage column is stored with.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}
