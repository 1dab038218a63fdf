package gateway

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidAmount is returned for a non-positive charge amount.
var ErrInvalidAmount = errors.New("invalid payment amount")

// Error wraps a failure reported by the upstream payment provider.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ToSmallestUnit converts a price in major currency units into integer minor
// units, rounding to the nearest cent.
func ToSmallestUnit(price float64) int64 {
	return int64(math.Round(price * 100))
}
