package screener

import (
	"errors"

	"github.com/sawpanic/gridrun/internal/metrics"
)

var (
	// ErrDivisionByZero guards scenario generation against a zero grid size
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidVolume is returned for a negative or non-finite 24h volume
	ErrInvalidVolume = errors.New("invalid volume")
	// ErrInternal wraps a recovered panic from a single pair's evaluation
	ErrInternal = errors.New("internal evaluation failure")
)

// Skip reasons reported for pairs that could not be evaluated
const (
	ReasonInsufficientData = "insufficient_data"
	ReasonInvalidPrice     = "invalid_price"
	ReasonInvalidVolume    = "invalid_volume"
	ReasonDivisionByZero   = "division_by_zero"
	ReasonInternal         = "internal"
)

// SkipReason classifies a per-pair evaluation error
func SkipReason(err error) string {
	switch {
	case errors.Is(err, metrics.ErrInsufficientData):
		return ReasonInsufficientData
	case errors.Is(err, metrics.ErrInvalidPrice):
		return ReasonInvalidPrice
	case errors.Is(err, ErrInvalidVolume):
		return ReasonInvalidVolume
	case errors.Is(err, ErrDivisionByZero):
		return ReasonDivisionByZero
	default:
		return ReasonInternal
	}
}
