package metrics

import "errors"

var (
	// ErrInsufficientData is returned when a history is too short for a metric
	ErrInsufficientData = errors.New("insufficient price history")
	// ErrInvalidPrice is returned when a history contains a non-positive price
	ErrInvalidPrice = errors.New("invalid price")
)
