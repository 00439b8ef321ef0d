package datasources

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned without contacting the provider while its breaker is open
var ErrCircuitOpen = errors.New("circuit open")

// StatusError is a non-200 provider response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Temporary reports whether retrying later could succeed
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == 429
}

// Breaker trips after consecutive provider failures. Client errors other
// than 429 do not count towards tripping.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker opens after failures consecutive failures and half-opens after openTimeout
func NewBreaker(name string, failures uint32, openTimeout time.Duration) *Breaker {
	if failures == 0 {
		failures = 1
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Temporary()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("source", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker
func (b *Breaker) Execute(fn func() ([]byte, error)) ([]byte, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", b.cb.Name(), ErrCircuitOpen)
		}
		return nil, err
	}
	body, _ := out.([]byte)
	return body, nil
}

// State returns closed, half-open or open
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Counts returns the breaker's current window counters
func (b *Breaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}
