package metrics

import (
	"sort"

	"github.com/sawpanic/gridrun/internal/models"
)

// SortHistory returns a copy of history in canonical (ascending timestamp) order.
// Points without a timestamp keep their relative input position; a history with
// no timestamps at all is returned unchanged.
func SortHistory(history []models.PricePoint) []models.PricePoint {
	out := make([]models.PricePoint, len(history))
	copy(out, history)

	for _, p := range out {
		if p.Timestamp.IsZero() {
			return out
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Prices extracts the price column of a history
func Prices(history []models.PricePoint) []float64 {
	prices := make([]float64, len(history))
	for i, p := range history {
		prices[i] = p.Price
	}
	return prices
}

// LastPrice returns the most recent price of an ascending history
func LastPrice(history []models.PricePoint) (float64, error) {
	if len(history) == 0 {
		return 0, ErrInsufficientData
	}
	return history[len(history)-1].Price, nil
}
