package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/sawpanic/gridrun/internal/application/scan"
	"github.com/sawpanic/gridrun/internal/models"
)

// CSV writes one row per recommendation
type CSV struct {
	Top int
}

// Header returns the CSV column names
func Header() []string {
	header := []string{
		"rank", "pair", "score", "volatility", "liquidity", "trend_strength", "current_price",
		"grid_low", "grid_high", "grid_size", "investment_size",
	}
	for _, name := range models.ScenarioOrder() {
		header = append(header, name+"_profit_pct", name+"_trades")
	}
	return header
}

// Emit implements Emitter
func (c *CSV) Emit(w io.Writer, run *scan.Run) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, rec := range run.Top(c.Top) {
		g := rec.Recommendation
		row := []string{
			strconv.Itoa(i + 1),
			rec.Pair,
			fixed(rec.Analysis.Score, 4),
			fixed(rec.Analysis.Volatility, 6),
			fixed(rec.Analysis.Liquidity, 2),
			fixed(rec.Analysis.TrendStrength, 4),
			fixed(rec.Analysis.CurrentPrice, 8),
			fixed(g.GridRange.Low, 8),
			fixed(g.GridRange.High, 8),
			strconv.Itoa(g.GridSize),
			fixed(g.InvestmentSize, 2),
		}
		for _, name := range models.ScenarioOrder() {
			s := g.Scenarios[name]
			row = append(row, fixed(s.PotentialProfitPct, 4), strconv.Itoa(s.ExpectedTradeCount))
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
