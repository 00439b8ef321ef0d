package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/sawpanic/gridrun/internal/application/scan"
	"github.com/sawpanic/gridrun/internal/models"
)

const rule = "=================================================="

// Table is the human-readable console report
type Table struct {
	Top int
}

// Emit implements Emitter
func (t *Table) Emit(w io.Writer, run *scan.Run) error {
	heading := color.New(color.FgCyan, color.Bold)
	pair := color.New(color.FgGreen, color.Bold)
	dim := color.New(color.Faint)

	var b strings.Builder
	heading.Fprintf(&b, "\n=== Grid Pair Screener Results ===\n\n")

	recs := run.Top(t.Top)
	if len(recs) == 0 {
		b.WriteString("No pairs found matching the criteria.\n")
	}

	for i, rec := range recs {
		pair.Fprintf(&b, "\n%d. Pair: %s\n", i+1, rec.Pair)
		fmt.Fprintf(&b, "Score: %s\n", fixed(rec.Analysis.Score, 2))

		b.WriteString("\nAnalysis:\n")
		fmt.Fprintf(&b, "- Volatility: %s%%\n", fixed(rec.Analysis.Volatility*100, 2))
		fmt.Fprintf(&b, "- Daily Volume: $%s\n", money(rec.Analysis.Liquidity))
		fmt.Fprintf(&b, "- Trend Strength: %s\n", fixed(rec.Analysis.TrendStrength, 2))

		g := rec.Recommendation
		b.WriteString("\nGrid Recommendations:\n")
		fmt.Fprintf(&b, "- Range: $%s - $%s\n", fixed(g.GridRange.Low, 2), fixed(g.GridRange.High, 2))
		fmt.Fprintf(&b, "- Suggested Investment: $%s\n", money(g.InvestmentSize))
		fmt.Fprintf(&b, "- Grid Levels: %d\n", g.GridSize)

		b.WriteString("\nScenario Analysis:\n")
		writeScenarios(&b, g.Scenarios)

		b.WriteString("\n" + rule + "\n")
	}

	dim.Fprintf(&b, "\nRun %s | source %s | evaluated %d, passed %d, rejected %d, skipped %d%s\n",
		run.ID, run.Source, run.Report.Evaluated, run.Report.Passed(),
		len(run.Report.Rejected), len(run.Report.Skipped), skipSummary(run))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeScenarios(b *strings.Builder, scenarios map[string]models.ScenarioResult) {
	for _, name := range models.ScenarioOrder() {
		s, ok := scenarios[name]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "\n%s:\n", title(name))
		fmt.Fprintf(b, "- Potential Profit: %s%%\n", fixed(s.PotentialProfitPct, 2))
		fmt.Fprintf(b, "- Expected Trades: %d\n", s.ExpectedTradeCount)
	}
}

func skipSummary(run *scan.Run) string {
	counts := run.Report.SkipCounts()
	if len(counts) == 0 {
		return ""
	}

	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		parts[i] = fmt.Sprintf("%s=%d", reason, counts[reason])
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
