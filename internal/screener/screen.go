package screener

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gridrun/internal/gates"
	"github.com/sawpanic/gridrun/internal/models"
)

// Rejection records a pair that was evaluated but failed a threshold
type Rejection struct {
	PairName    string   `json:"pair_name"`
	Score       float64  `json:"score"`
	FailedGates []string `json:"failed_gates"`
	Reasons     []string `json:"reasons"`
}

// SkippedPair records a pair whose evaluation failed
type SkippedPair struct {
	PairName string `json:"pair_name"`
	Reason   string `json:"reason"`
	Error    string `json:"error"`
	Err      error  `json:"-"`
}

// Report is the outcome of one Screen call
type Report struct {
	Recommendations []models.Recommendation `json:"recommendations"` // Score descending
	Evaluated       int                     `json:"evaluated"`       // Passed + rejected
	Rejected        []Rejection             `json:"rejected"`
	Skipped         []SkippedPair           `json:"skipped"`
}

// Passed returns the number of recommended pairs
func (r Report) Passed() int {
	return len(r.Recommendations)
}

// Top returns at most n recommendations; n <= 0 returns all of them
func (r Report) Top(n int) []models.Recommendation {
	if n <= 0 || n >= len(r.Recommendations) {
		return r.Recommendations
	}
	return r.Recommendations[:n]
}

// SkipCounts groups skipped pairs by reason
func (r Report) SkipCounts() map[string]int {
	counts := make(map[string]int)
	for _, s := range r.Skipped {
		counts[s.Reason]++
	}
	return counts
}

type outcome struct {
	recommendation *models.Recommendation
	rejection      *Rejection
	skip           *SkippedPair
}

// Screen evaluates every record, isolating per-pair failures, and returns the
// surviving recommendations sorted by score descending. Ties keep input order.
func (s *Screener) Screen(records []models.PairRecord) Report {
	outcomes := make([]outcome, len(records))

	if s.workers <= 1 || len(records) < 2 {
		for i, record := range records {
			outcomes[i] = s.process(record)
		}
	} else {
		s.processParallel(records, outcomes)
	}

	report := Report{
		Recommendations: []models.Recommendation{},
		Rejected:        []Rejection{},
		Skipped:         []SkippedPair{},
	}
	for _, o := range outcomes {
		switch {
		case o.recommendation != nil:
			report.Evaluated++
			report.Recommendations = append(report.Recommendations, *o.recommendation)
		case o.rejection != nil:
			report.Evaluated++
			report.Rejected = append(report.Rejected, *o.rejection)
		case o.skip != nil:
			report.Skipped = append(report.Skipped, *o.skip)
		}
	}

	// outcomes are in input order, so a stable sort breaks ties by input index
	sort.SliceStable(report.Recommendations, func(i, j int) bool {
		return report.Recommendations[i].Analysis.Score > report.Recommendations[j].Analysis.Score
	})

	return report
}

func (s *Screener) processParallel(records []models.PairRecord, outcomes []outcome) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := s.workers
	if workers > len(records) {
		workers = len(records)
	}

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.process(records[i])
			}
		}()
	}

	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// process evaluates one record; any failure, including a panic, becomes a skip
func (s *Screener) process(record models.PairRecord) (out outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = skipped(record.PairName, fmt.Errorf("%s: %w: %v", record.PairName, ErrInternal, p))
		}
	}()

	analysis, result, err := s.Evaluate(record)
	if err != nil {
		return skipped(record.PairName, err)
	}

	if analysis == nil {
		failed := result.FailedGates()
		log.Debug().
			Str("pair", record.PairName).
			Strs("failed_gates", failed).
			Msg("Pair rejected by thresholds")
		return outcome{rejection: &Rejection{
			PairName:    record.PairName,
			Score:       s.scoreChecks(result),
			FailedGates: failed,
			Reasons:     result.FailureReasons(),
		}}
	}

	rec, err := s.BuildRecommendation(*analysis)
	if err != nil {
		return skipped(record.PairName, err)
	}

	return outcome{recommendation: &models.Recommendation{
		Pair: analysis.PairName,
		Analysis: models.AnalysisSummary{
			Volatility:    analysis.Volatility,
			Liquidity:     analysis.Liquidity,
			TrendStrength: analysis.TrendStrength,
			Score:         analysis.Score,
			CurrentPrice:  analysis.CurrentPrice,
		},
		Recommendation: rec,
	}}
}

func skipped(pair string, err error) outcome {
	reason := SkipReason(err)
	log.Warn().
		Str("pair", pair).
		Str("reason", reason).
		Err(err).
		Msg("Skipping pair")
	return outcome{skip: &SkippedPair{
		PairName: pair,
		Reason:   reason,
		Error:    err.Error(),
		Err:      err,
	}}
}

// scoreChecks recomputes the score of a rejected pair from its gate inputs
func (s *Screener) scoreChecks(result *gates.GateResult) float64 {
	var in gates.Inputs
	for _, c := range result.Checks {
		switch c.Name {
		case gates.GateVolatility:
			in.Volatility = c.Value
		case gates.GateLiquidity:
			in.Liquidity = c.Value
		case gates.GateTrendStrength:
			in.TrendStrength = c.Value
		}
	}
	return s.Score(in.Volatility, in.Liquidity, in.TrendStrength)
}
