package strategy

import (
	"math"

	"github.com/hindsight-lab/hindsight/internal/commission"
	"github.com/hindsight-lab/hindsight/internal/types"
)

// Lookback extends the greedy walk with a corrective sub-search: before
// committing a chosen trade, it hunts backward for additional profitable
// trades dated on or before the chosen date, funded by the cash left
// over once the chosen trade's cost is reserved. Corrective moves are
// spliced into the output ahead of the chosen trade's own pair.
type Lookback struct {
	name         string
	sched        commission.Schedule
	maxPastPairs float64
	minProfit    float64
}

// NewLookback creates the lookback-corrective strategy. maxPastPairs
// caps the cumulative buy/sell pairs a corrective branch may book and
// minProfit is the profit a corrective trade must clear to be admitted;
// math.Inf(1) and math.Inf(-1) leave them unbounded.
func NewLookback(sched commission.Schedule, maxPastPairs, minProfit float64) Strategy {
	return &Lookback{
		name:         "lookback",
		sched:        sched,
		maxPastPairs: maxPastPairs,
		minProfit:    minProfit,
	}
}

// Name returns the name of the strategy.
func (s *Lookback) Name() string {
	return s.name
}

// Run executes a forward pass over the window.
func (s *Lookback) Run(bars []types.DayBar, cash float64) (float64, []types.Move) {
	return s.search(bars, cash, false, s.maxPastPairs, s.minProfit)
}

// search is one forward (past=false) or corrective (past=true) pass.
//
// Both modes loop over the same step: filter to affordable bars, pick
// the best round trip, stop when nothing profitable remains. A
// corrective pass additionally stops when its pair budget is spent, or
// when the best candidate's profit falls below minProfit: the
// candidates after the best one can only do worse, so the whole branch
// ends there rather than skipping just that candidate.
//
// Each executed trade first launches a nested corrective search over
// the bars at or before its date (the chosen bar excluded) with the
// budget decremented by one. The forward chain is a loop for the same
// stack-depth reason as the greedy walk; corrective nesting stays
// recursive because it is bounded by the budget and by affordability.
func (s *Lookback) search(bars []types.DayBar, cash float64, past bool, maxPastPairs, minProfit float64) (float64, []types.Move) {
	var moves []types.Move

	working := bars

	for {
		if past && float64(len(moves)/2) >= maxPastPairs {
			return cash, moves
		}

		working = affordable(working, cash, s.sched)
		if len(working) == 0 {
			return cash, moves
		}

		best := bestPick(working, cash, s.sched)
		if best.profit <= 0 {
			return cash, moves
		}

		if past && best.profit < minProfit {
			return cash, moves
		}

		// Reserve the chosen trade's cost, then spend what is left on
		// earlier days before banking the chosen trade's revenue.
		subCash, corrective := s.search(correctiveWindow(working, best), cash-best.cost, true, maxPastPairs-1, minProfit)
		cash = subCash + best.revenue

		moves = append(moves, corrective...)

		pair := best.moves()
		moves = append(moves, pair[0], pair[1])

		working = afterDate(working, best.bar.Date)

		if past {
			// The budget is a ceiling on cumulative pairs within the
			// corrective branch, so every pair booked so far counts
			// against the next step.
			maxPastPairs -= float64(len(moves) / 2)
		}
	}
}

// Unbounded returns the parameter values that leave the lookback
// strategy unconstrained.
func Unbounded() (maxPastPairs, minProfit float64) {
	return math.Inf(1), math.Inf(-1)
}
