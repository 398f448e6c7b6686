package strategy

import (
	"github.com/hindsight-lab/hindsight/internal/commission"
	"github.com/hindsight-lab/hindsight/internal/types"
)

// Greedy repeatedly executes the single most profitable affordable
// intraday round trip, then moves on to the bars strictly after the
// executed date.
type Greedy struct {
	name  string
	sched commission.Schedule
}

// NewGreedy creates the simple greedy strategy.
func NewGreedy(sched commission.Schedule) Strategy {
	return &Greedy{
		name:  "greedy",
		sched: sched,
	}
}

// Name returns the name of the strategy.
func (s *Greedy) Name() string {
	return s.name
}

// Run walks the window one trade at a time. Each step keeps only the
// bars affordable with the cash on hand, picks the best round trip, and
// executes it if profitable. Bars on the executed date are dropped so a
// day's capital is never reused beyond the chosen trade. The walk is a
// loop rather than a recursive descent: the number of trades grows with
// the dataset and would otherwise bound the usable history by stack
// depth.
func (s *Greedy) Run(bars []types.DayBar, cash float64) (float64, []types.Move) {
	var moves []types.Move

	working := bars

	for {
		working = affordable(working, cash, s.sched)
		if len(working) == 0 {
			return cash, moves
		}

		best := bestPick(working, cash, s.sched)
		if best.profit <= 0 {
			return cash, moves
		}

		cash = cash - best.cost + best.revenue

		pair := best.moves()
		moves = append(moves, pair[0], pair[1])

		working = afterDate(working, best.bar.Date)
	}
}
