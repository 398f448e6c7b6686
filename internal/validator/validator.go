// Package validator independently re-derives the cash trajectory from a
// move list. It knows nothing about how the moves were produced: it
// replays them against the bar data one by one, enforcing chronology,
// same-day settlement, and per-day volume limits, and either arrives at
// a final balance or rejects the list outright.
package validator

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hindsight-lab/hindsight/internal/commission"
	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/internal/types"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// FailedBalance is the balance returned for any move list that fails
// validation.
const FailedBalance = -1.0

// BarLookup resolves one symbol's bar for an exact trading date.
type BarLookup interface {
	Lookup(symbol string, date time.Time) (types.DayBar, bool)
}

// Replayer replays move lists against a fixed set of bar data.
type Replayer struct {
	data   BarLookup
	sched  commission.Schedule
	logger *logger.Logger
}

// NewReplayer creates a Replayer over the given bar data and commission
// schedule.
func NewReplayer(data BarLookup, sched commission.Schedule, log *logger.Logger) *Replayer {
	return &Replayer{
		data:   data,
		sched:  sched,
		logger: log,
	}
}

// Replay walks the moves in the order given and returns the final
// balance: the settled cash plus any revenue from the last day, which
// has not settled yet.
//
// Moves must be non-decreasing in date. Each day's buys are paid out of
// cash settled before the day began; sale proceeds accumulate separately
// and only become spendable once a later-dated move opens the next day.
// Any violation (malformed fields, a date moving backward, a trade with
// no matching bar, a quantity over the bar's limit, or a buy exceeding
// settled cash) stops the replay and returns FailedBalance alongside
// the error. Unsupported actions are logged and skipped.
func (r *Replayer) Replay(initialCash float64, moves []types.Move) (float64, error) {
	var (
		currentDate  time.Time
		dailyCash    float64
		dailyRevenue float64
	)

	for _, move := range moves {
		moveDate, err := time.Parse(types.DateLayout, move.Date)
		if err != nil {
			return FailedBalance, errors.Wrapf(errors.ErrCodeMalformedMove, err, "unparseable date in move %q", move.String())
		}

		quantity, err := strconv.ParseInt(move.Quantity, 10, 64)
		if err != nil {
			return FailedBalance, errors.Wrapf(errors.ErrCodeMalformedMove, err, "unparseable quantity in move %q", move.String())
		}

		switch {
		case currentDate.IsZero():
			currentDate = moveDate
			dailyCash = initialCash
			dailyRevenue = 0
		case moveDate.After(currentDate):
			// A new day opens: yesterday's proceeds settle into cash.
			dailyCash += dailyRevenue
			dailyRevenue = 0
			currentDate = moveDate
		case moveDate.Before(currentDate):
			return FailedBalance, errors.Newf(errors.ErrCodeMoveOutOfOrder,
				"move dated %s arrives after %s", move.Date, currentDate.Format(types.DateLayout))
		}

		bar, ok := r.data.Lookup(move.Symbol, moveDate)
		if !ok {
			return FailedBalance, errors.Newf(errors.ErrCodeBarNotFound,
				"no bar for %s on %s", move.Symbol, move.Date)
		}

		if quantity > bar.MaxQuantity {
			return FailedBalance, errors.Newf(errors.ErrCodeVolumeExceeded,
				"move %q trades %d shares, limit is %d", move.String(), quantity, bar.MaxQuantity)
		}

		switch move.Action {
		case types.ActionBuyLow:
			cost := r.sched.BuyCost(bar.Low) * float64(quantity)
			if dailyCash < cost {
				return FailedBalance, errors.Newf(errors.ErrCodeInsufficientCash,
					"move %q needs %.2f, settled cash is %.2f", move.String(), cost, dailyCash)
			}

			dailyCash -= cost
		case types.ActionBuyOpen:
			cost := r.sched.BuyCost(bar.Open) * float64(quantity)
			if dailyCash < cost {
				return FailedBalance, errors.Newf(errors.ErrCodeInsufficientCash,
					"move %q needs %.2f, settled cash is %.2f", move.String(), cost, dailyCash)
			}

			dailyCash -= cost
		case types.ActionSellClose:
			dailyRevenue += r.sched.SellRevenue(bar.Close) * float64(quantity)
		case types.ActionSellHigh:
			dailyRevenue += r.sched.SellRevenue(bar.High) * float64(quantity)
		default:
			r.logger.Warn("skipping unsupported action",
				zap.String("action", string(move.Action)),
				zap.String("move", move.String()))
		}
	}

	return dailyCash + dailyRevenue, nil
}
