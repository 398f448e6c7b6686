// Package strategy implements the hindsight trading algorithms: greedy
// passes over a chronologically sorted window of daily bars that buy and
// sell within a single day with perfect knowledge of its prices.
package strategy

import (
	"math"
	"sort"
	"time"

	"github.com/hindsight-lab/hindsight/internal/commission"
	"github.com/hindsight-lab/hindsight/internal/types"
)

// Strategy is the contract for a hindsight trading algorithm.
type Strategy interface {
	// Run executes the strategy over a chronologically sorted window of
	// bars, returning the final cash and the moves in execution order.
	Run(bars []types.DayBar, cash float64) (float64, []types.Move)
	// Name returns the name of the strategy.
	Name() string
}

// pick is one candidate round trip: buy a bar at its open or low, sell
// the same day at its high or close.
type pick struct {
	barIdx   int
	bar      types.DayBar
	buy      types.Action
	sell     types.Action
	quantity int64
	cost     float64
	revenue  float64
	profit   float64
}

// moves returns the buy/sell pair for the pick, buy leg first.
func (p pick) moves() [2]types.Move {
	return [2]types.Move{
		types.NewMove(p.bar.Date, p.buy, p.bar.Symbol, p.quantity),
		types.NewMove(p.bar.Date, p.sell, p.bar.Symbol, p.quantity),
	}
}

// affordable returns the bars whose open or low price, inflated by the
// buy-side commission, fits within cash. The result preserves date
// order. Callers thread the filtered slice through subsequent steps, so
// a bar pruned here stays pruned for the rest of the pass even if cash
// later grows.
func affordable(bars []types.DayBar, cash float64, sched commission.Schedule) []types.DayBar {
	kept := make([]types.DayBar, 0, len(bars))

	for _, bar := range bars {
		if sched.BuyCost(bar.Open) <= cash || sched.BuyCost(bar.Low) <= cash {
			kept = append(kept, bar)
		}
	}

	return kept
}

// roundTrip builds the candidate for one buy/sell variant of a bar. The
// quantity is capped by the bar's tradeable volume and by how many
// shares cash affords, floored to a whole number of shares.
func roundTrip(bar types.DayBar, barIdx int, buy types.Action, buyPrice, sellPrice, cash float64, sched commission.Schedule) pick {
	buyCost := sched.BuyCost(buyPrice)
	sellRevenue := sched.SellRevenue(sellPrice)
	quantity := int64(math.Min(float64(bar.MaxQuantity), cash/buyCost))

	sell := types.ActionSellHigh
	if buy == types.ActionBuyLow {
		sell = types.ActionSellClose
	}

	return pick{
		barIdx:   barIdx,
		bar:      bar,
		buy:      buy,
		sell:     sell,
		quantity: quantity,
		cost:     float64(quantity) * buyCost,
		revenue:  float64(quantity) * sellRevenue,
		profit:   float64(quantity) * (sellRevenue - buyCost),
	}
}

// bestPick scans every candidate bar's two variants and returns the one
// with the highest profit. Ties across bars resolve to the earliest bar
// in scan order; within a bar the open variant wins only when strictly
// more profitable than the low variant.
func bestPick(bars []types.DayBar, cash float64, sched commission.Schedule) pick {
	best := pick{profit: math.Inf(-1)}

	for i, bar := range bars {
		open := roundTrip(bar, i, types.ActionBuyOpen, bar.Open, bar.High, cash, sched)
		low := roundTrip(bar, i, types.ActionBuyLow, bar.Low, bar.Close, cash, sched)

		candidate := low
		if open.profit > low.profit {
			candidate = open
		}

		if candidate.profit > best.profit {
			best = candidate
		}
	}

	return best
}

// afterDate returns the suffix of bars dated strictly after date. The
// suffix shares backing storage with the input.
func afterDate(bars []types.DayBar, date time.Time) []types.DayBar {
	i := sort.Search(len(bars), func(i int) bool {
		return bars[i].Date.After(date)
	})

	return bars[i:]
}

// correctiveWindow returns a fresh slice of the bars dated on or before
// the chosen pick, excluding the chosen bar itself. Other bars sharing
// the chosen date stay in the window.
func correctiveWindow(bars []types.DayBar, chosen pick) []types.DayBar {
	end := sort.Search(len(bars), func(i int) bool {
		return bars[i].Date.After(chosen.bar.Date)
	})

	window := make([]types.DayBar, 0, end-1)
	window = append(window, bars[:chosen.barIdx]...)
	window = append(window, bars[chosen.barIdx+1:end]...)

	return window
}
