package engine

import "math"

// dynamicMinProfit computes the admission threshold for corrective
// trades from the cash on hand. Small accounts take any positive
// profit; mid-sized accounts demand 1% of cash; past ten million the
// bar flattens at 100k. The coarsening keeps the lookback search from
// drowning in negligible trades as capital grows.
func dynamicMinProfit(cash float64) float64 {
	if cash < 1e3 {
		return math.Inf(-1)
	}

	if cash <= 1e7 {
		return cash / 100
	}

	return 1e5
}

// dynamicMaxPairs scales the base corrective pair budget by how close
// the year is to the end of the dataset: corrective latitude is cheap
// once little future remains. An unbounded base stays unbounded. The
// result is truncated to a whole number of pairs.
func dynamicMaxPairs(base float64, year, lastYear int) float64 {
	if math.IsInf(base, 1) {
		return math.Inf(1)
	}

	remaining := float64(lastYear - year)

	if remaining >= 40 {
		return math.Trunc(base * (1 + 20000/((remaining+1)*(remaining+1))))
	}

	return math.Trunc(base * (1 + 15000/(remaining+1)))
}
