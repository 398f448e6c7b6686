// Package commission converts raw daily prices into effective trade
// prices: buys pay the price inflated by the commission, sells receive
// the price reduced by it.
package commission

// Schedule prices the two sides of a trade.
type Schedule interface {
	// BuyCost returns the effective per-share cost of buying at price.
	BuyCost(price float64) float64
	// SellRevenue returns the effective per-share proceeds of selling at price.
	SellRevenue(price float64) float64
}

// FixedRate charges a flat fraction of traded value on both sides.
type FixedRate struct {
	buyFactor  float64
	sellFactor float64
}

// NewFixedRate builds a Schedule from a proportional commission rate.
// A rate of 0.01 means 1% of traded value each way: buys cost 101% of
// price, sells return 99%.
func NewFixedRate(rate float64) Schedule {
	return &FixedRate{
		buyFactor:  1 + rate,
		sellFactor: 1 - rate,
	}
}

// NewFree returns a Schedule that charges nothing on either side.
func NewFree() Schedule {
	return &FixedRate{
		buyFactor:  1,
		sellFactor: 1,
	}
}

// BuyCost returns price multiplied by the buy-side factor.
func (f *FixedRate) BuyCost(price float64) float64 {
	return price * f.buyFactor
}

// SellRevenue returns price multiplied by the sell-side factor.
func (f *FixedRate) SellRevenue(price float64) float64 {
	return price * f.sellFactor
}
