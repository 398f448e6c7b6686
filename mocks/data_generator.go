package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/hindsight-lab/hindsight/internal/types"
)

// DataGenerator generates realistic daily market data for testing and
// benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how daily bars are generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol (e.g., "AAPL", "SPY")
	Symbol string
	// StartDate is the first trading day of the series
	StartDate time.Time
	// Count is the number of trading days to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.02 = 2% typical daily volatility)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per day
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
	// VolumeFraction caps a single trade at this share of a day's volume
	VolumeFraction float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartDate:      time.Date(2010, 1, 4, 0, 0, 0, 0, time.UTC),
		Count:          252, // one trading year
		InitialPrice:   100.0,
		Volatility:     0.02,
		Trend:          0.0,
		VolumeBase:     100000,
		VolumeVariance: 0.3,
		VolumeFraction: 0.1,
	}
}

// Generate creates a slice of daily bars based on the configuration.
// Prices follow a geometric Brownian motion model and dates advance over
// weekdays only. MaxQuantity and Range are derived the way the cleaning
// pipeline derives them, so generated bars slot directly into datasets.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.DayBar {
	bars := make([]types.DayBar, config.Count)
	currentPrice := config.InitialPrice
	currentDate := skipWeekend(config.StartDate)

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for normally distributed daily returns
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99 // Prevent negative prices
		}

		// High and low extend past the open-close range
		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		open4 := roundToDecimals(open, 4)
		close4 := roundToDecimals(close, 4)

		high := roundToDecimals(math.Max(open, close)+highExtension, 4)
		if high < math.Max(open4, close4) {
			high = math.Max(open4, close4)
		}

		low := roundToDecimals(math.Min(open, close)-lowExtension, 4)
		if low <= 0 || low > math.Min(open4, close4) {
			low = math.Min(open4, close4)
		}

		// Volume with variance, whole shares
		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := math.Round(config.VolumeBase * volumeVariation)
		if volume < 1 {
			volume = math.Round(config.VolumeBase * 0.1)
		}

		bars[i] = types.DayBar{
			Symbol:      config.Symbol,
			Date:        currentDate,
			Open:        open4,
			High:        high,
			Low:         low,
			Close:       close4,
			Volume:      volume,
			MaxQuantity: int64(config.VolumeFraction * volume),
			Range:       high - low,
		}

		// Update for next iteration
		currentPrice = close
		currentDate = skipWeekend(currentDate.AddDate(0, 0, 1))
	}

	return bars
}

// GenerateMultiSymbol generates bars for multiple symbols, varying the
// initial price and volatility slightly per symbol.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) map[string][]types.DayBar {
	allData := make(map[string][]types.DayBar, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		allData[symbol] = g.Generate(config)
	}

	return allData
}

// skipWeekend advances a date falling on a weekend to the next Monday.
func skipWeekend(date time.Time) time.Time {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}

	return date
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
