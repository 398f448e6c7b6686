package datasource

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/internal/types"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// RawBar is one uncleaned OHLCV row as parsed from a source file or
// downloaded from a provider, before any filtering.
type RawBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CleanOptions are the cleaning thresholds. See config.Config for the
// run-level defaults.
type CleanOptions struct {
	// ZeroValueThreshold is the maximum tolerated fraction of rows with a
	// zero price or volume before the whole symbol is rejected.
	ZeroValueThreshold float64
	// OutlierStdDevs is the multiple of the range standard deviation
	// beyond which a day is excluded from the strategy timeline.
	OutlierStdDevs float64
	// VolumeFraction caps a single trade at this fraction of the day's
	// volume.
	VolumeFraction float64
}

// CleanedSeries is one symbol's cleaning output. Bars is every surviving
// row and is what the replay validator sees; Timeline is Bars minus
// range outliers and is what the strategies see.
type CleanedSeries struct {
	Symbol   string
	Bars     []types.DayBar
	Timeline []types.DayBar
}

// CleanSeries applies the cleaning rules to one symbol's raw rows, in
// order: reject the symbol when too many rows carry zero values, drop
// non-positive rows, drop rows whose OHLC ordering is impossible,
// annotate max quantity and range, and finally split off a timeline with
// abnormal-range days removed. Returns ErrCodeNoUsableData when the
// symbol as a whole must be skipped.
func CleanSeries(symbol string, raw []RawBar, opts CleanOptions, log *logger.Logger) (CleanedSeries, error) {
	if len(raw) == 0 {
		return CleanedSeries{}, errors.Newf(errors.ErrCodeNoUsableData, "symbol %s has no rows", symbol)
	}

	zeroRows := 0

	for _, r := range raw {
		if r.Low == 0 || r.High == 0 || r.Open == 0 || r.Close == 0 || r.Volume == 0 {
			zeroRows++
		}
	}

	zeroRatio := float64(zeroRows) / float64(len(raw))
	if zeroRatio > opts.ZeroValueThreshold {
		return CleanedSeries{}, errors.Newf(errors.ErrCodeNoUsableData,
			"symbol %s has %.2f%% days with zero values", symbol, zeroRatio*100)
	}

	positive := make([]RawBar, 0, len(raw))

	for _, r := range raw {
		if r.Low > 0 && r.High > 0 && r.Open > 0 && r.Close > 0 && r.Volume > 0 {
			positive = append(positive, r)
		}
	}

	if len(positive) == 0 {
		return CleanedSeries{}, errors.Newf(errors.ErrCodeNoUsableData, "symbol %s has no positive rows", symbol)
	}

	bars := make([]types.DayBar, 0, len(positive))

	for _, r := range positive {
		if r.Low > math.Min(r.Open, math.Min(r.Close, r.High)) {
			continue
		}

		if r.High < math.Max(r.Open, math.Max(r.Close, r.Low)) {
			continue
		}

		bars = append(bars, types.DayBar{
			Symbol:      symbol,
			Date:        r.Date,
			Open:        r.Open,
			High:        r.High,
			Low:         r.Low,
			Close:       r.Close,
			Volume:      r.Volume,
			MaxQuantity: int64(opts.VolumeFraction * r.Volume),
			Range:       r.High - r.Low,
		})
	}

	if illogical := len(positive) - len(bars); illogical > 0 {
		log.Warn("removing rows with illogical prices",
			zap.String("symbol", symbol),
			zap.Int("rows", illogical))
	}

	if len(bars) == 0 {
		return CleanedSeries{}, errors.Newf(errors.ErrCodeNoUsableData,
			"symbol %s has no valid rows after filtering", symbol)
	}

	return CleanedSeries{
		Symbol:   symbol,
		Bars:     bars,
		Timeline: pruneRangeOutliers(bars, opts.OutlierStdDevs),
	}, nil
}

// pruneRangeOutliers keeps bars whose daily range lies within stdDevs
// sample standard deviations of the symbol's mean range. The lower bound
// is clamped at zero. A single-bar series has no defined deviation and
// yields an empty timeline: a NaN bound fails every comparison.
func pruneRangeOutliers(bars []types.DayBar, stdDevs float64) []types.DayBar {
	mean := 0.0
	for _, b := range bars {
		mean += b.Range
	}

	mean /= float64(len(bars))

	variance := math.NaN()

	if len(bars) > 1 {
		sum := 0.0
		for _, b := range bars {
			d := b.Range - mean
			sum += d * d
		}

		variance = sum / float64(len(bars)-1)
	}

	std := math.Sqrt(variance)
	upper := mean + stdDevs*std
	lower := mean - stdDevs*std

	if lower < 0 {
		lower = 0
	}

	timeline := make([]types.DayBar, 0, len(bars))

	for _, b := range bars {
		if b.Range >= lower && b.Range <= upper {
			timeline = append(timeline, b)
		}
	}

	return timeline
}
