package datasource

import (
	"sort"
	"time"

	"github.com/hindsight-lab/hindsight/internal/types"
)

// Dataset is the immutable cleaned view of a market data set. The
// timeline holds every symbol's post-outlier bars merged and sorted by
// date (stable, so same-day bars keep source order) and is what the
// strategies scan. The per-symbol series keep the pre-outlier superset:
// the replay validator resolves bars against what historically existed,
// not against what outlier pruning left for the strategies.
type Dataset struct {
	timeline []types.DayBar
	series   map[string][]types.DayBar
	index    map[string]map[string]types.DayBar
	symbols  []string
	years    []int
	months   []time.Month
}

// NewDataset assembles a Dataset from per-symbol cleaning output. The
// order of series fixes the tie order of same-day bars in the timeline.
func NewDataset(series []CleanedSeries) *Dataset {
	timeline := make([]types.DayBar, 0)
	symbols := make([]string, 0, len(series))
	bySymbol := make(map[string][]types.DayBar, len(series))

	for _, s := range series {
		symbols = append(symbols, s.Symbol)
		bySymbol[s.Symbol] = s.Bars
		timeline = append(timeline, s.Timeline...)
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Date.Before(timeline[j].Date)
	})

	return newDatasetFromParts(timeline, bySymbol, symbols)
}

// newDatasetFromParts wires a Dataset from an already ordered timeline,
// used when the store read-back supplies its own persisted ordering.
func newDatasetFromParts(timeline []types.DayBar, series map[string][]types.DayBar, symbols []string) *Dataset {
	index := make(map[string]map[string]types.DayBar, len(series))

	for symbol, bars := range series {
		byDate := make(map[string]types.DayBar, len(bars))
		for _, b := range bars {
			byDate[b.DateKey()] = b
		}

		index[symbol] = byDate
	}

	yearSet := make(map[int]struct{})
	monthSet := make(map[time.Month]struct{})

	for _, b := range timeline {
		yearSet[b.Year()] = struct{}{}
		monthSet[b.Month()] = struct{}{}
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}

	sort.Ints(years)

	months := make([]time.Month, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}

	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	return &Dataset{
		timeline: timeline,
		series:   series,
		index:    index,
		symbols:  symbols,
		years:    years,
		months:   months,
	}
}

// Timeline returns the merged post-outlier bar sequence, date ascending.
// Callers must not mutate it.
func (d *Dataset) Timeline() []types.DayBar {
	return d.timeline
}

// Series returns one symbol's pre-outlier bars in source order.
func (d *Dataset) Series(symbol string) []types.DayBar {
	return d.series[symbol]
}

// Symbols returns the usable symbols in source order.
func (d *Dataset) Symbols() []string {
	return d.symbols
}

// Lookup resolves a bar by symbol and exact date against the pre-outlier
// view.
func (d *Dataset) Lookup(symbol string, date time.Time) (types.DayBar, bool) {
	byDate, ok := d.index[symbol]
	if !ok {
		return types.DayBar{}, false
	}

	bar, ok := byDate[date.Format(types.DateLayout)]

	return bar, ok
}

// Years returns the ascending calendar years present in the timeline.
func (d *Dataset) Years() []int {
	return d.years
}

// Months returns the ascending calendar months present anywhere in the
// timeline, across all years.
func (d *Dataset) Months() []time.Month {
	return d.months
}

// BarsInYear returns the timeline slice for one calendar year.
func (d *Dataset) BarsInYear(year int) []types.DayBar {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	return d.timelineBetween(start, end)
}

// BarsInMonth returns the timeline slice for one calendar month.
func (d *Dataset) BarsInMonth(year int, month time.Month) []types.DayBar {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	return d.timelineBetween(start, end)
}

// timelineBetween returns the contiguous timeline window with
// start <= date < end. The timeline is date sorted, so both bounds
// binary-search.
func (d *Dataset) timelineBetween(start, end time.Time) []types.DayBar {
	lo := sort.Search(len(d.timeline), func(i int) bool {
		return !d.timeline[i].Date.Before(start)
	})
	hi := sort.Search(len(d.timeline), func(i int) bool {
		return !d.timeline[i].Date.Before(end)
	})

	return d.timeline[lo:hi]
}
