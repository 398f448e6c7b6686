// Package engine orchestrates scenario runs: it partitions the dataset
// timeline into periods, runs a strategy per period with cash carried
// over, and records the end-of-year balances.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/hindsight-lab/hindsight/internal/commission"
	"github.com/hindsight-lab/hindsight/internal/datasource"
	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/internal/strategy"
	"github.com/hindsight-lab/hindsight/internal/types"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// Scenario selects the orchestration policy for a run.
type Scenario string

const (
	// ScenarioSmall partitions the timeline by calendar year and runs
	// the simple greedy strategy once per year.
	ScenarioSmall Scenario = "small"
	// ScenarioLarge partitions the timeline by month and runs the
	// lookback strategy with dynamically computed parameters.
	ScenarioLarge Scenario = "large"
)

// ParseScenario converts a scenario name into a Scenario.
func ParseScenario(name string) (Scenario, error) {
	switch Scenario(name) {
	case ScenarioSmall:
		return ScenarioSmall, nil
	case ScenarioLarge:
		return ScenarioLarge, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnknownScenario, "unknown scenario %q", name)
	}
}

// OnPeriodCallback reports progress after each examined period.
type OnPeriodCallback func(current, total int, period string)

// Result is the outcome of one scenario run.
type Result struct {
	RunID       string
	Scenario    Scenario
	InitialCash float64
	FinalCash   float64
	// Ledger maps each year to the cash balance at its end.
	Ledger map[int]float64
	// Moves is the full move list in execution order.
	Moves []types.Move
}

// Engine runs scenarios over a fixed dataset.
type Engine struct {
	data         *datasource.Dataset
	sched        commission.Schedule
	maxPastPairs float64
	logger       *logger.Logger
}

// NewEngine creates an engine over the given dataset. maxPastPairs is
// the base corrective pair budget for the large scenario; math.Inf(1)
// leaves it unbounded.
func NewEngine(data *datasource.Dataset, sched commission.Schedule, maxPastPairs float64, log *logger.Logger) *Engine {
	return &Engine{
		data:         data,
		sched:        sched,
		maxPastPairs: maxPastPairs,
		logger:       log,
	}
}

// Run executes the scenario with the given starting cash and returns
// the run result. The context cancels the run between periods.
func (e *Engine) Run(ctx context.Context, scenario Scenario, initialCash float64, onPeriod optional.Option[OnPeriodCallback]) (*Result, error) {
	if len(e.data.Timeline()) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "dataset has no usable bars")
	}

	result := &Result{
		RunID:       uuid.New().String(),
		Scenario:    scenario,
		InitialCash: initialCash,
		Ledger:      make(map[int]float64),
	}

	var err error

	switch scenario {
	case ScenarioSmall:
		err = e.runSmall(ctx, initialCash, result, onPeriod)
	case ScenarioLarge:
		err = e.runLarge(ctx, initialCash, result, onPeriod)
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownScenario, "unknown scenario %q", scenario)
	}

	if err != nil {
		return nil, err
	}

	e.logger.Info("run finished",
		zap.String("run_id", result.RunID),
		zap.String("scenario", string(scenario)),
		zap.Int("moves", len(result.Moves)),
		zap.Float64("final_cash", result.FinalCash))

	return result, nil
}

// runSmall applies the greedy strategy year by year. Cash compounds
// across years while each year's move list starts fresh.
func (e *Engine) runSmall(ctx context.Context, cash float64, result *Result, onPeriod optional.Option[OnPeriodCallback]) error {
	years := e.data.Years()
	greedy := strategy.NewGreedy(e.sched)

	for i, year := range years {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.logger.Info("processing year", zap.Int("year", year), zap.Float64("cash", cash))

		var moves []types.Move

		cash, moves = greedy.Run(e.data.BarsInYear(year), cash)
		result.Ledger[year] = cash
		result.Moves = append(result.Moves, moves...)

		reportPeriod(onPeriod, i+1, len(years), strconv.Itoa(year))
	}

	result.FinalCash = cash

	return nil
}

// runLarge applies the lookback strategy month by month with the pair
// budget and profit threshold recomputed for every month. The month set
// is the distinct months seen anywhere in the data; combinations with
// no bars are skipped without touching cash. Yearly balances are
// recorded once the year's last month is done.
func (e *Engine) runLarge(ctx context.Context, cash float64, result *Result, onPeriod optional.Option[OnPeriodCallback]) error {
	years := e.data.Years()
	months := e.data.Months()
	lastYear := years[len(years)-1]

	total := len(years) * len(months)
	current := 0

	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.logger.Info("processing year", zap.Int("year", year), zap.Float64("cash", cash))

		for _, month := range months {
			current++

			bars := e.data.BarsInMonth(year, month)
			if len(bars) == 0 {
				reportPeriod(onPeriod, current, total, periodName(year, month))
				continue
			}

			lookback := strategy.NewLookback(
				e.sched,
				dynamicMaxPairs(e.maxPastPairs, year, lastYear),
				dynamicMinProfit(cash),
			)

			var moves []types.Move

			cash, moves = lookback.Run(bars, cash)
			result.Moves = append(result.Moves, moves...)

			reportPeriod(onPeriod, current, total, periodName(year, month))
		}

		result.Ledger[year] = cash
	}

	result.FinalCash = cash

	return nil
}

func reportPeriod(onPeriod optional.Option[OnPeriodCallback], current, total int, period string) {
	if onPeriod.IsSome() {
		onPeriod.Unwrap()(current, total, period)
	}
}

func periodName(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}
