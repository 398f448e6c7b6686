package report

import (
	"math"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hindsight-lab/hindsight/internal/commission"
	"github.com/hindsight-lab/hindsight/internal/engine"
	"github.com/hindsight-lab/hindsight/internal/types"
	"github.com/hindsight-lab/hindsight/internal/validator"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// ValidationTolerance is the maximum absolute difference between the
// strategy's final cash and the replayed balance for a run to count as
// validated.
const ValidationTolerance = 0.01

// ValidationStatus is the outcome of replaying a run's move list.
type ValidationStatus string

const (
	ValidationSuccess ValidationStatus = "success"
	ValidationFailure ValidationStatus = "failure"
)

// BarLookup resolves a symbol and date to its cleaned daily bar.
type BarLookup interface {
	Lookup(symbol string, date time.Time) (types.DayBar, bool)
}

// PairStats aggregates profit and loss across the buy/sell pairs of a
// move list.
type PairStats struct {
	// Count of buy/sell pairs.
	NumberOfPairs int `yaml:"number_of_pairs"`
	// Count of pairs with positive PnL.
	WinningPairs int `yaml:"winning_pairs"`
	// Count of pairs with negative PnL.
	LosingPairs int `yaml:"losing_pairs"`
	// Win rate over all pairs.
	WinRate float64 `yaml:"win_rate"`
	// Sum of all pair PnLs.
	RealizedPnL float64 `yaml:"realized_pnl"`
	// Highest single-pair PnL.
	BestPairPnL float64 `yaml:"best_pair_pnl"`
	// Lowest single-pair PnL.
	WorstPairPnL float64 `yaml:"worst_pair_pnl"`
}

// Summary is the YAML face of a finished run.
type Summary struct {
	// RunID is the unique identifier of the run.
	RunID string `yaml:"run_id"`
	// Timestamp is when the summary was assembled.
	Timestamp time.Time `yaml:"timestamp"`
	// Scenario that produced the run.
	Scenario engine.Scenario `yaml:"scenario"`
	// InitialCash the run started from.
	InitialCash float64 `yaml:"initial_cash"`
	// FinalCash the strategy arrived at.
	FinalCash float64 `yaml:"final_cash"`
	// ValidatedCash is the balance the replay validator arrived at,
	// validator.FailedBalance when the replay failed.
	ValidatedCash float64 `yaml:"validated_cash"`
	// Validation compares FinalCash against ValidatedCash within
	// ValidationTolerance.
	Validation ValidationStatus `yaml:"validation"`
	// ValidationError carries the replay error, if any.
	ValidationError string `yaml:"validation_error,omitempty"`
	// MoveCount is the number of legs in the move list.
	MoveCount int `yaml:"move_count"`
	// Pairs holds per-pair PnL statistics.
	Pairs PairStats `yaml:"pairs"`
	// Ledger is the end-of-year balance per simulated year.
	Ledger map[int]float64 `yaml:"ledger"`
	// MovesFilePath is the path to the serialized move list.
	MovesFilePath string `yaml:"moves_file_path,omitempty"`
	// ChartFilePath is the path to the balance chart.
	ChartFilePath string `yaml:"chart_file_path,omitempty"`
}

// NewSummary assembles the report of a finished run from the engine
// result and the replay outcome.
func NewSummary(result *engine.Result, replayed float64, replayErr error, data BarLookup, sched commission.Schedule) (*Summary, error) {
	pairs, err := ComputePairStats(result.Moves, data, sched)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:         result.RunID,
		Timestamp:     time.Now(),
		Scenario:      result.Scenario,
		InitialCash:   result.InitialCash,
		FinalCash:     result.FinalCash,
		ValidatedCash: replayed,
		Validation:    validationStatus(result.FinalCash, replayed, replayErr),
		MoveCount:     len(result.Moves),
		Pairs:         pairs,
		Ledger:        result.Ledger,
	}
	if replayErr != nil {
		summary.ValidationError = replayErr.Error()
	}

	return summary, nil
}

// Validated reports whether the replay confirmed the run.
func (s *Summary) Validated() bool {
	return s.Validation == ValidationSuccess
}

func validationStatus(finalCash, replayed float64, replayErr error) ValidationStatus {
	if replayErr != nil || replayed == validator.FailedBalance {
		return ValidationFailure
	}
	if math.Abs(finalCash-replayed) < ValidationTolerance {
		return ValidationSuccess
	}

	return ValidationFailure
}

// ComputePairStats walks the move list two legs at a time and prices
// each buy/sell pair against its bars. Effective prices include
// commission on both sides.
func ComputePairStats(moves []types.Move, data BarLookup, sched commission.Schedule) (PairStats, error) {
	if len(moves)%2 != 0 {
		return PairStats{}, errors.Newf(errors.ErrCodeMalformedMove, "move list has %d legs, expected buy/sell pairs", len(moves))
	}

	var stats PairStats
	realized := decimal.Zero
	best := decimal.Zero
	worst := decimal.Zero
	for i := 0; i+1 < len(moves); i += 2 {
		buy, sell := moves[i], moves[i+1]
		if !buy.Action.IsBuy() || !sell.Action.IsSell() {
			return PairStats{}, errors.Newf(errors.ErrCodeMalformedMove, "legs %d and %d do not form a buy/sell pair", i, i+1)
		}

		entry, err := legValue(buy, data, sched)
		if err != nil {
			return PairStats{}, err
		}
		exit, err := legValue(sell, data, sched)
		if err != nil {
			return PairStats{}, err
		}

		pnl := exit.Sub(entry)
		realized = realized.Add(pnl)
		switch {
		case pnl.GreaterThan(decimal.Zero):
			stats.WinningPairs++
		case pnl.LessThan(decimal.Zero):
			stats.LosingPairs++
		}
		if stats.NumberOfPairs == 0 || pnl.GreaterThan(best) {
			best = pnl
		}
		if stats.NumberOfPairs == 0 || pnl.LessThan(worst) {
			worst = pnl
		}
		stats.NumberOfPairs++
	}

	if stats.NumberOfPairs > 0 {
		stats.WinRate = float64(stats.WinningPairs) / float64(stats.NumberOfPairs)
	}
	stats.RealizedPnL, _ = realized.Float64()
	stats.BestPairPnL, _ = best.Float64()
	stats.WorstPairPnL, _ = worst.Float64()

	return stats, nil
}

// legValue prices one leg: quantity times the commission-adjusted price
// the action executes at.
func legValue(move types.Move, data BarLookup, sched commission.Schedule) (decimal.Decimal, error) {
	date, err := time.Parse(types.DateLayout, move.Date)
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodeMalformedMove, err, "invalid date %q", move.Date)
	}

	quantity, err := strconv.ParseInt(move.Quantity, 10, 64)
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodeMalformedMove, err, "invalid quantity %q", move.Quantity)
	}

	bar, ok := data.Lookup(move.Symbol, date)
	if !ok {
		return decimal.Zero, errors.Newf(errors.ErrCodeBarNotFound, "no bar for %s on %s", move.Symbol, move.Date)
	}

	var price float64
	switch move.Action {
	case types.ActionBuyOpen:
		price = sched.BuyCost(bar.Open)
	case types.ActionBuyLow:
		price = sched.BuyCost(bar.Low)
	case types.ActionSellHigh:
		price = sched.SellRevenue(bar.High)
	case types.ActionSellClose:
		price = sched.SellRevenue(bar.Close)
	default:
		return decimal.Zero, errors.Newf(errors.ErrCodeMalformedMove, "unknown action %q", move.Action)
	}

	return decimal.NewFromFloat(float64(quantity)).Mul(decimal.NewFromFloat(price)), nil
}

// WriteSummary writes the summary to path as YAML.
func WriteSummary(path string, summary *Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportFailed, "failed to marshal run summary", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeReportFailed, "failed to write run summary", err)
	}

	return nil
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeReportFailed, "failed to read run summary", err)
	}

	var summary Summary
	if err := yaml.Unmarshal(data, &summary); err != nil {
		return nil, errors.Wrap(errors.ErrCodeReportFailed, "failed to parse run summary", err)
	}

	return &summary, nil
}
