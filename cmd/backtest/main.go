package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/hindsight-lab/hindsight/internal/config"
	"github.com/hindsight-lab/hindsight/internal/datasource"
	"github.com/hindsight-lab/hindsight/internal/engine"
	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/internal/report"
	"github.com/hindsight-lab/hindsight/internal/validator"
	"github.com/hindsight-lab/hindsight/internal/version"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// backtestAction runs one scenario end to end: load the dataset,
// simulate, replay the move list against the raw series, and write the
// run artifacts (moves file, balance chart, summary, Parquet state).
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	if cmd.IsSet("initial-cash") {
		cfg.InitialCash = cmd.Float("initial-cash")
	}

	if cmd.IsSet("results") {
		cfg.ResultsDir = cmd.String("results")
	}

	dataPath := cmd.String("data")
	if dataPath == "" {
		dataPath = cfg.DataDir
	}

	scenario, err := engine.ParseScenario(cmd.String("scenario"))
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()

	source, err := openBarSource(dataPath, cfg, appLogger)
	if err != nil {
		return err
	}
	defer source.Close()

	data, err := source.Load(ctx, loadProgress())
	if err != nil {
		return err
	}

	eng := engine.NewEngine(data, cfg.Schedule(), cfg.PairBudget(), appLogger)

	result, err := eng.Run(ctx, scenario, cfg.InitialCash, periodProgress())
	if err != nil {
		return err
	}

	replayer := validator.NewReplayer(data, cfg.Schedule(), appLogger)
	replayed, replayErr := replayer.Replay(cfg.InitialCash, result.Moves)

	summary, err := report.NewSummary(result, replayed, replayErr, data, cfg.Schedule())
	if err != nil {
		return err
	}

	if err := writeArtifacts(cfg, result, summary, appLogger); err != nil {
		return err
	}

	printSummary(summary)

	if !summary.Validated() {
		return cli.Exit("replay validation failed", 1)
	}

	return nil
}

// openBarSource picks the dataset source for the given path: a
// directory of per-stock text files, or a cleaned Parquet store.
func openBarSource(path string, cfg *config.Config, appLogger *logger.Logger) (datasource.BarSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "data path %s is not readable", path)
	}

	if info.IsDir() {
		return datasource.NewTxtDataSource(path, cfg.CleanOptions(), appLogger), nil
	}

	source, err := datasource.NewDuckDBBarSource(appLogger)
	if err != nil {
		return nil, err
	}

	if err := source.Initialize(path); err != nil {
		_ = source.Close()

		return nil, err
	}

	return source, nil
}

// loadProgress renders a progress bar while the dataset loads.
func loadProgress() optional.Option[datasource.ProgressCallback] {
	var bar *progressbar.ProgressBar

	return optional.Some[datasource.ProgressCallback](func(current, total int, name string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Loading dataset"),
				progressbar.OptionShowCount())
		}

		bar.Describe(fmt.Sprintf("Loading %s", name))

		_ = bar.Set(current)
	})
}

// periodProgress renders a progress bar over simulated periods.
func periodProgress() optional.Option[engine.OnPeriodCallback] {
	var bar *progressbar.ProgressBar

	return optional.Some[engine.OnPeriodCallback](func(current, total int, period string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Simulating"),
				progressbar.OptionShowCount())
		}

		bar.Describe(fmt.Sprintf("Simulating %s", period))

		_ = bar.Set(current)
	})
}

// writeArtifacts persists the run: moves file, balance chart, summary
// YAML, and the DuckDB-backed move/balance tables as Parquet.
func writeArtifacts(cfg *config.Config, result *engine.Result, summary *report.Summary, appLogger *logger.Logger) error {
	if err := os.MkdirAll(cfg.ResultsDir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeReportFailed, "failed to create results directory", err)
	}

	scenario := string(result.Scenario)

	movesPath := cfg.MovesFile(scenario)
	if err := report.WriteMoves(movesPath, result.Moves); err != nil {
		return err
	}

	chartPath := cfg.ChartFile(scenario)
	if err := report.WriteBalanceChart(chartPath, result.Ledger, scenario); err != nil {
		return err
	}

	summary.MovesFilePath = movesPath
	summary.ChartFilePath = chartPath

	if err := report.WriteSummary(cfg.SummaryFile(scenario), summary); err != nil {
		return err
	}

	state := engine.NewRunState(appLogger)
	if err := state.Initialize(); err != nil {
		return err
	}
	defer state.Close()

	if err := state.RecordResult(result); err != nil {
		return err
	}

	return state.Write(cfg.ResultsDir)
}

func printSummary(summary *report.Summary) {
	fmt.Println()
	fmt.Printf("Run %s (%s scenario)\n", summary.RunID, summary.Scenario)
	fmt.Printf("  Initial cash:    %.2f\n", summary.InitialCash)
	fmt.Printf("  Final cash:      %.2f\n", summary.FinalCash)
	fmt.Printf("  Replayed cash:   %.2f\n", summary.ValidatedCash)
	fmt.Printf("  Moves:           %d\n", summary.MoveCount)
	fmt.Printf("  Pairs:           %d (win rate %.1f%%)\n", summary.Pairs.NumberOfPairs, summary.Pairs.WinRate*100)
	fmt.Printf("  Validation:      %s\n", summary.Validation)

	if summary.ValidationError != "" {
		fmt.Printf("  Validator error: %s\n", summary.ValidationError)
	}

	fmt.Printf("  Moves file:      %s\n", summary.MovesFilePath)
	fmt.Printf("  Balance chart:   %s\n", summary.ChartFilePath)
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Version: version.GetVersion(),
		Usage:   "Run a perfect-hindsight trading scenario over historical daily bars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "scenario",
				Aliases:  []string{"s"},
				Usage:    fmt.Sprintf("Scenario to run (%s or %s)", engine.ScenarioSmall, engine.ScenarioLarge),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the YAML run configuration (defaults apply when omitted)",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Directory of per-stock text files, or a cleaned Parquet store",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "results",
				Aliases:  []string{"r"},
				Usage:    "Directory where run artifacts are written",
				Required: false,
			},
			&cli.FloatFlag{
				Name:     "initial-cash",
				Usage:    "Starting cash, overriding the configured value",
				Required: false,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
