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
	"github.com/hindsight-lab/hindsight/internal/logger"
	"github.com/hindsight-lab/hindsight/internal/version"
)

// ingestAction cleans a directory of per-stock text files and persists
// the result as a Parquet store consumable by the backtest command.
func ingestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	dataDir := cmd.String("data")
	if dataDir == "" {
		dataDir = cfg.DataDir
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()

	source := datasource.NewTxtDataSource(dataDir, cfg.CleanOptions(), appLogger)
	defer source.Close()

	data, err := source.Load(ctx, fileProgress())
	if err != nil {
		return err
	}

	writer := datasource.NewStoreWriter(cmd.String("out"), appLogger)
	if err := writer.Initialize(); err != nil {
		return err
	}
	defer writer.Close()

	if err := writer.WriteDataset(data); err != nil {
		return err
	}

	path, err := writer.Finalize()
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d symbols (%d timeline bars) into %s\n",
		len(data.Symbols()), len(data.Timeline()), path)

	return nil
}

// fileProgress renders a progress bar over the stock files being read.
func fileProgress() optional.Option[datasource.ProgressCallback] {
	var bar *progressbar.ProgressBar

	return optional.Some[datasource.ProgressCallback](func(current, total int, name string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Cleaning"),
				progressbar.OptionShowCount())
		}

		bar.Describe(fmt.Sprintf("Cleaning %s", name))

		_ = bar.Set(current)
	})
}

func main() {
	cmd := &cli.Command{
		Name:    "ingest",
		Version: version.GetVersion(),
		Usage:   "Clean raw stock text files into a Parquet bar store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Directory of per-stock text files",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Path of the Parquet store to write",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the YAML run configuration (defaults apply when omitted)",
				Required: false,
			},
		},
		Action: ingestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
