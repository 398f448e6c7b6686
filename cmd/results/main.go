package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/hindsight-lab/hindsight/internal/version"
)

// resultsAction scans the results directory and opens the run browser.
func resultsAction(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")

	runs, err := FindRuns(dir)
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewModel(dir, runs), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run results browser: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "results",
		Version: version.GetVersion(),
		Usage:   "Browse stored backtest runs in a terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Directory holding run artifacts",
				Value:    "results",
				Required: false,
			},
		},
		Action: resultsAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
