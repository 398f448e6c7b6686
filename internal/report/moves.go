// Package report renders the artifacts of a finished run: the move list
// file, the balance chart, and the YAML run summary.
package report

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hindsight-lab/hindsight/internal/types"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// WriteMoves serializes the move list: the first line carries the move
// count, each following line one "date action symbol quantity" move.
func WriteMoves(path string, moves []types.Move) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportFailed, "failed to create moves file", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, len(moves))
	for _, move := range moves {
		fmt.Fprintln(w, move.String())
	}

	if err := w.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeReportFailed, "failed to write moves file", err)
	}

	return nil
}

// ReadMoves parses a move list file written by WriteMoves. The count line
// must match the number of moves that follow.
func ReadMoves(path string) ([]types.Move, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeReportFailed, "failed to open moves file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeReportFailed, "failed to read moves file", err)
		}

		return nil, errors.Newf(errors.ErrCodeMalformedMove, "moves file %s is empty", path)
	}

	countLine := strings.TrimSpace(scanner.Text())
	count, err := strconv.Atoi(countLine)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMalformedMove, err, "invalid move count line %q", countLine)
	}
	if count < 0 {
		return nil, errors.Newf(errors.ErrCodeMalformedMove, "negative move count %d", count)
	}

	moves := make([]types.Move, 0, count)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		move, err := types.ParseMoveLine(line)
		if err != nil {
			return nil, err
		}
		moves = append(moves, move)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeReportFailed, "failed to read moves file", err)
	}

	if len(moves) != count {
		return nil, errors.Newf(errors.ErrCodeMalformedMove, "moves file %s declares %d moves but contains %d", path, count, len(moves))
	}

	return moves, nil
}
