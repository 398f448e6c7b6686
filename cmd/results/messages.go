package main

import (
	"github.com/hindsight-lab/hindsight/internal/report"
	"github.com/hindsight-lab/hindsight/internal/types"
)

// RunLoadedMsg carries a fully loaded run: its summary and move list.
type RunLoadedMsg struct {
	Summary *report.Summary
	Moves   []types.Move
}

// LoadErrorMsg indicates that loading a run's artifacts failed.
type LoadErrorMsg struct {
	Err error
}
