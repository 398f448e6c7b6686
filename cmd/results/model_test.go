package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-lab/hindsight/internal/engine"
	"github.com/hindsight-lab/hindsight/internal/report"
	"github.com/hindsight-lab/hindsight/internal/types"
)

// writeRunFixture stores a browsable run (summary + moves file) in dir
// and returns the summary.
func writeRunFixture(t *testing.T, dir string, scenario string) *report.Summary {
	t.Helper()

	moves := []types.Move{
		types.NewMove(time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC), types.ActionBuyLow, "AAPL", 10),
		types.NewMove(time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC), types.ActionSellHigh, "AAPL", 10),
	}

	movesPath := filepath.Join(dir, fmt.Sprintf("%s_moves.txt", scenario))
	require.NoError(t, report.WriteMoves(movesPath, moves))

	summary := &report.Summary{
		RunID:         "fixture-run",
		Timestamp:     time.Now(),
		Scenario:      engine.Scenario(scenario),
		InitialCash:   1000,
		FinalCash:     1180,
		ValidatedCash: 1180,
		Validation:    report.ValidationSuccess,
		MoveCount:     len(moves),
		Ledger:        map[int]float64{2015: 1180},
		MovesFilePath: movesPath,
	}
	require.NoError(t, report.WriteSummary(filepath.Join(dir, scenario+summarySuffix), summary))

	return summary
}

func TestNewModel(t *testing.T) {
	m := NewModel("results", nil)

	assert.Equal(t, StateRunSelect, m.state)
	assert.Equal(t, "results", m.resultsDir)
	assert.Equal(t, TabSummary, m.tab)
	assert.Nil(t, m.summary)
	assert.Empty(t, m.moves)
}

func TestFindRuns(t *testing.T) {
	t.Run("finds summaries and sorts by scenario", func(t *testing.T) {
		dir := t.TempDir()
		writeRunFixture(t, dir, "small")
		writeRunFixture(t, dir, "large")

		runs, err := FindRuns(dir)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "large", runs[0].scenario)
		assert.Equal(t, "small", runs[1].scenario)
	})

	t.Run("ignores unrelated files", func(t *testing.T) {
		dir := t.TempDir()
		writeRunFixture(t, dir, "small")
		require.NoError(t, report.WriteMoves(filepath.Join(dir, "notes.txt"), nil))

		runs, err := FindRuns(dir)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "small", runs[0].scenario)
	})

	t.Run("missing directory is an error", func(t *testing.T) {
		_, err := FindRuns(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}

func TestRunSelection(t *testing.T) {
	dir := t.TempDir()
	writeRunFixture(t, dir, "small")

	runs, err := FindRuns(dir)
	require.NoError(t, err)

	m := NewModel(dir, runs)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	// Wait for the run list to render
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Select Run")) &&
			bytes.Contains(bts, []byte("small"))
	}, teatest.WithDuration(2*time.Second))

	// Open the selected run
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	// The async load lands in the browse view on the summary tab
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Run Results - small")) &&
			bytes.Contains(bts, []byte("fixture-run"))
	}, teatest.WithDuration(2*time.Second))

	err = tm.Quit()
	assert.NoError(t, err)
}

func TestTabSwitching(t *testing.T) {
	dir := t.TempDir()
	summary := writeRunFixture(t, dir, "small")

	m := NewModel(dir, nil)
	m.state = StateBrowse
	m.summary = summary
	m.balanceTable = UpdateBalanceRows(m.balanceTable, summary.Ledger)

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	updated := newModel.(Model)
	assert.Equal(t, TabBalances, updated.tab)

	newModel, _ = updated.Update(tea.KeyMsg{Type: tea.KeyTab})
	updated = newModel.(Model)
	assert.Equal(t, TabMoves, updated.tab)

	// Wraps around past the last tab
	newModel, _ = updated.Update(tea.KeyMsg{Type: tea.KeyTab})
	updated = newModel.(Model)
	assert.Equal(t, TabSummary, updated.tab)

	newModel, _ = updated.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	updated = newModel.(Model)
	assert.Equal(t, TabMoves, updated.tab)
}

func TestStateTransitions(t *testing.T) {
	t.Run("Esc from browse clears the run and returns to run select", func(t *testing.T) {
		dir := t.TempDir()
		summary := writeRunFixture(t, dir, "small")

		m := NewModel(dir, nil)
		m.state = StateBrowse
		m.summary = summary
		m.moves = []types.Move{{Date: "2015-03-02", Action: types.ActionBuyLow, Symbol: "AAPL", Quantity: "10"}}
		m.tab = TabMoves

		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		updated := newModel.(Model)

		assert.Equal(t, StateRunSelect, updated.state)
		assert.Nil(t, updated.summary)
		assert.Empty(t, updated.moves)
		assert.Equal(t, TabSummary, updated.tab)
	})

	t.Run("Esc from error clears the error", func(t *testing.T) {
		m := NewModel(t.TempDir(), nil)
		m.state = StateError
		m.err = fmt.Errorf("broken summary")

		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		updated := newModel.(Model)

		assert.Equal(t, StateRunSelect, updated.state)
		assert.NoError(t, updated.err)
	})

	t.Run("load error moves loading to error state", func(t *testing.T) {
		m := NewModel(t.TempDir(), nil)
		m.state = StateLoading

		newModel, _ := m.Update(LoadErrorMsg{Err: fmt.Errorf("no moves file")})
		updated := newModel.(Model)

		assert.Equal(t, StateError, updated.state)
		assert.Error(t, updated.err)
	})

	t.Run("stale run load outside loading state is dropped", func(t *testing.T) {
		dir := t.TempDir()
		summary := writeRunFixture(t, dir, "small")

		m := NewModel(dir, nil)
		m.state = StateRunSelect

		newModel, _ := m.Update(RunLoadedMsg{Summary: summary})
		updated := newModel.(Model)

		assert.Equal(t, StateRunSelect, updated.state)
		assert.Nil(t, updated.summary)
	})
}

func TestLoadErrorDisplay(t *testing.T) {
	dir := t.TempDir()

	// A summary pointing at a move list that does not exist
	summary := &report.Summary{
		RunID:      "broken-run",
		Scenario:   engine.Scenario("small"),
		Validation: report.ValidationSuccess,
	}
	require.NoError(t, report.WriteSummary(filepath.Join(dir, "small"+summarySuffix), summary))

	runs, err := FindRuns(dir)
	require.NoError(t, err)

	m := NewModel(dir, runs)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("small"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Error:"))
	}, teatest.WithDuration(2*time.Second))

	err = tm.Quit()
	assert.NoError(t, err)
}

func TestQuitBehavior(t *testing.T) {
	t.Run("ctrl+c quits from any state", func(t *testing.T) {
		m := NewModel(t.TempDir(), nil)
		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
	})

	t.Run("q quits from run select", func(t *testing.T) {
		m := NewModel(t.TempDir(), nil)
		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
			return bytes.Contains(bts, []byte("No runs found"))
		}, teatest.WithDuration(2*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

		tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
	})
}

func TestWindowResize(t *testing.T) {
	m := NewModel(t.TempDir(), nil)

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated := newModel.(Model)

	assert.Equal(t, 120, updated.width)
	assert.Equal(t, 40, updated.height)
}

func TestRenderSummary(t *testing.T) {
	summary := &report.Summary{
		RunID:         "abc",
		Scenario:      engine.ScenarioLarge,
		InitialCash:   1000,
		FinalCash:     2500.5,
		ValidatedCash: 2500.5,
		Validation:    report.ValidationSuccess,
		MoveCount:     4,
		Pairs:         report.PairStats{NumberOfPairs: 2, WinningPairs: 2, WinRate: 1.0},
	}

	rendered := RenderSummary(summary)

	assert.Contains(t, rendered, "abc")
	assert.Contains(t, rendered, "2500.50")
	assert.Contains(t, rendered, "success")
	assert.Contains(t, rendered, "100.0%")

	assert.Contains(t, RenderSummary(nil), "No summary loaded")
}

func TestUpdateMoveRows(t *testing.T) {
	moves := []types.Move{
		{Date: "2015-03-02", Action: types.ActionBuyLow, Symbol: "AAPL", Quantity: "10"},
		{Date: "2015-03-02", Action: types.ActionSellHigh, Symbol: "AAPL", Quantity: "10"},
	}

	table := UpdateMoveRows(NewMoveTable(), moves)

	rows := table.Rows()
	assert.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0][0])
	assert.Equal(t, "buy-low", rows[0][2])
	assert.Equal(t, "sell-high", rows[1][2])
}
