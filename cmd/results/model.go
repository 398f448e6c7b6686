package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hindsight-lab/hindsight/internal/report"
	"github.com/hindsight-lab/hindsight/internal/types"
	"github.com/hindsight-lab/hindsight/pkg/errors"
)

// Application states.
const (
	StateRunSelect = iota
	StateLoading
	StateBrowse
	StateError
)

const summarySuffix = "_summary.yaml"

// Model is the main Bubble Tea model for the results browser.
type Model struct {
	state        int
	resultsDir   string
	runList      list.Model
	spinner      spinner.Model
	balanceTable table.Model
	moveTable    table.Model
	summary      *report.Summary
	moves        []types.Move
	loading      string
	tab          int
	err          error
	width        int
	height       int
}

// NewModel creates a new Model listing the given runs.
func NewModel(resultsDir string, runs []runItem) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		state:        StateRunSelect,
		resultsDir:   resultsDir,
		runList:      NewRunList(runs),
		spinner:      sp,
		balanceTable: NewBalanceTable(),
		moveTable:    NewMoveTable(),
	}
}

// FindRuns scans a results directory for run summaries. The scenario is
// the summary filename with the suffix stripped; artifacts load lazily
// when the run is opened.
func FindRuns(dir string) ([]runItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "results directory %s is not readable", dir)
	}

	runs := make([]runItem, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, summarySuffix) {
			continue
		}

		runs = append(runs, runItem{
			scenario:    strings.TrimSuffix(name, summarySuffix),
			summaryPath: filepath.Join(dir, name),
			description: filepath.Join(dir, name),
		})
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].scenario < runs[j].scenario })

	return runs, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.runList.SetSize(msg.Width, msg.Height-4)
		m.balanceTable.SetWidth(msg.Width)
		m.balanceTable.SetHeight(msg.Height - 8)
		m.moveTable.SetWidth(msg.Width)
		m.moveTable.SetHeight(msg.Height - 8)

		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case RunLoadedMsg:
		// Stale loads (Esc already left the loading state) are dropped.
		if m.state != StateLoading {
			return m, nil
		}

		m.summary = msg.Summary
		m.moves = msg.Moves
		m.balanceTable = UpdateBalanceRows(m.balanceTable, msg.Summary.Ledger)
		m.moveTable = UpdateMoveRows(m.moveTable, msg.Moves)
		m.tab = TabSummary
		m.state = StateBrowse

		return m, nil

	case LoadErrorMsg:
		if m.state != StateLoading {
			return m, nil
		}

		m.err = msg.Err
		m.state = StateError

		return m, nil
	}

	// Delegate to state-specific update
	switch m.state {
	case StateRunSelect:
		return m.updateRunSelect(msg)
	case StateBrowse:
		return m.updateBrowse(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateLoading, StateBrowse, StateError:
		m.summary = nil
		m.moves = nil
		m.err = nil
		m.loading = ""
		m.tab = TabSummary
		m.state = StateRunSelect
	}

	return m, nil
}

func (m Model) updateRunSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := m.runList.SelectedItem().(runItem); ok {
				m.loading = item.scenario
				m.state = StateLoading

				return m, tea.Batch(m.spinner.Tick, m.loadRun(item))
			}
		}
	}

	var cmd tea.Cmd
	m.runList, cmd = m.runList.Update(msg)

	return m, cmd
}

func (m Model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "right":
			m.tab = (m.tab + 1) % len(tabNames)
			return m, nil
		case "shift+tab", "left":
			m.tab = (m.tab + len(tabNames) - 1) % len(tabNames)
			return m, nil
		}
	}

	var cmd tea.Cmd

	switch m.tab {
	case TabBalances:
		m.balanceTable, cmd = m.balanceTable.Update(msg)
	case TabMoves:
		m.moveTable, cmd = m.moveTable.Update(msg)
	}

	return m, cmd
}

// loadRun returns a command that loads a run's summary and move list.
func (m Model) loadRun(item runItem) tea.Cmd {
	resultsDir := m.resultsDir

	return func() tea.Msg {
		summary, err := report.ReadSummary(item.summaryPath)
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		moves, err := readRunMoves(resultsDir, item.scenario, summary)
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		return RunLoadedMsg{Summary: summary, Moves: moves}
	}
}

// readRunMoves loads the run's move list, preferring the path recorded in
// the summary and falling back to the conventional name in the results
// directory when the recorded path does not resolve.
func readRunMoves(resultsDir, scenario string, summary *report.Summary) ([]types.Move, error) {
	if summary.MovesFilePath != "" {
		if moves, err := report.ReadMoves(summary.MovesFilePath); err == nil {
			return moves, nil
		}
	}

	return report.ReadMoves(filepath.Join(resultsDir, fmt.Sprintf("%s_moves.txt", scenario)))
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateRunSelect:
		s.WriteString(TitleStyle.Render("Hindsight - Run Results"))
		s.WriteString("\n\n")

		if len(m.runList.Items()) == 0 {
			s.WriteString(fmt.Sprintf("No runs found in %s.\n", m.resultsDir))
		} else {
			s.WriteString(m.runList.View())
			s.WriteString("\n")
		}

		s.WriteString(HelpStyle.Render("Press Enter to open a run, q to quit"))

	case StateLoading:
		s.WriteString(TitleStyle.Render("Hindsight - Run Results"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("%s Loading %s...", m.spinner.View(), m.loading))
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Esc: back"))

	case StateBrowse:
		scenario := ""
		if m.summary != nil {
			scenario = string(m.summary.Scenario)
		}

		s.WriteString(TitleStyle.Render(fmt.Sprintf("Run Results - %s", scenario)))
		s.WriteString("\n\n")
		s.WriteString(RenderTabs(m.tab))
		s.WriteString("\n\n")

		switch m.tab {
		case TabSummary:
			s.WriteString(RenderSummary(m.summary))
		case TabBalances:
			s.WriteString(m.balanceTable.View())
			s.WriteString("\n")
		case TabMoves:
			s.WriteString(m.moveTable.View())
			s.WriteString("\n")
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Tab: switch view | Esc: back | q: quit"))

	case StateError:
		s.WriteString(TitleStyle.Render("Hindsight - Run Results"))
		s.WriteString("\n\n")
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Esc: back | q: quit"))
	}

	return s.String()
}
