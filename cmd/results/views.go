package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/hindsight-lab/hindsight/internal/report"
	"github.com/hindsight-lab/hindsight/internal/types"
)

// Browse tabs.
const (
	TabSummary = iota
	TabBalances
	TabMoves
)

var tabNames = []string{"Summary", "Balances", "Moves"}

// runItem implements list.Item for the run selection list.
type runItem struct {
	scenario    string
	summaryPath string
	description string
}

func (i runItem) Title() string       { return i.scenario }
func (i runItem) Description() string { return i.description }
func (i runItem) FilterValue() string { return i.scenario }

// NewRunList creates the run selection list.
func NewRunList(runs []runItem) list.Model {
	items := make([]list.Item, 0, len(runs))
	for _, r := range runs {
		items = append(items, r)
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select Run"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// NewBalanceTable creates the yearly balance table.
func NewBalanceTable() table.Model {
	columns := []table.Column{
		{Title: "Year", Width: 8},
		{Title: "Balance", Width: 24},
	}

	return newResultsTable(columns)
}

// NewMoveTable creates the move list table.
func NewMoveTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 6},
		{Title: "Date", Width: 12},
		{Title: "Action", Width: 12},
		{Title: "Symbol", Width: 10},
		{Title: "Quantity", Width: 14},
	}

	return newResultsTable(columns)
}

func newResultsTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// UpdateBalanceRows fills the balance table from a run's yearly ledger.
func UpdateBalanceRows(t table.Model, ledger map[int]float64) table.Model {
	years := make([]int, 0, len(ledger))
	for year := range ledger {
		years = append(years, year)
	}

	sort.Ints(years)

	rows := make([]table.Row, 0, len(years))
	for _, year := range years {
		rows = append(rows, table.Row{
			strconv.Itoa(year),
			fmt.Sprintf("%.2f", ledger[year]),
		})
	}

	t.SetRows(rows)

	return t
}

// UpdateMoveRows fills the move table from a run's move list.
func UpdateMoveRows(t table.Model, moves []types.Move) table.Model {
	rows := make([]table.Row, 0, len(moves))
	for i, move := range moves {
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			move.Date,
			string(move.Action),
			move.Symbol,
			move.Quantity,
		})
	}

	t.SetRows(rows)

	return t
}

// RenderTabs renders the browse tab bar with the active tab highlighted.
func RenderTabs(active int) string {
	parts := make([]string, 0, len(tabNames))

	for i, name := range tabNames {
		if i == active {
			parts = append(parts, ActiveTabStyle.Render(name))
		} else {
			parts = append(parts, InactiveTabStyle.Render(name))
		}
	}

	return strings.Join(parts, "  ")
}

// RenderSummary renders the summary tab as aligned label/value lines.
func RenderSummary(s *report.Summary) string {
	if s == nil {
		return "No summary loaded.\n"
	}

	lines := []struct {
		label string
		value string
	}{
		{"Run ID", s.RunID},
		{"Scenario", string(s.Scenario)},
		{"Initial cash", fmt.Sprintf("%.2f", s.InitialCash)},
		{"Final cash", fmt.Sprintf("%.2f", s.FinalCash)},
		{"Replayed cash", fmt.Sprintf("%.2f", s.ValidatedCash)},
		{"Validation", string(s.Validation)},
		{"Moves", strconv.Itoa(s.MoveCount)},
		{"Pairs", strconv.Itoa(s.Pairs.NumberOfPairs)},
		{"Win rate", fmt.Sprintf("%.1f%%", s.Pairs.WinRate*100)},
		{"Realized PnL", fmt.Sprintf("%.2f", s.Pairs.RealizedPnL)},
		{"Best pair", fmt.Sprintf("%.2f", s.Pairs.BestPairPnL)},
		{"Worst pair", fmt.Sprintf("%.2f", s.Pairs.WorstPairPnL)},
	}

	var b strings.Builder

	for _, line := range lines {
		b.WriteString(LabelStyle.Render(fmt.Sprintf("%-14s", line.label)))
		b.WriteString(" ")
		b.WriteString(line.value)
		b.WriteString("\n")
	}

	if s.ValidationError != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Validator error: %s", s.ValidationError)))
		b.WriteString("\n")
	}

	return b.String()
}
