package main

import "github.com/charmbracelet/lipgloss"

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)

	// ActiveTabStyle for the selected browse tab.
	ActiveTabStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	// InactiveTabStyle for the remaining browse tabs.
	InactiveTabStyle = lipgloss.NewStyle().Faint(true)

	// LabelStyle for summary field names.
	LabelStyle = lipgloss.NewStyle().Faint(true)
)
