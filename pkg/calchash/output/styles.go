package output

import "github.com/charmbracelet/lipgloss"

// theme holds the lipgloss styles used by Summary.
type theme struct {
	box     lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	figure  lipgloss.Style // sizes and rates
	muted   lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	caution lipgloss.Style
}

// ANSI 256-color palette.
var (
	accent = lipgloss.Color("39")
	green  = lipgloss.Color("42")
	amber  = lipgloss.Color("214")
	red    = lipgloss.Color("196")
	gray   = lipgloss.Color("245")
	white  = lipgloss.Color("255")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var summaryTheme = theme{
	box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		MarginBottom(1),
	label:   fg(gray),
	value:   fg(white),
	figure:  fg(accent).Bold(true),
	muted:   fg(gray),
	good:    fg(green),
	bad:     fg(red),
	caution: fg(amber),
}
