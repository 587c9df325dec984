package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // borders, spinner
	SuccessColor = lipgloss.Color("#43BF6D")
	ErrorColor   = lipgloss.Color("#FF5555")
	WarningColor = lipgloss.Color("#FFA500") // running step, confirm prompt
	MutedColor   = lipgloss.Color("#626262")
	TextColor    = lipgloss.Color("#FFFFFF")
)

// Boxes are never narrower than MinTerminalWidth or wider than
// MaxContentWidth columns.
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

func muted() lipgloss.Style { return lipgloss.NewStyle().Foreground(MutedColor) }

func indented(s lipgloss.Style) lipgloss.Style { return s.PaddingLeft(2) }

// Header
var (
	HeaderTitleStyle      = indented(lipgloss.NewStyle().Foreground(TextColor).Bold(true))
	HeaderCommandStyle    = indented(muted())
	HeaderParamKeyStyle   = indented(muted())
	HeaderParamValueStyle = lipgloss.NewStyle().Foreground(TextColor)
)

// Live view: step list, spinner and transfer stats
var (
	ProgressLabelStyle = indented(lipgloss.NewStyle().Foreground(TextColor))
	StepCompleteStyle  = lipgloss.NewStyle().Foreground(SuccessColor)
	StepRunningStyle   = lipgloss.NewStyle().Foreground(WarningColor)
	StepPendingStyle   = muted()
	StepNoteStyle      = muted().Italic(true)
	SpinnerStyle       = lipgloss.NewStyle().Foreground(PrimaryColor)
	StatsStyle         = indented(muted())
	HintStyle          = indented(muted().Italic(true))
)

// Result boxes
var (
	SuccessTitleStyle         = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	ErrorTitleStyle           = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	ErrorMessageStyle         = lipgloss.NewStyle().Foreground(ErrorColor)
	ResultKeyStyle            = muted().Width(15)
	ResultValueStyle          = lipgloss.NewStyle().Foreground(TextColor)
	TroubleshootingTitleStyle = muted().Bold(true)
	TroubleshootingItemStyle  = muted()
)

// Step status markers
const (
	StepMarkerComplete = "✓"
	StepMarkerRunning  = "●"
	StepMarkerPending  = "·"
	SuccessMarker      = "✓"
	FailureMarker      = "✗"
)

// GetTerminalWidth returns the stdout width clamped to
// [MinTerminalWidth, MaxContentWidth]. Non-terminals get MinTerminalWidth.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return min(max(width, MinTerminalWidth), MaxContentWidth)
}

// IsTerminal reports whether f is attached to a terminal. Used to choose
// between the live view and plain line output.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// HeaderBorderStyle returns the border style for command headers
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2)
}

// ProgressBarStyle returns a style for the progress bar row
func ProgressBarStyle() lipgloss.Style {
	return lipgloss.NewStyle().PaddingLeft(2)
}

// RenderHorizontalDivider repeats char width times in the primary color.
func RenderHorizontalDivider(width int, char string) string {
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, width))
}
