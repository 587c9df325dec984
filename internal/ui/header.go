package ui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header represents a command header with title, command, and parameters.
// Shown at the start of a flash run so the operator can confirm the port
// and image before the device starts pulling data.
type Header struct {
	Title   string            // e.g., "FIRMWARE UPDATE"
	Command string            // e.g., "fwupdater flash"
	Params  map[string]string // e.g., {"Port": "/dev/ttyUSB0", "Image": "app.upd"}
	Width   int               // Terminal width for responsive rendering
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params map[string]string) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := max(h.Width, MinTerminalWidth)

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	commandLine := HeaderCommandStyle.Render(h.Command)
	topSection := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	content := topSection
	if len(h.Params) > 0 {
		divider := RenderHorizontalDivider(max(width-6, 10), "─")
		content = lipgloss.JoinVertical(lipgloss.Left, topSection, divider, renderParams(h.Params))
	}

	return HeaderBorderStyle(width).Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}

// renderParams renders "Key: Value" lines sorted by key, with the values
// aligned.
func renderParams(params map[string]string) string {
	keys := sortedKeys(params)

	pad := 0
	for _, k := range keys {
		pad = max(pad, lipgloss.Width(k)+1)
	}

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		key := HeaderParamKeyStyle.Render(k + ":" + strings.Repeat(" ", pad-lipgloss.Width(k)-1))
		lines = append(lines, key+" "+HeaderParamValueStyle.Render(params[k]))
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
