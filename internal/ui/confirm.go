package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmPhrase is what the user must type to confirm a flash
const ConfirmPhrase = "yes"

// Confirm displays a warning box and prompts the user to type phrase to
// proceed. Returns true if the user confirmed, false otherwise.
func (p *Printer) Confirm(in io.Reader, title string, warnings []string, phrase string) bool {
	width := max(p.width, MinTerminalWidth)

	titleLine := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(fmt.Sprintf("   ⚠  WARNING  ─  %s", title))
	lines := []string{"", titleLine, ""}

	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	p.Println(box)
	p.Newline()

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	p.Printf("%s", promptStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", phrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	p.Newline()
	if err != nil && input == "" {
		return false
	}

	if strings.EqualFold(strings.TrimSpace(input), phrase) {
		return true
	}

	p.Println(lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	p.Newline()
	return false
}

// ConfirmFlash is the pre-configured confirmation shown before a flash
func (p *Printer) ConfirmFlash(in io.Reader, port, image string) bool {
	return p.Confirm(in, "FIRMWARE UPDATE", []string{
		fmt.Sprintf("The device on %s will be reprogrammed with %s", port, image),
		"Put the device in bootloader mode before proceeding",
		"Do not disconnect or power off the device once the transfer starts",
	}, ConfirmPhrase)
}
