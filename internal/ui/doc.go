// Package ui provides terminal UI components for the fwupdater CLI.
//
// This package uses Bubble Tea, Bubbles and Lipgloss to render the flash
// run, and plain line output when stdout is not a terminal.
//
// # Architecture
//
// The UI package provides these component types:
//
//   - Header: Command banner showing operation name and parameters
//   - Progress: Progress bar with step list, fed by updater events
//   - Result: Success/failure boxes with styled information
//   - PlainPrinter: One line per milestone and a dot per idle poll
//
// These components are orchestrated by the FlashRunner, which manages the
// header → progress → result flow for a flash run.
//
// # Usage Pattern
//
//	runner := ui.NewFlashRunner(ui.FlashRunnerConfig{
//	    Title:   "Firmware Update",
//	    Command: "fwupdater flash",
//	    Params:  map[string]string{"Port": "/dev/ttyUSB0"},
//	    Plain:   !ui.IsTerminal(os.Stdout),
//	})
//
//	err := runner.Run(ctx, func(ctx context.Context, onEvent updater.EventFunc) error {
//	    return updater.New(port, img, updater.WithEventFunc(onEvent)).Run(ctx)
//	})
//
// In the live view the driver runs in a background goroutine and its
// events reach the bubbletea program through Program.Send.
//
// # Logging Integration
//
// Logging is controlled via --log-level or the FWUPDATER_LOG_LEVEL
// environment variable. When unset, zap logging is silent so the curated UI
// output is displayed cleanly. Logs go to stderr.
package ui
