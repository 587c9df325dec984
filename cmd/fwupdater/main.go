// Fwupdater flashes firmware onto a device over a serial line.
//
// After a text handshake the device drives the transfer: it asks for the
// image 512 bytes at a time and reports when it is done. fwupdater answers
// each request from a raw binary or Intel HEX image.
//
// Usage:
//
//	fwupdater [command] [flags]
//
// Running without arguments flashes the image named in updater.json to the
// configured serial port. See 'fwupdater --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/fwupdater/internal/config"
	"github.com/muurk/fwupdater/internal/logging"
	"github.com/muurk/fwupdater/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "fwupdater",
	Short: "Serial firmware updater",
	Long: `Flash firmware onto a device over a serial line.

fwupdater sends the update handshake until the device's bootloader
acknowledges it, then serves the chunks the device requests until it
reports completion.

Settings are read from updater.json (created with defaults on first run).
If no command is specified, a flash is started with those settings.`,
	Version: version.Version,
	Example: `  # Flash using updater.json
  fwupdater

  # Flash a HEX image to another port without prompting
  fwupdater flash --image build/app.hex --port /dev/ttyACM0 --yes

  # Decode a captured command frame
  fwupdater decode "aa55 0200 0004 0000 0002 0000 0701 0000"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	RunE: runFlash,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "Config file (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $"+logging.LogLevelEnvVar)

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		d := version.Details()
		fmt.Fprintf(cmd.OutOrStdout(), "fwupdater %s (commit: %s) %s %s\n", d["Version"], d["Commit"], d["Go"], d["Platform"])
	},
}
