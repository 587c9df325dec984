package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/fwupdater/internal/config"
	"github.com/muurk/fwupdater/internal/firmware"
	"github.com/muurk/fwupdater/internal/logging"
	"github.com/muurk/fwupdater/internal/protocol"
	"github.com/muurk/fwupdater/internal/transport"
	"github.com/muurk/fwupdater/internal/ui"
	"github.com/muurk/fwupdater/internal/updater"
)

// Command flags
var (
	imagePath    string
	serialPort   string
	baudRate     int
	plainOutput  bool
	assumeYes    bool
	forceInit    bool
	outputFormat string
)

func init() {
	// Overrides apply to flash and to config show
	for _, cmd := range []*cobra.Command{rootCmd, flashCmd, configShowCmd} {
		cmd.Flags().StringVar(&imagePath, "image", "", "Firmware image (overrides config path)")
		cmd.Flags().StringVar(&serialPort, "port", "", "Serial port (overrides config serialport)")
		cmd.Flags().IntVar(&baudRate, "baud", 0, "Baud rate (overrides config baud_rate)")
	}

	for _, cmd := range []*cobra.Command{rootCmd, flashCmd} {
		cmd.Flags().BoolVar(&plainOutput, "plain", false, "Plain line output instead of the live view")
		cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	}

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
	configShowCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json, yaml)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(flashCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(scanCmd)
}

func overrides() config.Overrides {
	return config.Overrides{
		Path:       imagePath,
		SerialPort: serialPort,
		BaudRate:   baudRate,
	}
}

// effectiveConfig loads the config file, creating it with defaults when it
// does not exist, and applies the command-line overrides.
func effectiveConfig() (config.Config, bool, error) {
	cfg, created, err := config.LoadOrCreate(configPath)
	if err != nil {
		return config.Config{}, false, err
	}

	effective := cfg.Apply(overrides())
	if err := effective.Validate(); err != nil {
		return config.Config{}, created, fmt.Errorf("%s: %w", configPath, err)
	}
	return effective, created, nil
}

// flashCmd implements the 'flash' command
var flashCmd = &cobra.Command{
	Use:   "flash",
	Short: "Flash the firmware image to the device",
	Long: `Flash the configured firmware image to the device.

This command will:
  1. Load updater.json (creating it with defaults if missing)
  2. Open the image (.hex/.ihex as Intel HEX, anything else as raw binary)
  3. Open the serial port at the configured baud rate, 8N1
  4. Send START_UPD^_^ every 100 ms until the device answers RECEIVESTART
  5. Serve the device's chunk requests until it reports completion

Press ctrl+c to abort. The device stays in its bootloader and the update
can be run again.`,
	Example: `  # Flash using updater.json
  fwupdater flash

  # Override the image and port
  fwupdater flash --image build/app.hex --port COM4

  # Non-interactive, for scripts and CI
  fwupdater flash --yes --plain`,
	RunE: runFlash,
}

func runFlash(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true
	printer := ui.NewPrinter(cmd.OutOrStdout())

	cfg, created, err := effectiveConfig()
	if err != nil {
		printer.PrintFailure("Configuration error", err, []string{
			"Check " + configPath + " is valid JSON (or YAML for .yaml files)",
			"Recreate it with: fwupdater config init --force",
		})
		return err
	}
	if created {
		logging.Info("Created default config", zap.String("path", configPath))
	}

	img, err := firmware.Open(cfg.Path)
	if err != nil {
		printer.PrintFailure("Cannot open firmware image", err, []string{
			"Check the image path in " + configPath + " or pass --image",
		})
		return err
	}
	defer img.Close()

	if !assumeYes && ui.IsTerminal(os.Stdin) {
		if !printer.ConfirmFlash(os.Stdin, cfg.SerialPort, cfg.Path) {
			return errors.New("update cancelled by user")
		}
	}

	port, err := transport.Open(cfg.SerialPort, transport.Options{BaudRate: cfg.BaudRate})
	if err != nil {
		printer.PrintFailure("Cannot open serial port", err, []string{
			"List available ports with: fwupdater ports",
			"Close other programs using " + cfg.SerialPort,
			"On Linux, check you are in the dialout group",
		})
		return err
	}
	defer port.Close()

	runner := ui.NewFlashRunner(ui.FlashRunnerConfig{
		Title:   "Firmware Update",
		Command: cmd.CommandPath(),
		Params: map[string]string{
			"Image": fmt.Sprintf("%s (%s)", cfg.Path, ui.FormatBytes(img.Size())),
			"Port":  fmt.Sprintf("%s @ %d baud", cfg.SerialPort, cfg.BaudRate),
		},
		Plain:  plainOutput || !ui.IsTerminal(os.Stdout),
		Output: cmd.OutOrStdout(),
	})

	return runner.Run(cmd.Context(), func(ctx context.Context, onEvent updater.EventFunc) error {
		return updater.New(port, img, updater.WithEventFunc(onEvent)).Run(ctx)
	})
}

// configCmd groups the config subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the updater config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Write updater.json (or the file named by --config) with default values.

An existing file is left untouched unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		printer := ui.NewPrinter(cmd.OutOrStdout())

		if forceInit {
			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}
			printer.PrintSuccess("Config written", configDetails(configPath, config.Default()))
			return nil
		}

		created, err := config.EnsureDefault(configPath)
		if err != nil {
			return err
		}
		if !created {
			printer.PrintWarning("Config already exists", map[string]string{
				"File": configPath,
				"Hint": "use --force to overwrite",
			})
			return nil
		}
		printer.PrintSuccess("Config written", configDetails(configPath, config.Default()))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration a flash would use: the config file with
--image, --port and --baud applied. A missing config file is created with
defaults first, as a flash would.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, _, err := effectiveConfig()
		if err != nil {
			return err
		}

		switch strings.ToLower(outputFormat) {
		case "json", "yaml":
			format := config.FormatJSON
			if strings.EqualFold(outputFormat, "yaml") {
				format = config.FormatYAML
			}
			data, err := cfg.Marshal(format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		case "detailed":
			ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Effective configuration", configDetails(configPath, cfg))
			return nil
		default:
			return fmt.Errorf("unknown format %q (use detailed, json or yaml)", outputFormat)
		}
	},
}

func configDetails(path string, cfg config.Config) map[string]string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return map[string]string{
		"File":        path,
		"Image":       cfg.Path,
		"Serial port": cfg.SerialPort,
		"Baud rate":   fmt.Sprintf("%d", cfg.BaudRate),
	}
}

// portsCmd implements the 'ports' command
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		printer := ui.NewPrinter(cmd.OutOrStdout())

		ports, err := transport.ListPorts()
		if err != nil {
			printer.PrintFailure("Cannot list serial ports", err, nil)
			return err
		}
		if len(ports) == 0 {
			printer.PrintWarning("No serial ports found", map[string]string{
				"Hint": "check the USB-serial adapter is connected",
			})
			return nil
		}
		for _, p := range ports {
			printer.Println(p)
		}
		return nil
	},
}

// decodeCmd implements the 'decode' command
var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode and verify a 16-byte command frame",
	Long: `Decode a captured command frame and verify its header checksum.

The frame is given as hex; spaces, colons and dashes are ignored.`,
	Example: `  fwupdater decode "aa55 0200 0004 0000 0002 0000 0701 0000"
  fwupdater decode aa:55:03:ff:00:00:00:00:00:00:00:00:01:02:00:00`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		printer := ui.NewPrinter(cmd.OutOrStdout())

		raw, err := parseHexArg(strings.Join(args, ""))
		if err != nil {
			return err
		}
		if len(raw) != protocol.FrameSize {
			err := fmt.Errorf("got %d bytes, a frame is exactly %d", len(raw), protocol.FrameSize)
			printer.PrintFailure("Cannot decode frame", err, []string{
				"Pass a single frame; use 'fwupdater scan' for longer captures",
			})
			return err
		}

		f, err := protocol.Decode(raw)
		if err != nil {
			printer.PrintFailure("Cannot decode frame", err, nil)
			return err
		}

		details := frameDetails(f)
		if err := f.Verify(); err != nil {
			result := ui.NewFailureResult("Header checksum mismatch", err, []string{
				"The frame was corrupted in transit or captured misaligned",
			})
			for k, v := range details {
				result.AddDetail(k, v)
			}
			printer.Println(result.SetWidth(printer.Width()).Render())
			return err
		}

		printer.PrintSuccess("Valid "+f.OpcodeString()+" frame", details)
		return nil
	},
}

func parseHexArg(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "-", "", "\t", "").Replace(s)
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return raw, nil
}

func frameDetails(f protocol.Frame) map[string]string {
	return map[string]string{
		"Marker":   fmt.Sprintf("0x%04X", f.Marker),
		"Opcode":   fmt.Sprintf("%d (%s)", f.Opcode, f.OpcodeString()),
		"Status":   fmt.Sprintf("0x%02X", f.Status),
		"Address":  fmt.Sprintf("0x%08X (%d)", f.Address, f.Address),
		"Aux":      fmt.Sprintf("0x%08X (%d)", f.Aux, f.Aux),
		"Checksum": fmt.Sprintf("0x%04X (computed 0x%04X)", f.HeaderChecksum, f.ComputeHeaderChecksum()),
		"Reserved": fmt.Sprintf("0x%04X", f.Reserved),
	}
}

// scanCmd implements the 'scan' command
var scanCmd = &cobra.Command{
	Use:   "scan <capture>...",
	Short: "Scan raw serial captures for command frames",
	Long: `Scan raw captures of the device-to-host direction for command frames,
the same way the updater does on a live port, and report what was found.

Useful for checking a logic analyzer or serial sniffer capture when a
device rejects an update.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		printer := ui.NewPrinter(cmd.OutOrStdout())

		invalid := 0
		for _, path := range args {
			stats, err := scanFile(path)
			if err != nil {
				printer.PrintFailure("Cannot scan "+path, err, nil)
				return err
			}
			invalid += stats.Invalid()
			printCaptureStats(printer, path, stats)
		}

		if invalid > 0 {
			return fmt.Errorf("%d frame(s) failed checksum verification", invalid)
		}
		return nil
	},
}

func scanFile(path string) (*protocol.CaptureStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return protocol.Analyze(f)
}

func printCaptureStats(printer *ui.Printer, path string, stats *protocol.CaptureStats) {
	details := map[string]string{
		"Bytes":  fmt.Sprintf("%d", stats.Bytes),
		"Frames": fmt.Sprintf("%d (%d valid, %d invalid)", stats.Frames, stats.Valid, stats.Invalid()),
	}
	for op, n := range stats.Opcodes {
		details["Opcode "+protocol.OpcodeName(op)] = fmt.Sprintf("%d", n)
	}
	for status, n := range stats.Statuses {
		details[fmt.Sprintf("Status 0x%02X", status)] = fmt.Sprintf("%d", n)
	}
	if stats.Trailing > 0 {
		details["Trailing"] = fmt.Sprintf("%d bytes", stats.Trailing)
	}

	if stats.Invalid() == 0 {
		printer.PrintSuccess(path, details)
		return
	}

	// Show first 10 failures
	const maxShow = 10
	tips := make([]string, 0, maxShow+1)
	for i, f := range stats.Failures {
		if i == maxShow {
			tips = append(tips, fmt.Sprintf("... and %d more", len(stats.Failures)-maxShow))
			break
		}
		tips = append(tips, fmt.Sprintf("#%d %s", f.Index, f.Hex))
	}
	result := ui.NewFailureResult(path, fmt.Errorf("%d frame(s) failed verification", stats.Invalid()), tips)
	for k, v := range details {
		result.AddDetail(k, v)
	}
	printer.Println(result.SetWidth(printer.Width()).Render())
}
