// Package logging provides structured logging for the firmware updater.
//
// This package wraps a global zap logger with convenience functions for the
// patterns used by the updater: plain leveled messages, decoded command
// frames, phase transitions and raw serial traffic.
//
// # Log Levels
//
//   - Debug: Serial RX/TX hex dumps, decoded frames
//   - Info: Port opened, phase transitions, run start and completion
//   - Warn: Recoverable oddities (chunk requested past end of image)
//   - Error: Fatal run errors
//
// # Configuration
//
// Logging is silent by default so it never disturbs the progress view.
// Enable it with --log-level or the FWUPDATER_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr in zap's console format.
//
// # Protocol Logging
//
//	logging.LogFrame("rx", frame, zap.String("session", id))
//	logging.LogTransition("handshake", "update-in-progress")
//	logging.LogRawBytes("Serial RX", buf[:n])
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and
// SetLogger must be called before other goroutines start logging.
package logging
