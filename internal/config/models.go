package config

import (
	"errors"
	"fmt"
	"runtime"
)

// Defaults
const (
	DefaultFile      = "updater.json"
	DefaultImagePath = "app.upd"
	DefaultBaudRate  = 115200
)

// Config holds the updater settings. Key names match the updater.json files
// already deployed alongside the device tooling.
type Config struct {
	Path       string `json:"path" yaml:"path"`             // Firmware image location
	SerialPort string `json:"serialport" yaml:"serialport"` // Serial port name
	BaudRate   int    `json:"baud_rate" yaml:"baud_rate"`   // Serial baud rate
}

// DefaultSerialPort returns the platform's conventional first serial port.
func DefaultSerialPort() string {
	if runtime.GOOS == "windows" {
		return "COM1"
	}
	return "/dev/ttyUSB0"
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Path:       DefaultImagePath,
		SerialPort: DefaultSerialPort(),
		BaudRate:   DefaultBaudRate,
	}
}

// Validate checks that every field is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Path == "" {
		errs = append(errs, errors.New("path must not be empty"))
	}
	if c.SerialPort == "" {
		errs = append(errs, errors.New("serialport must not be empty"))
	}
	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("baud_rate must be positive, got %d", c.BaudRate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Overrides holds command-line values that take precedence over the file.
// Zero values leave the file setting in place.
type Overrides struct {
	Path       string
	SerialPort string
	BaudRate   int
}

// Apply returns c with non-zero overrides applied.
func (c Config) Apply(o Overrides) Config {
	if o.Path != "" {
		c.Path = o.Path
	}
	if o.SerialPort != "" {
		c.SerialPort = o.SerialPort
	}
	if o.BaudRate != 0 {
		c.BaudRate = o.BaudRate
	}
	return c
}
