package updater

import "time"

// Device timing. The bootloader paces its own requests around these
// intervals; shortening PollInterval in particular makes the device drop
// commands.
const (
	DefaultHandshakeInterval = 100 * time.Millisecond
	DefaultPollInterval      = 50 * time.Millisecond
)

// Timing holds the driver's polling cadence.
type Timing struct {
	// HandshakeInterval is the pause between handshake attempts
	HandshakeInterval time.Duration

	// PollInterval is the pause before each update-loop read
	PollInterval time.Duration
}

// DefaultTiming returns the cadence the device expects.
func DefaultTiming() Timing {
	return Timing{
		HandshakeInterval: DefaultHandshakeInterval,
		PollInterval:      DefaultPollInterval,
	}
}

// Config holds the driver configuration.
type Config struct {
	// Timing is the polling cadence
	Timing Timing

	// OnEvent receives progress events (optional)
	OnEvent EventFunc
}

func defaultConfig() Config {
	return Config{Timing: DefaultTiming()}
}

// Option is a functional option for configuring the Driver.
type Option func(*Config)

// WithTiming overrides the polling cadence. Intended for tests and
// simulators; real devices need DefaultTiming.
func WithTiming(t Timing) Option {
	return func(c *Config) {
		c.Timing = t
	}
}

// WithEventFunc sets a callback for progress events.
//
// Example:
//
//	d := updater.New(port, img, updater.WithEventFunc(func(e updater.Event) {
//	    fmt.Printf("%s %.0f%%\n", e.Kind, e.Fraction()*100)
//	}))
func WithEventFunc(fn EventFunc) Option {
	return func(c *Config) {
		c.OnEvent = fn
	}
}
