package transport

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/muurk/fwupdater/internal/logging"
)

// DefaultReadTimeout is how long one Read waits for the device before
// reporting ErrTimeout.
const DefaultReadTimeout = 10 * time.Millisecond

// ErrTimeout is returned by Read when no byte arrived within the read
// timeout. It means "no data yet", not a failure.
var ErrTimeout = errors.New("serial read timeout")

// Port is the subset of serial.Port the channel needs.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Serial is a byte channel over a serial port.
type Serial struct {
	name string
	port Port
}

// Options configures a serial connection
type Options struct {
	BaudRate    int
	ReadTimeout time.Duration
}

// Open opens the named port at 8N1 with the given options.
func Open(name string, opts Options) (*Serial, error) {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}

	logging.Info("Serial port opened",
		zap.String("port", name),
		zap.Int("baud_rate", opts.BaudRate),
		zap.Duration("read_timeout", opts.ReadTimeout),
	)
	return NewSerial(name, port), nil
}

// NewSerial wraps an already-open port.
func NewSerial(name string, port Port) *Serial {
	return &Serial{name: name, port: port}
}

// Name returns the port name.
func (s *Serial) Name() string { return s.name }

// Read reads whatever the device has sent. A read that times out with no
// data returns ErrTimeout.
func (s *Serial) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", s.name, err)
	}
	if n == 0 {
		return 0, ErrTimeout
	}
	logging.LogRawBytes("Serial RX", p[:n])
	return n, nil
}

// Write writes all of p or fails.
func (s *Serial) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := s.port.Write(p[written:])
		written += n
		if err != nil {
			return written, fmt.Errorf("write %s: %w", s.name, err)
		}
		if n == 0 {
			return written, fmt.Errorf("write %s: %w", s.name, io.ErrShortWrite)
		}
	}
	logging.LogRawBytes("Serial TX", p)
	return written, nil
}

// Close closes the port.
func (s *Serial) Close() error {
	return s.port.Close()
}

// ListPorts returns the serial ports present on this machine, sorted by name.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}
