package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// CaptureFailure records a frame in a capture that failed verification.
type CaptureFailure struct {
	Index int    // 0-based frame index in the capture
	Hex   string // raw frame bytes
	Err   error
}

// CaptureStats summarises the frames found in a raw serial capture.
type CaptureStats struct {
	Bytes    int64
	Frames   int
	Valid    int
	Opcodes  map[byte]int
	Statuses map[byte]int
	Failures []CaptureFailure
	// Trailing is the number of bytes left buffered at the end, usually a
	// truncated frame.
	Trailing int
}

// Invalid returns the number of frames that failed verification.
func (s *CaptureStats) Invalid() int {
	return len(s.Failures)
}

// Analyze scans a raw byte capture of the device-to-host direction the way
// the driver does and counts what it finds. Reads are fed to a Scanner in
// chunks so split frames are handled as on a live port.
func Analyze(r io.Reader) (*CaptureStats, error) {
	stats := &CaptureStats{
		Opcodes:  make(map[byte]int),
		Statuses: make(map[byte]int),
	}

	var sc Scanner
	buf := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			stats.Bytes += int64(n)
			sc.Feed(buf[:n])
			stats.drain(&sc)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read capture: %w", err)
		}
	}

	stats.Trailing = sc.Buffered()
	return stats, nil
}

func (s *CaptureStats) drain(sc *Scanner) {
	for {
		f, res := sc.Next()
		if res != ScanFound {
			return
		}

		index := s.Frames
		s.Frames++
		if err := f.Verify(); err != nil {
			s.Failures = append(s.Failures, CaptureFailure{
				Index: index,
				Hex:   hex.EncodeToString(f.Encode()),
				Err:   err,
			})
			continue
		}

		s.Valid++
		s.Opcodes[f.Opcode]++
		if f.Opcode == OpReportStatus {
			s.Statuses[f.Status]++
		}
	}
}
