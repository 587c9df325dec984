package protocol

import "bytes"

// ScanResult is the outcome of looking for a frame in a receive buffer.
type ScanResult int

const (
	ScanNoFrame    ScanResult = iota // No marker in the buffer
	ScanIncomplete                   // Marker found, fewer than FrameSize bytes from it
	ScanFound                        // Marker found and a full frame decoded
)

func (r ScanResult) String() string {
	switch r {
	case ScanNoFrame:
		return "no-frame"
	case ScanIncomplete:
		return "incomplete"
	case ScanFound:
		return "found"
	default:
		return "unknown"
	}
}

// Scan looks for the first marker in buf. On ScanFound it returns the frame
// decoded from buf[start:start+FrameSize]. On ScanIncomplete start is the
// marker position and nothing is decoded, even if the short tail contains
// another marker.
func Scan(buf []byte) (f Frame, start int, res ScanResult) {
	start = bytes.Index(buf, MarkerBytes[:])
	if start < 0 {
		return Frame{}, -1, ScanNoFrame
	}
	if len(buf)-start < FrameSize {
		return Frame{}, start, ScanIncomplete
	}
	// Length is checked above; Decode cannot fail here.
	f, _ = Decode(buf[start : start+FrameSize])
	return f, start, ScanFound
}

// DefaultScanLimit bounds the bytes a Scanner holds between frames.
const DefaultScanLimit = 4 * ChunkSize

// Scanner accumulates serial reads and yields complete frames in order.
// The zero value is ready to use.
type Scanner struct {
	buf []byte

	// Limit caps the buffered bytes; the oldest bytes are dropped first.
	// Zero means DefaultScanLimit.
	Limit int
}

// Feed appends received bytes to the scan buffer.
func (s *Scanner) Feed(p []byte) {
	s.buf = append(s.buf, p...)
	limit := s.Limit
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	if over := len(s.buf) - limit; over > 0 {
		s.buf = append(s.buf[:0], s.buf[over:]...)
	}
}

// Next returns the next buffered frame. Bytes after a returned frame stay
// buffered. On ScanIncomplete the tail from the marker is kept; on
// ScanNoFrame everything is dropped except a trailing 0xAA that may be the
// first half of a split marker.
func (s *Scanner) Next() (Frame, ScanResult) {
	f, start, res := Scan(s.buf)
	switch res {
	case ScanFound:
		s.consume(start + FrameSize)
	case ScanIncomplete:
		s.consume(start)
	case ScanNoFrame:
		if n := len(s.buf); n > 0 && s.buf[n-1] == MarkerBytes[0] {
			s.consume(n - 1)
		} else {
			s.buf = s.buf[:0]
		}
	}
	return f, res
}

// Buffered returns the number of bytes waiting to be scanned.
func (s *Scanner) Buffered() int {
	return len(s.buf)
}

// Reset discards all buffered bytes.
func (s *Scanner) Reset() {
	s.buf = s.buf[:0]
}

func (s *Scanner) consume(n int) {
	s.buf = append(s.buf[:0], s.buf[n:]...)
}
