package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameTooShort is returned when fewer than FrameSize bytes are decoded.
	ErrFrameTooShort = errors.New("frame too short")

	// ErrChecksumMismatch is returned when a frame's header checksum does not
	// match the checksum of its first 12 bytes.
	ErrChecksumMismatch = errors.New("header checksum mismatch")
)

// ChecksumMismatchError carries the stored and computed header checksums of
// a rejected frame.
type ChecksumMismatchError struct {
	// Frame is the decoded frame that failed verification
	Frame Frame
	// Expected is the checksum computed over the frame header
	Expected uint16
	// Actual is the checksum carried in the frame
	Actual uint16
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("header checksum mismatch: frame carries 0x%04X, computed 0x%04X (opcode=%d, address=0x%08X)",
		e.Actual, e.Expected, e.Frame.Opcode, e.Frame.Address)
}

func (e *ChecksumMismatchError) Unwrap() error {
	return ErrChecksumMismatch
}
